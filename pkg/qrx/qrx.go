// Package qrx renders QR codes for authenticator enrollment.
package qrx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	DefaultSize = 256 // px
	QuietZone   = 2   // modules of white border on each side

	DataURIPrefix    = "data:"
	PNGDataURIPrefix = "data:image/png;base64,"
	SVGDataURIPrefix = "data:image/svg+xml;base64,"
)

var ErrEmptyContent = errors.New("qrx: empty content")

// encode uses low error correction. otpauth URIs with long issuers and
// account names overflow the higher levels into codes phones scan poorly.
func encode(content string) (barcode.Barcode, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	code, err := qr.Encode(content, qr.L, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrx: encode: %w", err)
	}
	return code, nil
}

// PNG renders content as a square PNG of at least size px with a quiet zone.
func PNG(content string, size int) ([]byte, error) {
	code, err := encode(content)
	if err != nil {
		return nil, err
	}

	n := code.Bounds().Dx()
	px := max(size/(n+2*QuietZone), 1)
	inner := px * n

	scaled, err := barcode.Scale(code, inner, inner)
	if err != nil {
		return nil, fmt.Errorf("qrx: scale: %w", err)
	}

	side := max(size, px*(n+2*QuietZone))
	canvas := image.NewGray(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	off := (side - inner) / 2
	draw.Draw(canvas, image.Rect(off, off, off+inner, off+inner), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("qrx: png: %w", err)
	}
	return buf.Bytes(), nil
}

// PNGDataURI is PNG wrapped in a data URI.
func PNGDataURI(content string, size int) (string, error) {
	b, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return PNGDataURIPrefix + base64.StdEncoding.EncodeToString(b), nil
}

// SVG renders content as standalone SVG markup, one rect per dark module.
func SVG(content string) (string, error) {
	code, err := encode(content)
	if err != nil {
		return "", err
	}

	n := code.Bounds().Dx()
	side := n + 2*QuietZone

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, side, side)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="#FFFFFF"/>`, side, side)
	sb.WriteString(`<path fill="#000000" d="`)
	for y := range n {
		for x := range n {
			if dark(code.At(x, y)) {
				fmt.Fprintf(&sb, "M%d %dh1v1h-1z", x+QuietZone, y+QuietZone)
			}
		}
	}
	sb.WriteString(`"/></svg>`)
	return sb.String(), nil
}

// SVGDataURI base64-wraps SVG markup into a data URI.
func SVGDataURI(markup string) string {
	return SVGDataURIPrefix + base64.StdEncoding.EncodeToString([]byte(markup))
}

// IsSVG reports whether s looks like inline SVG markup.
func IsSVG(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<svg") || strings.HasPrefix(s, "<?xml") && strings.Contains(s, "<svg")
}

func dark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}
