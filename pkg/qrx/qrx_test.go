package qrx_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/aussiebroadwan/invoicely/pkg/qrx"
	"github.com/stretchr/testify/require"
)

const uri = "otpauth://totp/Invoicely:alice@example.com?algorithm=SHA1&digits=6&issuer=Invoicely&period=30&secret=JBSWY3DPEHPK3PXP"

func TestPNGSizeAndQuietZone(t *testing.T) {
	b, err := qrx.PNG(uri, qrx.DefaultSize)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, qrx.DefaultSize, img.Bounds().Dx())
	require.Equal(t, qrx.DefaultSize, img.Bounds().Dy())

	// The corner sits in the quiet zone and must be white.
	r, g, bl, _ := img.At(0, 0).RGBA()
	require.Equal(t, uint32(0xffff), r&g&bl)
}

func TestPNGDataURI(t *testing.T) {
	got, err := qrx.PNGDataURI(uri, qrx.DefaultSize)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, qrx.PNGDataURIPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, qrx.PNGDataURIPrefix))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}

func TestSVG(t *testing.T) {
	svg, err := qrx.SVG(uri)
	require.NoError(t, err)
	require.True(t, qrx.IsSVG(svg))
	require.Contains(t, svg, "M2 2h1v1h-1z") // finder pattern corner

	wrapped := qrx.SVGDataURI(svg)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(wrapped, qrx.SVGDataURIPrefix))
	require.NoError(t, err)
	require.Equal(t, svg, string(raw))
}

func TestEmptyContent(t *testing.T) {
	_, err := qrx.PNG("", qrx.DefaultSize)
	require.ErrorIs(t, err, qrx.ErrEmptyContent)
	_, err = qrx.SVG("")
	require.ErrorIs(t, err, qrx.ErrEmptyContent)
}

func TestTooLongContent(t *testing.T) {
	_, err := qrx.PNG(strings.Repeat("x", 5000), qrx.DefaultSize)
	require.Error(t, err)
}

func TestIsSVG(t *testing.T) {
	require.True(t, qrx.IsSVG("  <svg viewBox='0 0 1 1'></svg>"))
	require.True(t, qrx.IsSVG(`<?xml version="1.0"?><svg></svg>`))
	require.False(t, qrx.IsSVG("otpauth://totp/x"))
}
