package devicetrust

import (
	"encoding/base32"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DeviceIDLength is the length of every id ComputeDeviceID returns.
const DeviceIDLength = 32

// Signals are the browser characteristics a device id is derived from.
type Signals struct {
	// CanvasSignature is whatever the client's canvas fingerprint rendered to.
	CanvasSignature string
	UserAgent       string
	Locale          string
	Timezone        string
}

// ComputeDeviceID hashes the signals into a stable alphanumeric id. It only
// identifies a browser well enough to skip a UX step; it is guessable and
// must never stand in for primary authentication.
func ComputeDeviceID(s Signals) string {
	sum := blake2b.Sum256([]byte(strings.Join([]string{
		s.CanvasSignature, s.UserAgent, s.Locale, s.Timezone,
	}, "\x1f")))

	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
	return strings.ToLower(enc[:DeviceIDLength])
}

// DeviceName gives the server record a readable label such as
// "Firefox on Linux".
func DeviceName(userAgent string) string {
	ua := strings.ToLower(userAgent)

	browser := "Unknown browser"
	switch {
	case strings.Contains(ua, "edg/"):
		browser = "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		browser = "Opera"
	case strings.Contains(ua, "firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "chrome/"), strings.Contains(ua, "crios/"):
		browser = "Chrome"
	case strings.Contains(ua, "safari/"):
		browser = "Safari"
	}

	platform := "unknown OS"
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		platform = "iOS"
	case strings.Contains(ua, "android"):
		platform = "Android"
	case strings.Contains(ua, "windows"):
		platform = "Windows"
	case strings.Contains(ua, "mac os"), strings.Contains(ua, "macintosh"):
		platform = "macOS"
	case strings.Contains(ua, "linux"):
		platform = "Linux"
	}

	return browser + " on " + platform
}
