package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
)

const deviceCookieIssuer = "invoicely-authgw"

// DeviceCookies mirrors a browser's device trust cache into a signed cookie,
// so trust outlives the in-memory browser session.
type DeviceCookies struct {
	Signer *jwtx.HS256
	Secure bool
	Now    func() time.Time
}

// NewDeviceCookies signs cookies with secret, which must be at least
// jwtx.MinSecretSize bytes.
func NewDeviceCookies(secret []byte, secure bool) (*DeviceCookies, error) {
	signer, err := jwtx.NewHS256(secret, deviceCookieIssuer)
	if err != nil {
		return nil, err
	}
	return &DeviceCookies{Signer: signer, Secure: secure}, nil
}

func (d *DeviceCookies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Read returns the token in the request's cookie. A missing, expired or
// tampered cookie yields nil.
func (d *DeviceCookies) Read(r *http.Request) *domain.DeviceToken {
	c, err := r.Cookie(DeviceTrustCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	var claims jwtx.DeviceClaims
	if err := d.Signer.WithClock(d.now).Verify(c.Value, &claims); err != nil {
		return nil
	}
	if claims.Subject == "" || claims.DeviceID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return &domain.DeviceToken{
		UserID:    claims.Subject,
		DeviceID:  claims.DeviceID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

// Write sets the cookie from tok, or expires it when tok is nil and the
// browser sent one.
func (d *DeviceCookies) Write(w http.ResponseWriter, r *http.Request, tok *domain.DeviceToken) error {
	if tok == nil {
		if _, err := r.Cookie(DeviceTrustCookie); err == nil {
			http.SetCookie(w, d.cookie("", -1, time.Time{}))
		}
		return nil
	}

	now := d.now()
	raw, err := d.Signer.Sign(jwtx.NewDeviceClaims(tok.UserID, tok.DeviceID, deviceCookieIssuer, tok.ExpiresAt, now))
	if err != nil {
		return err
	}
	http.SetCookie(w, d.cookie(raw, int(tok.ExpiresAt.Sub(now).Seconds()), tok.ExpiresAt))
	return nil
}

func (d *DeviceCookies) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     DeviceTrustCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   d.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
