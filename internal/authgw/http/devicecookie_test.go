package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	authhttp "github.com/aussiebroadwan/invoicely/internal/authgw/http"
	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
)

func TestDeviceCookieRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cookies, err := authhttp.NewDeviceCookies(cookieSecret, true)
	require.NoError(t, err)
	cookies.Now = func() time.Time { return now }

	tok := &domain.DeviceToken{UserID: "u1", DeviceID: "d1", ExpiresAt: now.Add(24 * time.Hour)}
	rec := httptest.NewRecorder()
	require.NoError(t, cookies.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), tok))

	set := rec.Result().Cookies()
	require.Len(t, set, 1)
	require.Equal(t, authhttp.DeviceTrustCookie, set[0].Name)
	require.True(t, set[0].HttpOnly)
	require.True(t, set[0].Secure)
	require.Equal(t, 24*60*60, set[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: authhttp.DeviceTrustCookie, Value: set[0].Value})
	got := cookies.Read(req)
	require.NotNil(t, got)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "d1", got.DeviceID)
	require.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))

	// Past expiry the cookie is worthless.
	now = now.Add(25 * time.Hour)
	require.Nil(t, cookies.Read(req))
}

func TestDeviceCookieRejectsForeignSigner(t *testing.T) {
	cookies, err := authhttp.NewDeviceCookies(cookieSecret, false)
	require.NoError(t, err)

	other, err := jwtx.NewHS256([]byte("another-secret-another-secret-another"), "invoicely-authgw")
	require.NoError(t, err)
	raw, err := other.Sign(jwtx.NewDeviceClaims("u1", "d1", "invoicely-authgw", time.Now().Add(time.Hour), time.Now()))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: authhttp.DeviceTrustCookie, Value: raw})
	require.Nil(t, cookies.Read(req))
	require.Nil(t, cookies.Read(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestDeviceCookieClearedWhenTrustGone(t *testing.T) {
	cookies, err := authhttp.NewDeviceCookies(cookieSecret, false)
	require.NoError(t, err)

	// Nothing to clear.
	rec := httptest.NewRecorder()
	require.NoError(t, cookies.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil))
	require.Empty(t, rec.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: authhttp.DeviceTrustCookie, Value: "stale"})
	rec = httptest.NewRecorder()
	require.NoError(t, cookies.Write(rec, req, nil))
	set := rec.Result().Cookies()
	require.Len(t, set, 1)
	require.Equal(t, -1, set[0].MaxAge)
}

func TestNewDeviceCookiesRejectsShortSecret(t *testing.T) {
	_, err := authhttp.NewDeviceCookies([]byte("short"), false)
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}
