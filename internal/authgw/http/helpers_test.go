package http_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	authhttp "github.com/aussiebroadwan/invoicely/internal/authgw/http"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider/memory"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/sqlite"
	"github.com/aussiebroadwan/invoicely/pkg/authsdk"
	"github.com/aussiebroadwan/invoicely/pkg/cryptox"
)

const (
	email     = "user1@example.com"
	password  = "password1"
	appOrigin = "https://app.example.com"
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"
)

var cookieSecret = []byte("device-cookie-secret-device-cookie")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type gateway struct {
	backend  *memory.Backend
	clk      *clock
	sessions *authhttp.Registry
	srv      *httptest.Server
}

func newGateway(t *testing.T) *gateway {
	t.Helper()

	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	backend, err := memory.NewBackend(memory.Config{
		Secret:   []byte("test-secret-test-secret-test-secret"),
		Password: cryptox.PasswordParams{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
		Now:      clk.Now,
	})
	require.NoError(t, err)

	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ApplyMigrations())

	sessions := &authhttp.Registry{
		NewProvider: func() (provider.IdentityProvider, error) { return backend.NewClient(), nil },
		Devices:     db.Devices(),
		AppOrigin:   appOrigin,
		Now:         clk.Now,
	}
	t.Cleanup(sessions.Close)

	cookies, err := authhttp.NewDeviceCookies(cookieSecret, false)
	require.NoError(t, err)
	cookies.Now = clk.Now

	router := authhttp.NewRouter(sessions, cookies, db, []string{appOrigin}, "test", nil)
	router.SettleTimeout = 2 * time.Second
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &gateway{backend: backend, clk: clk, sessions: sessions, srv: srv}
}

// browser returns a client with its own cookie jar and fixed device signals.
func (g *gateway) browser(t *testing.T) *authsdk.Client {
	t.Helper()
	c, err := authsdk.NewClient(g.srv.URL)
	require.NoError(t, err)
	c.Headers.Set("User-Agent", userAgent)
	c.Headers.Set("Accept-Language", "en-AU")
	c.Headers.Set(authhttp.HeaderTimezone, "Australia/Sydney")
	return c
}

func (g *gateway) cookie(t *testing.T, c *authsdk.Client, name string) *http.Cookie {
	t.Helper()
	u, err := url.Parse(g.srv.URL)
	require.NoError(t, err)
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func (g *gateway) setCookie(t *testing.T, c *authsdk.Client, ck *http.Cookie) {
	t.Helper()
	u, err := url.Parse(g.srv.URL)
	require.NoError(t, err)
	c.HTTPClient.Jar.SetCookies(u, []*http.Cookie{{Name: ck.Name, Value: ck.Value, Path: "/"}})
}

func (g *gateway) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, g.clk.Now())
	require.NoError(t, err)
	return code
}

func requireAPIError(t *testing.T, err error, status int, code string) *authsdk.APIError {
	t.Helper()
	apiErr, ok := err.(*authsdk.APIError)
	require.True(t, ok, "want *authsdk.APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}
