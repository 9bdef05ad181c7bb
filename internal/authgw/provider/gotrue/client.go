// Package gotrue talks to a GoTrue-compatible identity service over its REST
// API. One Client holds one browser's session.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

const maxResponseBytes = 1 << 20

var ErrBadConfig = errors.New("gotrue: invalid configuration")

type Config struct {
	// BaseURL is the auth API root, e.g. https://xyz.supabase.co/auth/v1.
	BaseURL string
	// APIKey is the project's public (anon) key.
	APIKey string
	// HTTPClient owns timeouts and retries. Defaults to a 10s timeout client.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q", ErrBadConfig, c.BaseURL)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key is required", ErrBadConfig)
	}
	return nil
}

type Client struct {
	base   string
	apiKey string
	hc     *http.Client
	log    *slog.Logger
	now    func() time.Time

	bc      provider.Broadcaster
	refresh singleflight.Group

	mu      sync.Mutex
	session *domain.Session
}

var _ provider.IdentityProvider = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		base:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		hc:     hc,
		log:    slogx.OrDiscard(cfg.Logger).With("component", "gotrue"),
		now:    now,
	}, nil
}

func (c *Client) Subscribe(fn provider.Listener) func() {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()
	return c.bc.Subscribe(fn, current)
}

// GetSession refreshes an expired session. Concurrent callers share one
// refresh request; the service rotates refresh tokens, so a second request
// with the same token would revoke the session.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil || !s.Expired(c.now()) {
		return s, nil
	}

	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		c.mu.Lock()
		cur := c.session
		c.mu.Unlock()
		if cur == nil || !cur.Expired(c.now()) {
			return cur, nil
		}

		fresh, err := c.grant(ctx, "refresh_token", map[string]string{"refresh_token": cur.RefreshToken})
		if err != nil {
			if provider.IsSessionGone(err) {
				c.log.Info("session ended by refresh failure", "error", err)
				c.setSession(nil, provider.EventSignedOut)
			}
			return nil, err
		}

		c.setSession(fresh, provider.EventTokenRefreshed)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	s, _ = v.(*domain.Session)
	return s, nil
}

func (c *Client) setSession(s *domain.Session, ev provider.EventType) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.bc.Emit(ev, s)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", provider.ErrSessionMissing
	}
	return s.AccessToken, nil
}

func (c *Client) grant(ctx context.Context, grantType string, body any) (*domain.Session, error) {
	var tok tokenJSON
	q := url.Values{"grant_type": {grantType}}
	if err := c.do(ctx, http.MethodPost, "/token", q, "", body, &tok); err != nil {
		return nil, err
	}
	return c.toSession(tok)
}

func (c *Client) toSession(t tokenJSON) (*domain.Session, error) {
	if t.AccessToken == "" {
		return nil, fmt.Errorf("gotrue: token response without access token")
	}

	expiresAt := time.Unix(t.ExpiresAt, 0)
	if t.ExpiresAt == 0 {
		expiresAt = c.now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}

	// The token came straight from the service over TLS; only the assurance
	// level hint is read from it.
	var claims jwtx.SessionClaims
	aal := jwtx.AAL1
	if err := jwtx.ParseUnverified(t.AccessToken, &claims); err != nil {
		c.log.Warn("access token claims unreadable", "error", err)
	} else if claims.AAL != "" {
		aal = claims.AAL
	}

	return &domain.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    expiresAt,
		AAL:          aal,
		User:         t.User.domain(),
	}, nil
}

// do sends a JSON request. A non-empty token is sent as the bearer,
// otherwise the API key is.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gotrue: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("gotrue: build request: %w", err)
	}
	bearer := token
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("gotrue: read %s: %w", path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gotrue: decode %s: %w", path, err)
	}
	return nil
}
