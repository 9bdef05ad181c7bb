package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/pkg/cryptox"
	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
)

// Client is one browser's connection to a Backend. It keeps the session in
// memory and emits session events the way the hosted SDK does.
type Client struct {
	b  *Backend
	bc provider.Broadcaster

	mu      sync.Mutex
	session *domain.Session
}

var _ provider.IdentityProvider = (*Client)(nil)

func (c *Client) Subscribe(fn provider.Listener) func() {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()
	return c.bc.Subscribe(fn, current)
}

func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	if err := c.b.fault(OpGetSession); err != nil {
		return nil, err
	}
	return c.liveSession(ctx)
}

// liveSession returns the session, rotating the refresh token first when the
// access token has expired.
func (c *Client) liveSession(_ context.Context) (*domain.Session, error) {
	c.mu.Lock()
	s := c.session
	if s == nil || !s.Expired(c.b.now()) {
		c.mu.Unlock()
		return s, nil
	}

	fresh, err := c.b.refreshSession(s.RefreshToken)
	if err != nil {
		gone := provider.IsSessionGone(err)
		if gone {
			c.session = nil
		}
		c.mu.Unlock()
		if gone {
			c.bc.Emit(provider.EventSignedOut, nil)
		}
		return nil, err
	}
	c.session = fresh
	c.mu.Unlock()

	c.bc.Emit(provider.EventTokenRefreshed, fresh)
	return fresh, nil
}

func (c *Client) setSession(s *domain.Session, ev provider.EventType) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.bc.Emit(ev, s)
}

func (c *Client) authed(ctx context.Context) (*user, *jwtx.SessionClaims, error) {
	s, err := c.liveSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if s == nil {
		return nil, nil, provider.ErrSessionMissing
	}
	return c.b.authenticate(s.AccessToken)
}

func (c *Client) SignInWithPassword(_ context.Context, email, password string) (*domain.Session, error) {
	if err := c.b.fault(OpSignIn); err != nil {
		return nil, err
	}

	email, err := normaliseEmail(email)
	if err != nil {
		return nil, errInvalidCreds
	}

	c.b.mu.Lock()
	u := c.b.byEmail[email]
	var hash string
	var confirmed bool
	if u != nil {
		hash, confirmed = u.passwordHash, u.EmailConfirmedAt != nil
	}
	c.b.mu.Unlock()

	if u == nil || cryptox.VerifyPassword(password, hash) != nil {
		return nil, errInvalidCreds
	}
	if !confirmed {
		return nil, provider.Errorf(400, "email_not_confirmed", "Email not confirmed")
	}

	c.b.mu.Lock()
	sess, err := c.b.issueLocked(u, uuid.NewString(), []jwtx.AMREntry{
		{Method: "password", Timestamp: c.b.now().Unix()},
	})
	c.b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.setSession(sess, provider.EventSignedIn)
	return sess, nil
}

func (c *Client) SignUp(_ context.Context, p provider.SignUpParams) (*provider.SignUpResponse, error) {
	if err := c.b.fault(OpSignUp); err != nil {
		return nil, err
	}

	email, err := normaliseEmail(p.Email)
	if err != nil {
		return nil, err
	}
	if len(p.Password) < MinPasswordLength {
		return nil, provider.Errorf(422, "weak_password", "Password should be at least 6 characters.")
	}
	hash, err := c.b.cfg.Password.Hash(p.Password)
	if err != nil {
		return nil, err
	}

	b := c.b
	b.mu.Lock()
	if existing, ok := b.byEmail[email]; ok {
		defer b.mu.Unlock()
		if b.cfg.AutoConfirm {
			return nil, errUserExists
		}
		if existing.EmailConfirmedAt == nil {
			b.sendLocked("confirm_signup", email, p.EmailRedirectTo)
		}
		// Existing accounts come back as an obfuscated user with no
		// identities, so sign-up cannot be used to enumerate emails.
		return &provider.SignUpResponse{User: &domain.User{
			ID:         uuid.NewString(),
			Email:      email,
			Identities: []domain.Identity{},
		}}, nil
	}

	u := b.insertUserLocked(email, hash, p.Metadata, b.cfg.AutoConfirm)
	if !b.cfg.AutoConfirm {
		b.sendLocked("confirm_signup", email, p.EmailRedirectTo)
		out := &provider.SignUpResponse{User: copyUser(&u.User)}
		b.mu.Unlock()
		return out, nil
	}

	sess, err := b.issueLocked(u, uuid.NewString(), []jwtx.AMREntry{
		{Method: "password", Timestamp: b.now().Unix()},
	})
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.setSession(sess, provider.EventSignedIn)
	return &provider.SignUpResponse{User: sess.User, Session: sess}, nil
}

func (c *Client) SignOut(_ context.Context) error {
	if err := c.b.fault(OpSignOut); err != nil {
		return err
	}

	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s != nil {
		var claims jwtx.SessionClaims
		if err := jwtx.ParseUnverified(s.AccessToken, &claims); err == nil {
			c.b.mu.Lock()
			c.b.revokeSessionLocked(claims.SessionID)
			c.b.mu.Unlock()
		}
	}

	c.bc.Emit(provider.EventSignedOut, nil)
	return nil
}

// ResetPasswordForEmail always succeeds for well-formed addresses so the
// endpoint does not reveal which emails are registered.
func (c *Client) ResetPasswordForEmail(_ context.Context, email, redirectTo string) error {
	if err := c.b.fault(OpResetPassword); err != nil {
		return err
	}

	email, err := normaliseEmail(email)
	if err != nil {
		return err
	}

	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if _, ok := c.b.byEmail[email]; ok {
		c.b.sendLocked("recovery", email, redirectTo)
	}
	return nil
}
