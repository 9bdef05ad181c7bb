// Package session holds the one AuthState a browser session sees and the
// actions bound to it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/service"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

const (
	ConfirmEmailPath  = "/confirm-email"
	ResetPasswordPath = "/reset-password"
)

var (
	ErrAlreadyStarted = errors.New("session: controller already started")
	ErrClosed         = errors.New("session: controller closed")
)

// DeviceTrust is the part of the device trust store the controller drives.
type DeviceTrust interface {
	StoreTrust(ctx context.Context, userID string) error
	ClearTrust(ctx context.Context) error
}

// VerifyInput is a submitted MFA code. ChallengeID is empty during
// enrollment.
type VerifyInput struct {
	FactorID       string
	Code           string
	ChallengeID    string
	RememberDevice bool
}

// Controller subscribes once, keeps the latest AuthState and fans it out.
// Construct one per browser session; Start subscribes and Close tears it
// down.
type Controller struct {
	Auth *service.AuthService
	// Trust is optional; without it RememberDevice and clearDevice are
	// ignored.
	Trust DeviceTrust
	// AppOrigin prefixes the email redirect links, e.g. https://app.example.com.
	AppOrigin string
	Logger    *slog.Logger

	mu        sync.Mutex
	started   bool
	closed    bool
	unsub     func()
	state     domain.AuthState
	version   uint64
	changed   chan struct{}
	nextID    int
	listeners map[int]func(domain.AuthState)
}

func (c *Controller) log() *slog.Logger {
	return slogx.OrDiscard(c.Logger).With("component", "session")
}

// Start subscribes to state changes. Loading stays true until the first
// state arrives.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.state = domain.Unauthenticated()
	if c.changed == nil {
		c.changed = make(chan struct{})
	}
	c.mu.Unlock()

	unsub := c.Auth.OnAuthStateChange(ctx, c.publish)

	c.mu.Lock()
	c.unsub = unsub
	closed := c.closed
	c.mu.Unlock()
	if closed {
		unsub()
	}
	return nil
}

// Close unsubscribes and wakes every waiter. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsub
	if c.changed != nil {
		close(c.changed)
		c.changed = nil
	}
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (c *Controller) publish(st domain.AuthState) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = st
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})

	fns := make([]func(domain.AuthState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// State is the latest delivered state, unauthenticated before the first.
func (c *Controller) State() domain.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version == 0 {
		return domain.Unauthenticated()
	}
	return c.state
}

// Loading is true until the first state has been delivered.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version == 0
}

// Version counts delivered states.
func (c *Controller) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Wait blocks until a state newer than after is delivered and returns it
// with its version.
func (c *Controller) Wait(ctx context.Context, after uint64) (domain.AuthState, uint64, error) {
	for {
		c.mu.Lock()
		if c.version > after {
			st, v := c.state, c.version
			c.mu.Unlock()
			return st, v, nil
		}
		if c.closed {
			c.mu.Unlock()
			return domain.AuthState{}, 0, ErrClosed
		}
		if c.changed == nil {
			c.changed = make(chan struct{})
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return domain.AuthState{}, 0, ctx.Err()
		}
	}
}

// WaitFor blocks until the current or a later state satisfies ok.
func (c *Controller) WaitFor(ctx context.Context, ok func(domain.AuthState) bool) (domain.AuthState, error) {
	var after uint64
	if v := c.Version(); v > 0 {
		if st := c.State(); ok(st) {
			return st, nil
		}
		after = v
	}
	for {
		st, v, err := c.Wait(ctx, after)
		if err != nil {
			return domain.AuthState{}, err
		}
		if ok(st) {
			return st, nil
		}
		after = v
	}
}

// Subscribe registers fn for every later state. fn runs on the delivery
// goroutine and must not block.
func (c *Controller) Subscribe(fn func(domain.AuthState)) (unsubscribe func()) {
	c.mu.Lock()
	if c.listeners == nil {
		c.listeners = make(map[int]func(domain.AuthState))
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) redirect(path string) string {
	if c.AppOrigin == "" {
		return ""
	}
	return strings.TrimSuffix(c.AppOrigin, "/") + path
}

func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	return c.Auth.SignIn(ctx, email, password)
}

// SignUp points the confirmation link at the app's confirm-email page.
func (c *Controller) SignUp(ctx context.Context, in domain.SignUpInput) domain.SignUpResult {
	in.EmailRedirectTo = c.redirect(ConfirmEmailPath)
	return c.Auth.SignUp(ctx, in)
}

// SignOut forgets the remembered device first when clearDevice is set.
func (c *Controller) SignOut(ctx context.Context, clearDevice bool) error {
	if clearDevice && c.Trust != nil {
		if err := c.Trust.ClearTrust(ctx); err != nil {
			c.log().Warn("failed to clear device trust", "error", err)
		}
	}
	return c.Auth.SignOut(ctx)
}

func (c *Controller) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.Auth.ResetPasswordForEmail(ctx, email, c.redirect(ResetPasswordPath))
}

func (c *Controller) EnrollMFATOTP(ctx context.Context) (*domain.MFAEnrollment, error) {
	return c.Auth.EnrollMFATOTP(ctx)
}

// VerifyMFATOTP remembers the device after a good code when asked to.
// Failing to store trust is logged and never fails the verification.
func (c *Controller) VerifyMFATOTP(ctx context.Context, in VerifyInput) (*domain.MFAVerification, error) {
	res, err := c.Auth.VerifyMFATOTP(ctx, in.FactorID, in.Code, in.ChallengeID)
	if err != nil {
		return nil, err
	}

	if in.RememberDevice && c.Trust != nil {
		userID := c.State().UserID()
		if res.User != nil {
			userID = res.User.ID
		}
		if err := c.Trust.StoreTrust(ctx, userID); err != nil {
			c.log().Warn("failed to remember device", "user_id", userID, "error", err)
		}
	}
	return res, nil
}
