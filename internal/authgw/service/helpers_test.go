package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/devicetrust"
	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider/memory"
	"github.com/aussiebroadwan/invoicely/internal/authgw/service"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/sqlite"
	"github.com/aussiebroadwan/invoicely/pkg/cryptox"
)

const (
	email    = "user1@example.com"
	password = "password1"
)

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

// harness is one browser talking to an in-process identity service, with
// device trust backed by sqlite.
type harness struct {
	backend *memory.Backend
	client  *memory.Client
	clk     *clock
	trust   *devicetrust.Store
	svc     *service.AuthService
}

func newHarness(t *testing.T, mutate ...func(*memory.Config)) *harness {
	t.Helper()

	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := memory.Config{
		Secret:   []byte("test-secret-test-secret-test-secret"),
		Password: cryptox.PasswordParams{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
		Now:      clk.Now,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	backend, err := memory.NewBackend(cfg)
	require.NoError(t, err)

	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ApplyMigrations())

	client := backend.NewClient()
	trust := &devicetrust.Store{
		Cache:   devicetrust.NewMemoryCache(),
		Records: db.Devices(),
		Signals: devicetrust.Signals{UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0", Locale: "en-AU", Timezone: "Australia/Sydney"},
		Now:     clk.Now,
	}

	return &harness{
		backend: backend,
		client:  client,
		clk:     clk,
		trust:   trust,
		svc: &service.AuthService{
			Provider: client,
			Resolver: &service.MFAResolver{Provider: client, Trust: trust},
		},
	}
}

func (h *harness) user(t *testing.T) *domain.User {
	t.Helper()
	u, err := h.backend.CreateUser(email, password, true)
	require.NoError(t, err)
	return u
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.svc.SignIn(context.Background(), email, password))
}

func (h *harness) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, h.clk.Now())
	require.NoError(t, err)
	return code
}

// stateRecorder collects delivered states in order.
type stateRecorder struct {
	ch   chan domain.AuthState
	seen []domain.AuthState
}

func (h *harness) subscribe(t *testing.T) *stateRecorder {
	t.Helper()
	rec := &stateRecorder{ch: make(chan domain.AuthState, 64)}
	unsub := h.svc.OnAuthStateChange(context.Background(), func(s domain.AuthState) { rec.ch <- s })
	t.Cleanup(unsub)
	return rec
}

// await skips states until one with the wanted status arrives.
func (r *stateRecorder) await(t *testing.T, want domain.AuthStatus) domain.AuthState {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.ch:
			r.seen = append(r.seen, s)
			require.NoError(t, s.Validate())
			if s.Status == want {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s; seen %v", want, r.statuses())
		}
	}
}

func (r *stateRecorder) statuses() []domain.AuthStatus {
	out := make([]domain.AuthStatus, 0, len(r.seen))
	for _, s := range r.seen {
		out = append(out, s.Status)
	}
	return out
}
