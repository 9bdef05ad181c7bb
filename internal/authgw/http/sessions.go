package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/devicetrust"
	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/flow"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/internal/authgw/service"
	"github.com/aussiebroadwan/invoicely/internal/authgw/session"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/pkg/idx"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

const (
	SessionCookie     = "sid"
	DeviceTrustCookie = "device_trust"

	HeaderTimezone = "X-Client-Timezone"
	HeaderCanvas   = "X-Client-Canvas"

	// DefaultIdleTimeout evicts browsers that have not called in this long.
	DefaultIdleTimeout = 30 * time.Minute
)

var ErrRegistryClosed = errors.New("session registry closed")

// ProviderFactory returns a fresh identity-provider client holding no
// session. Every browser gets its own.
type ProviderFactory func() (provider.IdentityProvider, error)

// Bundle is everything one browser's sign-in flow needs.
type Bundle struct {
	ID         string
	Controller *session.Controller
	Flow       *flow.Machine
	Trust      *devicetrust.Store

	cache  devicetrust.Cache
	cancel context.CancelFunc

	// mu serialises requests from the same browser.
	mu       sync.Mutex
	lastSeen time.Time
}

func (b *Bundle) close() {
	b.Controller.Close()
	b.cancel()
}

// Registry maps sid cookies to live bundles.
type Registry struct {
	NewProvider ProviderFactory
	// Devices backs server-side trust validation. Nil keeps trust local.
	Devices   store.Devices
	TrustTTL  time.Duration
	AppOrigin string
	// IdleTimeout defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration
	Now         func() time.Time
	Logger      *slog.Logger

	mu      sync.Mutex
	closed  bool
	bundles map[string]*Bundle
}

func (reg *Registry) now() time.Time {
	if reg.Now != nil {
		return reg.Now()
	}
	return time.Now()
}

func (reg *Registry) idleTimeout() time.Duration {
	if reg.IdleTimeout > 0 {
		return reg.IdleTimeout
	}
	return DefaultIdleTimeout
}

func (reg *Registry) log() *slog.Logger {
	return slogx.OrDiscard(reg.Logger)
}

// Lookup returns the live bundle for id and marks it used. Malformed ids are
// treated as unknown.
func (reg *Registry) Lookup(id string) (*Bundle, bool) {
	sid, err := idx.Parse(id)
	if err != nil {
		return nil, false
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	b, ok := reg.bundles[sid.String()]
	if !ok {
		return nil, false
	}
	b.lastSeen = reg.now()
	return b, true
}

// Create builds and starts a bundle for a new browser. seed, when non-nil,
// is a device token recovered from the browser's cookie.
func (reg *Registry) Create(signals devicetrust.Signals, seed *domain.DeviceToken) (*Bundle, error) {
	prov, err := reg.NewProvider()
	if err != nil {
		return nil, err
	}

	id := idx.New().String()
	log := reg.log().With("sid", id)

	cache := devicetrust.NewMemoryCache()
	if seed != nil {
		if err := cache.Save(*seed); err != nil {
			return nil, err
		}
	}

	trust := &devicetrust.Store{
		Cache:   cache,
		Records: reg.Devices,
		Signals: signals,
		TTL:     reg.TrustTTL,
		Now:     reg.Now,
		Logger:  log,
	}
	auth := &service.AuthService{
		Provider: prov,
		Resolver: &service.MFAResolver{Provider: prov, Trust: trust, Logger: log},
		Logger:   log,
	}
	ctl := &session.Controller{
		Auth:      auth,
		Trust:     trust,
		AppOrigin: reg.AppOrigin,
		Logger:    log,
	}
	machine := flow.NewMachine(ctl)
	ctl.Subscribe(func(st domain.AuthState) { machine.Apply(st) })

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bundle{
		ID:         id,
		Controller: ctl,
		Flow:       machine,
		Trust:      trust,
		cache:      cache,
		cancel:     cancel,
		lastSeen:   reg.now(),
	}

	reg.mu.Lock()
	if reg.closed {
		reg.mu.Unlock()
		cancel()
		return nil, ErrRegistryClosed
	}
	if reg.bundles == nil {
		reg.bundles = make(map[string]*Bundle)
	}
	reg.bundles[id] = b
	reg.mu.Unlock()

	if err := ctl.Start(ctx); err != nil {
		reg.remove(id)
		return nil, err
	}
	log.Debug("browser session created", "device_id", trust.DeviceID())
	return b, nil
}

func (reg *Registry) remove(id string) {
	reg.mu.Lock()
	b, ok := reg.bundles[id]
	delete(reg.bundles, id)
	reg.mu.Unlock()
	if ok {
		b.close()
	}
}

// Len is the number of live bundles.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.bundles)
}

// SweepIdle closes bundles unused for longer than the idle timeout.
func (reg *Registry) SweepIdle(_ context.Context) (int64, error) {
	cutoff := reg.now().Add(-reg.idleTimeout())

	reg.mu.Lock()
	var idle []*Bundle
	for id, b := range reg.bundles {
		if b.lastSeen.Before(cutoff) {
			idle = append(idle, b)
			delete(reg.bundles, id)
		}
	}
	reg.mu.Unlock()

	for _, b := range idle {
		b.close()
	}
	return int64(len(idle)), nil
}

// Close ends every bundle. Create fails afterwards.
func (reg *Registry) Close() {
	reg.mu.Lock()
	reg.closed = true
	all := reg.bundles
	reg.bundles = nil
	reg.mu.Unlock()

	for _, b := range all {
		b.close()
	}
}

// SignalsFromRequest reads the device fingerprint inputs from headers.
func SignalsFromRequest(r *http.Request) devicetrust.Signals {
	return devicetrust.Signals{
		CanvasSignature: r.Header.Get(HeaderCanvas),
		UserAgent:       r.UserAgent(),
		Locale:          r.Header.Get("Accept-Language"),
		Timezone:        r.Header.Get(HeaderTimezone),
	}
}
