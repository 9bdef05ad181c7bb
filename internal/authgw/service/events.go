package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
)

// StateListener receives every re-derived AuthState.
type StateListener func(domain.AuthState)

// OnAuthStateChange re-derives the AuthState after every provider event and
// hands it to fn. Events are queued and handled one at a time on a worker
// goroutine, never on the provider's delivery path, because deriving state
// calls back into the provider.
//
// The returned function stops the subscription. It is idempotent and may be
// called from inside fn. A callback already running when it is called is
// allowed to finish.
func (s *AuthService) OnAuthStateChange(ctx context.Context, fn StateListener) (unsubscribe func()) {
	q := newEventQueue()
	var (
		stopped atomic.Bool
		once    sync.Once
	)

	unsubProvider := s.Provider.Subscribe(q.push)
	stop := func() {
		once.Do(func() {
			stopped.Store(true)
			unsubProvider()
			q.close()
		})
	}

	go func() {
		// A cancelled ctx ends the subscription too.
		defer stop()
		for {
			ev, ok := q.pop(ctx)
			if !ok {
				return
			}

			state := s.stateFor(ctx, ev)
			if stopped.Load() {
				return
			}
			fn(state)
		}
	}()

	return stop
}

// stateFor never fails: an error becomes unauthenticated. A verified
// challenge that would resolve to yet another pending challenge is taken as
// authenticated, because the factors a fresh resolution sees are unchanged
// and it would otherwise loop.
func (s *AuthService) stateFor(ctx context.Context, ev provider.Event) domain.AuthState {
	state, err := s.GetAuthState(ctx)
	if err != nil {
		s.log().Error("auth state derivation failed", "event", ev.Type, "error", err)
		return domain.Unauthenticated()
	}

	if ev.Type == provider.EventMFAChallengeVerified && state.Status == domain.StatusMFAChallengePending {
		state.Status = domain.StatusAuthenticated
		state.ChallengeID = ""
		state.FactorID = ""
	}
	return state
}

// eventQueue is an unbounded FIFO. push never blocks, so the provider can
// deliver while holding its own locks.
type eventQueue struct {
	mu     sync.Mutex
	items  []provider.Event
	closed bool
	ready  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{ready: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev provider.Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	q.signal()
}

// pop blocks until an event is queued. It reports false once the queue is
// closed or ctx is done.
func (q *eventQueue) pop(ctx context.Context) (provider.Event, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return provider.Event{}, false
		}
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = provider.Event{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, true
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return provider.Event{}, false
		}
	}
}
