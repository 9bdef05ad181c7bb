package provider

import (
	"sync"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
)

// Broadcaster is the listener registry shared by drivers. Listeners are
// invoked without the registry lock held, so a listener may unsubscribe
// itself. Emits are serialised so every listener sees events in order.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
	order     []int

	deliver sync.Mutex
}

// Subscribe registers fn and delivers INITIAL_SESSION with current.
func (b *Broadcaster) Subscribe(fn Listener, current *domain.Session) func() {
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = make(map[int]Listener)
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	b.deliver.Lock()
	fn(Event{Type: EventInitialSession, Session: current})
	b.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit delivers ev to every listener registered at the time of the call, in
// subscription order.
func (b *Broadcaster) Emit(typ EventType, session *domain.Session) {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	snapshot := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		snapshot = append(snapshot, b.listeners[id])
	}
	b.mu.Unlock()

	ev := Event{Type: typ, Session: session}
	for _, fn := range snapshot {
		fn(ev)
	}
}

// Len is the number of registered listeners.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
