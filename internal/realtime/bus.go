// Package realtime fans state changes out to connected clients.
//
// Delivery is at-most-once and best effort: nothing is buffered for
// subscribers that are not connected at publish time, and events published
// from concurrent requests may reach different subscribers in different
// orders.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllEvents subscribes a handler to every event name.
const AllEvents = "*"

// Event is immutable once published. Data and the wire frame are encoded
// at publish time, so later changes to the published value are not seen.
type Event struct {
	ID         string          `json:"id"`
	Name       string          `json:"event"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`

	frame []byte
}

// Frame is the encoded event as sent over the websocket. Callers must not
// modify the returned slice.
func (e Event) Frame() []byte { return e.frame }

// Handler runs on the publisher's goroutine and must not block.
type Handler func(Event)

type Bus struct {
	log *zap.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]Handler
	closed bool
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		log:  log.Named("bus"),
		subs: make(map[string]map[uint64]Handler),
	}
}

// Subscribe registers h for name (or AllEvents). The returned function
// removes the subscription and is safe to call more than once.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	if b.subs[name] == nil {
		b.subs[name] = make(map[uint64]Handler)
	}
	b.subs[name][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[name], id)
			if len(b.subs[name]) == 0 {
				delete(b.subs, name)
			}
		})
	}
}

// Publish delivers payload to every handler subscribed right now.
func (b *Bus) Publish(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Error("encode event payload", zap.String("event", name), zap.Error(err))
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if ev.frame, err = json.Marshal(ev); err != nil {
		b.log.Error("encode event frame", zap.String("event", name), zap.Error(err))
		return
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := make([]Handler, 0, len(b.subs[name])+len(b.subs[AllEvents]))
	for _, h := range b.subs[name] {
		targets = append(targets, h)
	}
	if name != AllEvents {
		for _, h := range b.subs[AllEvents] {
			targets = append(targets, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range targets {
		b.deliver(h, ev)
	}
	b.log.Debug("event published", zap.String("event", name), zap.Int("subscribers", len(targets)))
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", zap.String("event", ev.Name), zap.Any("panic", r))
		}
	}()
	h(ev)
}

// Subscribers counts handlers across all names.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, hs := range b.subs {
		n += len(hs)
	}
	return n
}

// Close drops every subscription; later publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[uint64]Handler)
}
