// Package events provides the central typed event stream shared by the
// session core. Every component publishes and consumes messages here; there
// is no direct coupling between the orchestrator, watchers and loaders.
package events

import (
	"context"
	"sync"

	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// subscriptionBuffer bounds each subscriber channel.
const subscriptionBuffer = 256

// Message is a typed message on the stream.
type Message struct {
	Kind    Kind
	Payload interface{}
}

// Bus fans messages out to subscribers, preserving publish order per
// subscriber. Slow subscribers with a full buffer miss messages.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
	log  *logging.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[*Subscription]struct{}),
		log:  logging.GetDefault().Component("bus"),
	}
}

// Subscription is a cancellable, kind-filtered view of the stream.
type Subscription struct {
	bus   *Bus
	kinds map[Kind]struct{}
	ch    chan Message
	once  sync.Once
}

// Subscribe registers for the given kinds. No kinds means every message.
// The subscription is live as soon as Subscribe returns.
func (b *Bus) Subscribe(kinds ...Kind) *Subscription {
	sub := &Subscription{
		bus: b,
		ch:  make(chan Message, subscriptionBuffer),
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// C returns the delivery channel. It is closed when the subscription is
// cancelled.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Cancel removes the subscription and closes its channel. Idempotent.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

// wants reports whether the subscription's filter matches a kind.
func (s *Subscription) wants(kind Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

// Publish delivers a message to all matching subscribers.
func (b *Bus) Publish(kind Kind, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		if !sub.wants(kind) {
			continue
		}
		select {
		case sub.ch <- Message{Kind: kind, Payload: payload}:
		default:
			b.log.Warn("Subscriber buffer full, dropping message", "kind", kind)
		}
	}
}

// WaitFor blocks until a message of one of the given kinds is published or
// the context is cancelled.
func (b *Bus) WaitFor(ctx context.Context, kinds ...Kind) (Message, error) {
	sub := b.Subscribe(kinds...)
	defer sub.Cancel()

	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-sub.ch:
		return msg, nil
	}
}
