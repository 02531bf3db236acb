package wallet

import "sync"

// emitterBuffer bounds each subscriber channel. Events beyond the buffer are
// dropped rather than blocking the emitting backend.
const emitterBuffer = 64

// Emitter delivers named events to channel subscribers in emit order.
// Unsubscribing is idempotent and guarantees no delivery after it returns.
type Emitter struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan interface{}
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[string]map[int]chan interface{})}
}

// Subscribe registers for a named event. It returns the delivery channel and
// an unsubscribe func. The channel is closed by the unsubscribe func, and no
// event is delivered after it has run.
func (e *Emitter) Subscribe(event string) (<-chan interface{}, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++

	ch := make(chan interface{}, emitterBuffer)
	if e.subs[event] == nil {
		e.subs[event] = make(map[int]chan interface{})
	}
	e.subs[event][id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if subs, ok := e.subs[event]; ok {
				if _, ok := subs[id]; ok {
					delete(subs, id)
					close(ch)
				}
			}
		})
	}

	return ch, unsubscribe
}

// Emit delivers an event to all current subscribers of its name. Slow
// subscribers with a full buffer miss the event.
func (e *Emitter) Emit(event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subs[event] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// SubscriberCount returns the number of subscribers for an event name.
func (e *Emitter) SubscriberCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs[event])
}
