package session

import (
	"context"
	"sync"

	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// ReadinessWatcher consumes facade state events until the wallet reaches a
// terminal readiness state and then stops itself. State events are only
// wake-up signals; readiness is re-checked against the facade's own
// predicate. The watcher is terminal: it emits exactly one of ready or
// error per invocation and must be re-armed after every reload cycle.
type ReadinessWatcher struct {
	bus    *events.Bus
	facade wallet.Facade
	log    *logging.Logger

	stateCh <-chan interface{}
	unsub   func()
	once    sync.Once
}

// NewReadinessWatcher creates a watcher and installs its state subscription,
// so it is listening before the backend's start call is issued.
func NewReadinessWatcher(bus *events.Bus, facade wallet.Facade) *ReadinessWatcher {
	w := &ReadinessWatcher{
		bus:    bus,
		facade: facade,
		log:    logging.GetDefault().Component("readiness"),
	}
	w.stateCh, w.unsub = facade.Events().Subscribe(wallet.EventState)
	return w
}

// Run waits for a terminal readiness state, then stops.
func (w *ReadinessWatcher) Run(ctx context.Context) {
	defer w.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return

		case payload, ok := <-w.stateCh:
			if !ok {
				return
			}

			if state, isState := payload.(wallet.LifecycleState); isState && state == wallet.StateError {
				w.log.Warn("Wallet reported error state")
				w.bus.Publish(events.WalletStateError, nil)
				return
			}

			if w.facade.IsReady() {
				w.bus.Publish(events.WalletStateReady, nil)
				return
			}
		}
	}
}

// unsubscribe removes the state subscription exactly once.
func (w *ReadinessWatcher) unsubscribe() {
	w.once.Do(w.unsub)
}
