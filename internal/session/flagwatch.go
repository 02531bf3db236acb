package session

import (
	"context"
	"sync"

	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/flags"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// FlagWatcher consumes backend-selection flag changes for the lifetime of a
// session. It requests a full wallet reload only when a flag value was
// previously recorded, was truthy, and differs from the new value: a flip
// away from remote-service eligibility while the remote service was in use.
// Initial flag population is recorded by the orchestrator and never
// evaluated here.
type FlagWatcher struct {
	bus   *events.Bus
	state *State
	log   *logging.Logger

	changes <-chan bool
	unsub   func()
	once    sync.Once
}

// NewFlagWatcher creates a watcher and installs its change subscription.
func NewFlagWatcher(bus *events.Bus, state *State, provider flags.Provider) *FlagWatcher {
	w := &FlagWatcher{
		bus:   bus,
		state: state,
		log:   logging.GetDefault().Component("flagwatch"),
	}
	w.changes, w.unsub = provider.Changes()
	return w
}

// Run consumes flag changes until cancelled. Non-terminating.
func (w *FlagWatcher) Run(ctx context.Context) {
	defer w.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return

		case value, ok := <-w.changes:
			if !ok {
				return
			}

			prev := w.state.RecordedWalletServiceFlag()
			if prev != nil && *prev && *prev != value {
				w.log.Info("Wallet service flag flipped, requesting reload",
					"previous", *prev, "new", value)
				w.bus.Publish(events.ReloadWalletRequested, nil)
			}
			w.state.RecordWalletServiceFlag(value)
		}
	}
}

// unsubscribe removes the change subscription exactly once.
func (w *FlagWatcher) unsubscribe() {
	w.once.Do(w.unsub)
}
