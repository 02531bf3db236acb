package session

import (
	"context"
	"sync"

	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// EventBridge subscribes to the facade and connection events and republishes
// each as a typed message on the bus, in the order the events fire.
// Subscriptions are installed at construction time so no event emitted
// between construction and the backend's start call is lost. On cancellation
// every subscription is removed exactly once, and nothing is published after
// the unsubscribe for its source has run.
type EventBridge struct {
	bus *events.Bus
	log *logging.Logger

	reloadCh   <-chan interface{}
	newTxCh    <-chan interface{}
	updateTxCh <-chan interface{}
	bestCh     <-chan interface{}
	partialCh  <-chan interface{}
	connCh     <-chan interface{}

	unsubs []func()
	once   sync.Once
}

// NewEventBridge creates a bridge and installs all six subscriptions.
func NewEventBridge(bus *events.Bus, facade wallet.Facade) *EventBridge {
	b := &EventBridge{
		bus: bus,
		log: logging.GetDefault().Component("bridge"),
	}

	facadeEvents := facade.Events()
	connEvents := facade.Connection().Events()

	var unsub func()
	b.reloadCh, unsub = facadeEvents.Subscribe(wallet.EventReloadData)
	b.unsubs = append(b.unsubs, unsub)
	b.newTxCh, unsub = facadeEvents.Subscribe(wallet.EventNewTx)
	b.unsubs = append(b.unsubs, unsub)
	b.updateTxCh, unsub = facadeEvents.Subscribe(wallet.EventUpdateTx)
	b.unsubs = append(b.unsubs, unsub)
	b.bestCh, unsub = connEvents.Subscribe(wallet.EventBestBlock)
	b.unsubs = append(b.unsubs, unsub)
	b.partialCh, unsub = connEvents.Subscribe(wallet.EventPartialUpdate)
	b.unsubs = append(b.unsubs, unsub)
	b.connCh, unsub = connEvents.Subscribe(wallet.EventState)
	b.unsubs = append(b.unsubs, unsub)

	return b
}

// Run forwards events until the context is cancelled, then unsubscribes.
func (b *EventBridge) Run(ctx context.Context) {
	defer b.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return

		case <-b.reloadCh:
			b.bus.Publish(events.WalletReloadData, nil)

		case payload := <-b.newTxCh:
			if tx, ok := payload.(*wallet.Tx); ok {
				b.bus.Publish(events.WalletNewTx, tx)
			}

		case payload := <-b.updateTxCh:
			if tx, ok := payload.(*wallet.Tx); ok {
				b.bus.Publish(events.WalletUpdateTx, tx)
			}

		case payload := <-b.bestCh:
			if height, ok := payload.(int64); ok {
				b.bus.Publish(events.WalletBestBlockUpdate, events.BestBlockUpdate{Height: height})
			}

		case payload := <-b.partialCh:
			if p, ok := payload.(wallet.PartialUpdate); ok {
				b.bus.Publish(events.WalletPartialUpdate, events.PartialUpdate{
					HistoryTransactions: p.HistoryTransactions,
					AddressesFound:      p.AddressesFound,
				})
			}

		case payload := <-b.connCh:
			if state, ok := payload.(wallet.ConnState); ok {
				b.bus.Publish(events.WalletConnStateUpdate, events.ConnStateUpdate{State: state})
			}
		}
	}
}

// unsubscribe removes every subscription exactly once.
func (b *EventBridge) unsubscribe() {
	b.once.Do(func() {
		for _, unsub := range b.unsubs {
			unsub()
		}
		b.log.Debug("Event bridge unsubscribed")
	})
}
