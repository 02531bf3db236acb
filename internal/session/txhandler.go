package session

import (
	"context"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/storage"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// TxHandler reacts to transaction, best-block and connection-state messages.
// Events arriving while the facade is not ready are dropped: no buffering,
// no retry.
type TxHandler struct {
	bus      *events.Bus
	state    *State
	store    *storage.Storage
	notifier Notifier
	log      *logging.Logger
}

// NewTxHandler creates a transaction event handler. The notifier may be nil.
func NewTxHandler(bus *events.Bus, state *State, store *storage.Storage, notifier Notifier) *TxHandler {
	return &TxHandler{
		bus:      bus,
		state:    state,
		store:    store,
		notifier: notifier,
		log:      logging.GetDefault().Component("txhandler"),
	}
}

// Run consumes messages until the context is cancelled.
func (h *TxHandler) Run(ctx context.Context) {
	sub := h.bus.Subscribe(
		events.WalletNewTx,
		events.WalletUpdateTx,
		events.WalletBestBlockUpdate,
		events.WalletConnStateUpdate,
		events.WalletRefreshSharedAddress,
	)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-sub.C():
			if !ok {
				return
			}

			switch msg.Kind {
			case events.WalletNewTx, events.WalletUpdateTx:
				if tx, ok := msg.Payload.(*wallet.Tx); ok {
					h.handleTx(ctx, tx)
				}
			case events.WalletBestBlockUpdate:
				if update, ok := msg.Payload.(events.BestBlockUpdate); ok {
					h.handleBestBlock(update.Height)
				}
			case events.WalletConnStateUpdate:
				if update, ok := msg.Payload.(events.ConnStateUpdate); ok {
					h.handleConnState(update.State)
				}
			case events.WalletRefreshSharedAddress:
				h.refreshSharedAddress(ctx)
			}
		}
	}
}

// handleTx processes a new or updated wallet transaction.
func (h *TxHandler) handleTx(ctx context.Context, tx *wallet.Tx) {
	sess := h.state.Session()
	if sess == nil || !sess.Facade.IsReady() {
		return
	}

	affected := tx.TokenIDs()

	// Best-effort notification; failures are not errors.
	if h.notifier != nil {
		_ = h.notifier.NotifyTx(tx)
	}

	h.refreshSharedAddress(ctx)

	for _, tokenID := range affected {
		if !h.state.IsRegistered(tokenID) {
			continue
		}
		h.bus.Publish(events.TokenFetchBalanceRequested, events.TokenFetch{TokenID: tokenID, Forced: true})
		h.bus.Publish(events.TokenFetchHistoryRequested, events.TokenFetch{TokenID: tokenID, Forced: true})
	}
}

// handleBestBlock re-fetches the base-currency balance when the height
// actually changed.
func (h *TxHandler) handleBestBlock(height int64) {
	sess := h.state.Session()
	if sess == nil || !sess.Facade.IsReady() {
		return
	}

	if height == h.state.BestBlock() {
		return
	}

	h.state.SetBestBlock(height)
	h.bus.Publish(events.TokenFetchBalanceRequested, events.TokenFetch{TokenID: config.BaseTokenID})
}

// handleConnState translates a connection state into the online flag.
func (h *TxHandler) handleConnState(state wallet.ConnState) {
	sess := h.state.Session()
	if sess == nil {
		return
	}

	online := state == sess.Facade.Connection().ConnectedState()
	h.state.SetOnline(online)
	h.bus.Publish(events.NetworkStatusUpdate, events.NetworkStatus{Online: online})
}

// refreshSharedAddress overwrites the shared address from the facade's
// current-address query and updates the persisted cache.
func (h *TxHandler) refreshSharedAddress(ctx context.Context) {
	sess := h.state.Session()
	if sess == nil {
		return
	}

	addr, err := sess.Facade.CurrentAddress(ctx)
	if err != nil {
		h.log.Warn("Failed to refresh shared address", "error", err)
		return
	}

	h.state.SetSharedAddress(addr)
	if h.store != nil {
		if err := h.store.SetSharedAddress(addr.Address, addr.Index); err != nil {
			h.log.Warn("Failed to persist shared address", "error", err)
		}
	}
}
