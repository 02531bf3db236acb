package session

import (
	"context"
	"fmt"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// ReloadCoordinator recovers after a dropped connection. It re-arms the
// readiness watcher for the Local backend, reloads tokens, invalidates
// cached history for every non-base token, resyncs the address pool for the
// RemoteService backend and refreshes the shared address. A mid-sequence
// failure yields a Failed status with no rollback of already-emitted
// messages; the reload is eventually consistent.
type ReloadCoordinator struct {
	bus    *events.Bus
	state  *State
	loader *TokenLoader
	log    *logging.Logger
}

// NewReloadCoordinator creates a reload coordinator.
func NewReloadCoordinator(bus *events.Bus, state *State, loader *TokenLoader) *ReloadCoordinator {
	return &ReloadCoordinator{
		bus:    bus,
		state:  state,
		loader: loader,
		log:    logging.GetDefault().Component("reload"),
	}
}

// Run consumes reload-needed signals until the context is cancelled.
func (r *ReloadCoordinator) Run(ctx context.Context) {
	sub := r.bus.Subscribe(events.WalletReloadData)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-sub.C():
			if !ok {
				return
			}
			r.reload(ctx)
		}
	}
}

// reload runs one recovery cycle against the active session.
func (r *ReloadCoordinator) reload(ctx context.Context) {
	sess := r.state.Session()
	if sess == nil {
		return
	}

	r.log.Info("Reloading wallet data", "session", sess.ID, "backend", sess.Kind)
	r.state.SetLoading(true)
	r.bus.Publish(events.WalletStatusUpdate, events.StatusUpdate{Status: events.StatusLoading})

	if err := r.reloadData(ctx, sess); err != nil {
		r.log.Error("Wallet data reload failed", "error", err)
		sess.SetStatus(events.StatusFailed)
		r.state.SetLoading(false)
		r.bus.Publish(events.WalletStatusUpdate, events.StatusUpdate{Status: events.StatusFailed})
		return
	}

	sess.SetStatus(events.StatusReady)
	r.state.SetLoading(false)
	r.bus.Publish(events.WalletStatusUpdate, events.StatusUpdate{Status: events.StatusReady})
	r.log.Info("Wallet data reloaded")
}

// reloadData performs the recovery sequence.
func (r *ReloadCoordinator) reloadData(ctx context.Context, sess *WalletSession) error {
	// The Local backend tracks addresses on-device and must resync before
	// any data is fetched; the RemoteService backend skips this wait.
	if sess.Kind == wallet.KindLocal && !sess.Facade.IsReady() {
		if err := r.waitReady(ctx, sess); err != nil {
			return err
		}
	}

	all, _, err := r.loader.Load(ctx, sess.Facade)
	if err != nil {
		return err
	}

	// History cached during the disconnected window may be incomplete.
	for _, tokenID := range all {
		if tokenID == config.BaseTokenID {
			continue
		}
		r.bus.Publish(events.TokenInvalidateHistory, events.TokenFetch{TokenID: tokenID})
	}

	if sess.Kind == wallet.KindRemoteService {
		if err := sess.Facade.RefreshAddresses(ctx); err != nil {
			return fmt.Errorf("address pool refresh: %w", err)
		}
	}

	r.bus.Publish(events.WalletRefreshSharedAddress, nil)
	return nil
}

// waitReady re-arms a fresh readiness watcher and blocks until a ready
// signal is observed. The previous watcher already terminated; watchers are
// one-shot.
func (r *ReloadCoordinator) waitReady(ctx context.Context, sess *WalletSession) error {
	// Subscribe before spawning the watcher so the signal cannot be lost.
	sub := r.bus.Subscribe(events.WalletStateReady, events.WalletStateError)
	defer sub.Cancel()

	watcher := NewReadinessWatcher(r.bus, sess.Facade)
	sess.Group().Go(watcher.Run)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case msg, ok := <-sub.C():
		if !ok {
			return fmt.Errorf("readiness subscription closed")
		}
		if msg.Kind == events.WalletStateError {
			return fmt.Errorf("wallet errored while waiting for readiness")
		}
		return nil
	}
}
