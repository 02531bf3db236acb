package session

import (
	"context"
	"fmt"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/flags"
	"github.com/orbit-wallet/orbitd/internal/registry"
	"github.com/orbit-wallet/orbitd/internal/storage"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// Orchestrator is the top-level session state machine. It selects a backend,
// constructs the wallet facade, starts the listener group, waits for
// readiness, loads tokens and handles fallback, cleanup and restart. It is
// the only writer of the active session handle.
type Orchestrator struct {
	bus      *events.Bus
	state    *State
	store    *storage.Storage
	flags    flags.Provider
	registry registry.Registry
	factory  wallet.Factory
	cfg      *config.Config
	loader   *TokenLoader
	notifier Notifier
	log      *logging.Logger
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Bus      *events.Bus
	State    *State
	Store    *storage.Storage
	Flags    flags.Provider
	Registry registry.Registry
	Factory  wallet.Factory
	Config   *config.Config

	// Notifier is optional; nil falls back to the logging sink.
	Notifier Notifier
}

// NewOrchestrator creates the session orchestrator.
func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewLogNotifier()
	}

	return &Orchestrator{
		bus:      cfg.Bus,
		state:    cfg.State,
		store:    cfg.Store,
		flags:    cfg.Flags,
		registry: cfg.Registry,
		factory:  cfg.Factory,
		cfg:      cfg.Config,
		notifier: notifier,
		log:      logging.GetDefault().Component("orchestrator"),
	}
}

// Run drives the session lifecycle until the context is cancelled. The
// transaction handler and reload coordinator run for the daemon's lifetime;
// per-session listeners live in each session's thread group.
func (o *Orchestrator) Run(ctx context.Context) {
	o.loader = NewTokenLoader(o.bus, o.state, o.registry, ctx)

	txHandler := NewTxHandler(o.bus, o.state, o.store, o.notifier)
	go txHandler.Run(ctx)

	reloader := NewReloadCoordinator(o.bus, o.state, o.loader)
	go reloader.Run(ctx)

	sub := o.bus.Subscribe(events.StartWalletRequested, events.ReloadWalletRequested)
	defer sub.Cancel()

	var lastRequest *events.StartRequest

	for {
		select {
		case <-ctx.Done():
			// Session end: tear the listener group down before leaving.
			o.state.ReplaceSession(nil)
			return

		case msg, ok := <-sub.C():
			if !ok {
				return
			}

			switch msg.Kind {
			case events.StartWalletRequested:
				req, ok := msg.Payload.(*events.StartRequest)
				if !ok {
					continue
				}
				lastRequest = req
				o.runStart(ctx, req)

			case events.ReloadWalletRequested:
				if lastRequest == nil {
					o.log.Warn("Reload requested with no prior start request")
					continue
				}
				o.log.Info("Full wallet restart requested")
				o.runStart(ctx, lastRequest)
			}
		}
	}
}

// runStart runs one start attempt, publishing a Failed status on error.
func (o *Orchestrator) runStart(ctx context.Context, req *events.StartRequest) {
	if err := o.startSession(ctx, req); err != nil {
		o.log.Error("Wallet start failed", "error", err)
		o.state.ReplaceSession(nil)
		o.state.SetLoading(false)
		o.bus.Publish(events.WalletStatusUpdate, events.StatusUpdate{Status: events.StatusFailed})
	}
}

// startSession runs the full start procedure. Starting a new session
// supersedes the previous one: its thread group is cancelled before the new
// facade is published.
func (o *Orchestrator) startSession(ctx context.Context, req *events.StartRequest) error {
	creds := req.Credentials
	if creds == nil {
		return fmt.Errorf("start request without credentials")
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	// Unlock local storage, snapshot the registered tokens so the UI never
	// shows an empty token list during the transition, then clear stale
	// session data.
	if err := o.store.Unlock(creds.PIN); err != nil {
		return fmt.Errorf("unlock storage: %w", err)
	}
	o.state.SetRegistered(o.registry.Tokens())
	if err := o.store.ClearSessionData(); err != nil {
		o.log.Warn("Failed to clear stale session data", "error", err)
	}

	// Offline until the backend explicitly reports otherwise.
	o.state.ResetForNewSession()
	o.bus.Publish(events.WalletStatusUpdate, events.StatusUpdate{Status: events.StatusLoading})

	kind, err := o.selectBackend(ctx, creds)
	if err != nil {
		return err
	}
	o.log.Info("Starting wallet session", "backend", kind)

	facade, err := o.factory.New(ctx, kind, creds)
	if err != nil {
		return fmt.Errorf("construct %s facade: %w", kind, err)
	}

	// Publish as the active session. ReplaceSession cancels the previous
	// thread group before the new facade becomes visible.
	sess := NewWalletSession(ctx, facade)
	o.state.ReplaceSession(sess)

	// All three listeners subscribe at construction time, before the
	// backend's start call, so no early event is lost.
	bridge := NewEventBridge(o.bus, facade)
	readiness := NewReadinessWatcher(o.bus, facade)
	flagWatch := NewFlagWatcher(o.bus, o.state, o.flags)

	readySub := o.bus.Subscribe(events.WalletStateReady, events.WalletStateError)
	defer readySub.Cancel()

	group := sess.Group()
	group.Go(bridge.Run)
	group.Go(readiness.Run)
	group.Go(flagWatch.Run)

	info, err := facade.Start(ctx, creds.PIN, creds.Password)
	if err != nil {
		if kind == wallet.KindRemoteService {
			// One-shot fallback: record the ignore decision, tear the
			// session down and re-dispatch the original request, which
			// will resolve to the Local backend.
			o.log.Warn("Wallet service start failed, falling back to local backend", "error", err)
			if ferr := o.flags.IgnoreWalletService(); ferr != nil {
				o.log.Error("Failed to record wallet service ignore decision", "error", ferr)
			}
			o.state.ReplaceSession(nil)
			o.bus.Publish(events.StartWalletRequested, req)
			return nil
		}
		// Local backend start failure surfaces to the caller.
		return fmt.Errorf("start %s backend: %w", kind, err)
	}

	if info == nil {
		info = &wallet.ServerInfo{}
	}
	if info.Network == "" {
		info.Network = o.cfg.NetworkName()
	}
	o.state.SetServerInfo(*info)

	if !facade.IsReady() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-readySub.C():
			if msg.Kind == events.WalletStateError {
				o.failSession(sess)
				return nil
			}
		}
	}

	if _, _, err := o.loader.Load(group.Context(), facade); err != nil {
		o.log.Error("Token load failed", "error", err)
		o.failSession(sess)
		return nil
	}

	sess.SetStatus(events.StatusReady)
	o.state.SetLoading(false)
	o.bus.Publish(events.WalletStatusUpdate, events.StatusUpdate{Status: events.StatusReady})
	o.log.Info("Wallet session ready", "session", sess.ID, "backend", kind,
		"network", info.Network, "version", info.Version)
	return nil
}

// selectBackend determines the backend kind for a start request. Hardware
// sessions always use the Local backend; otherwise the feature-flag
// collaborator decides.
func (o *Orchestrator) selectBackend(ctx context.Context, creds *wallet.Credentials) (wallet.BackendKind, error) {
	if creds.Hardware {
		return wallet.KindLocal, nil
	}

	useService, err := o.flags.ShouldUseWalletService(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		o.log.Warn("Backend selection flag unavailable, using local backend", "error", err)
		useService = false
	}

	// Initial flag population; the flag watcher never evaluates this one.
	o.state.RecordWalletServiceFlag(useService)

	if useService {
		return wallet.KindRemoteService, nil
	}
	return wallet.KindLocal, nil
}

// failSession marks the session Failed and cancels its thread group.
func (o *Orchestrator) failSession(sess *WalletSession) {
	sess.SetStatus(events.StatusFailed)
	o.state.ReplaceSession(nil)
	o.state.SetLoading(false)
	o.bus.Publish(events.WalletStatusUpdate, events.StatusUpdate{Status: events.StatusFailed})
	o.log.Warn("Wallet session failed", "session", sess.ID)
}
