// Package sim provides a deterministic in-process wallet facade. It is the
// backend the daemon runs against when no production backend is linked, and
// the facade the session tests drive. It owns no real chain logic; it only
// honors the facade contracts (ordered events, readiness, address pool).
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/wallet"
)

// Config holds the simulated backend's behavior.
type Config struct {
	// Kind is the backend kind the facade reports.
	Kind wallet.BackendKind

	// Tokens is the full historical token set, base token included.
	Tokens []string

	// Network is the network name reported at start. Empty simulates a
	// backend that omits it.
	Network string

	// Version is the server version reported at start.
	Version string

	// ReadyOnStart makes the facade report ready as soon as Start returns.
	ReadyOnStart bool

	// FailStart makes Start fail, for exercising the fallback path.
	FailStart bool

	// OnReloadRequested is the Local backend's reload callback.
	OnReloadRequested func()
}

// Wallet is the simulated facade.
type Wallet struct {
	cfg    Config
	events *wallet.Emitter
	conn   *Conn

	mu        sync.RWMutex
	started   bool
	ready     bool
	addrIndex int
	height    int64
}

// Conn is the simulated backend connection.
type Conn struct {
	events *wallet.Emitter
}

// Events returns the connection event emitter.
func (c *Conn) Events() *wallet.Emitter {
	return c.events
}

// ConnectedState returns the canonical connected state.
func (c *Conn) ConnectedState() wallet.ConnState {
	return wallet.ConnConnected
}

// New creates a simulated facade.
func New(cfg Config) *Wallet {
	if cfg.Kind == "" {
		cfg.Kind = wallet.KindLocal
	}
	if len(cfg.Tokens) == 0 {
		cfg.Tokens = []string{config.BaseTokenID}
	}
	if cfg.Version == "" {
		cfg.Version = "sim-0.1.0"
	}

	return &Wallet{
		cfg:    cfg,
		events: wallet.NewEmitter(),
		conn:   &Conn{events: wallet.NewEmitter()},
	}
}

// Kind returns the configured backend kind.
func (w *Wallet) Kind() wallet.BackendKind {
	return w.cfg.Kind
}

// Start starts the simulated backend.
func (w *Wallet) Start(ctx context.Context, pin, password string) (*wallet.ServerInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.cfg.FailStart {
		return nil, fmt.Errorf("simulated start failure (%s)", w.cfg.Kind)
	}

	w.mu.Lock()
	w.started = true
	if w.cfg.ReadyOnStart {
		w.ready = true
	}
	w.mu.Unlock()

	return &wallet.ServerInfo{
		Version: w.cfg.Version,
		Network: w.cfg.Network,
	}, nil
}

// Stop stops the simulated backend. Safe to call more than once.
func (w *Wallet) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started = false
	w.ready = false
	return nil
}

// IsReady is the authoritative readiness predicate.
func (w *Wallet) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ready
}

// CurrentAddress returns the current receiving address.
func (w *Wallet) CurrentAddress(ctx context.Context) (wallet.AddressInfo, error) {
	if err := ctx.Err(); err != nil {
		return wallet.AddressInfo{}, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return wallet.AddressInfo{
		Address: fmt.Sprintf("orb1sim%06d", w.addrIndex),
		Index:   w.addrIndex,
	}, nil
}

// AllTokens returns the configured historical token set.
func (w *Wallet) AllTokens(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := make([]string, len(w.cfg.Tokens))
	copy(tokens, w.cfg.Tokens)
	return tokens, nil
}

// RefreshAddresses advances the simulated address pool.
func (w *Wallet) RefreshAddresses(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.addrIndex++
	w.mu.Unlock()
	return nil
}

// Events returns the facade event emitter.
func (w *Wallet) Events() *wallet.Emitter {
	return w.events
}

// Connection returns the simulated connection.
func (w *Wallet) Connection() wallet.Conn {
	return w.conn
}

// Test and simulation controls.

// SetReady marks the facade ready and emits a state event.
func (w *Wallet) SetReady() {
	w.mu.Lock()
	w.ready = true
	w.mu.Unlock()
	w.events.Emit(wallet.EventState, wallet.StateReady)
}

// EmitState emits a raw facade state event without touching readiness.
func (w *Wallet) EmitState(state wallet.LifecycleState) {
	w.events.Emit(wallet.EventState, state)
}

// EmitNewTx delivers a new-transaction event.
func (w *Wallet) EmitNewTx(tx *wallet.Tx) {
	w.events.Emit(wallet.EventNewTx, tx)
}

// EmitUpdateTx delivers an updated-transaction event.
func (w *Wallet) EmitUpdateTx(tx *wallet.Tx) {
	w.events.Emit(wallet.EventUpdateTx, tx)
}

// EmitReloadData delivers a reload-needed event, as a real backend does
// after a dropped connection.
func (w *Wallet) EmitReloadData() {
	w.events.Emit(wallet.EventReloadData, nil)
	if w.cfg.OnReloadRequested != nil {
		w.cfg.OnReloadRequested()
	}
}

// EmitBestBlock delivers a best-block update on the connection.
func (w *Wallet) EmitBestBlock(height int64) {
	w.mu.Lock()
	w.height = height
	w.mu.Unlock()
	w.conn.events.Emit(wallet.EventBestBlock, height)
}

// EmitConnState delivers a connection state change.
func (w *Wallet) EmitConnState(state wallet.ConnState) {
	w.conn.events.Emit(wallet.EventState, state)
}

// EmitPartialUpdate delivers a partial sync progress event.
func (w *Wallet) EmitPartialUpdate(historyTxs, addressesFound int) {
	w.conn.events.Emit(wallet.EventPartialUpdate, wallet.PartialUpdate{
		HistoryTransactions: historyTxs,
		AddressesFound:      addressesFound,
	})
}

// BumpAddress advances the receiving address, simulating a transaction that
// used the current one.
func (w *Wallet) BumpAddress() {
	w.mu.Lock()
	w.addrIndex++
	w.mu.Unlock()
}

// NewTxID returns a unique simulated transaction ID.
func NewTxID() string {
	return uuid.NewString()
}

// Factory builds simulated facades per backend kind.
type Factory struct {
	mu sync.Mutex

	// Configs holds per-kind behavior overrides.
	Configs map[wallet.BackendKind]Config

	// last is the most recently built facade, exposed for tests.
	last *Wallet
}

// NewFactory creates a factory with empty per-kind configs.
func NewFactory() *Factory {
	return &Factory{Configs: make(map[wallet.BackendKind]Config)}
}

// New builds a facade for the requested backend kind.
func (f *Factory) New(ctx context.Context, kind wallet.BackendKind, creds *wallet.Credentials) (wallet.Facade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	cfg := f.Configs[kind]
	cfg.Kind = kind

	w := New(cfg)
	f.last = w
	return w, nil
}

// Last returns the most recently built facade.
func (f *Factory) Last() *Wallet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}
