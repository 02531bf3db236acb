package wallet

import "context"

// Named events emitted by a facade and its connection. Callback-style
// registration is deliberately avoided; subscribers get a channel and an
// unsubscribe func from the Emitter.
const (
	// Facade events.
	EventState      = "state"
	EventReloadData = "reload-data"
	EventNewTx      = "new-tx"
	EventUpdateTx   = "update-tx"

	// Connection events. EventState is shared with the facade.
	EventBestBlock     = "best-block-update"
	EventPartialUpdate = "wallet-load-partial-update"
)

// Facade is the wallet backend the session core drives and listens to.
type Facade interface {
	// Kind returns which backend implementation this is.
	Kind() BackendKind

	// Start unlocks and starts the backend. It returns the server info
	// reported by the backend, which may omit the network name.
	Start(ctx context.Context, pin, password string) (*ServerInfo, error)

	// Stop releases backend resources. Safe to call more than once.
	Stop() error

	// IsReady is the authoritative readiness predicate.
	IsReady() bool

	// CurrentAddress returns the current receiving address.
	CurrentAddress(ctx context.Context) (AddressInfo, error)

	// AllTokens returns every token the wallet has ever interacted with.
	AllTokens(ctx context.Context) ([]string, error)

	// RefreshAddresses asks the backend to refresh its internal address
	// pool. Only meaningful for the RemoteService backend.
	RefreshAddresses(ctx context.Context) error

	// Events returns the facade event emitter (state, reload-data,
	// new-tx, update-tx).
	Events() *Emitter

	// Connection returns the backend connection.
	Connection() Conn
}

// Conn is the backend connection the session core listens to.
type Conn interface {
	// Events returns the connection event emitter (best-block-update,
	// wallet-load-partial-update, state).
	Events() *Emitter

	// ConnectedState is the canonical "connected" state value; a state
	// event equal to it means the backend is online.
	ConnectedState() ConnState
}

// Factory constructs a facade for a backend kind. The concrete factory owns
// backend-specific wiring (server URLs for RemoteService, the persistent
// store and reload callback for Local).
type Factory interface {
	New(ctx context.Context, kind BackendKind, creds *Credentials) (Facade, error)
}
