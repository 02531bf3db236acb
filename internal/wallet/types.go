// Package wallet defines the facade contracts the session core drives.
// The concrete backends (key management, transaction construction, network
// protocol) live behind these interfaces and are not part of this core.
package wallet

// BackendKind identifies which wallet facade implementation is in use.
type BackendKind string

const (
	// KindLocal is the on-device backend with a local persistent store.
	KindLocal BackendKind = "local"

	// KindRemoteService is the server-assisted wallet-service backend.
	KindRemoteService BackendKind = "remote-service"
)

// ConnState represents the state of the backend connection.
type ConnState string

const (
	ConnConnecting ConnState = "connecting"
	ConnConnected  ConnState = "connected"
	ConnClosed     ConnState = "closed"
)

// LifecycleState is the payload of the facade's generic state-change event.
// It is a wake-up signal only; readiness is authoritative on IsReady.
type LifecycleState string

const (
	StateConnecting LifecycleState = "connecting"
	StateSyncing    LifecycleState = "syncing"
	StateReady      LifecycleState = "ready"
	StateError      LifecycleState = "error"
)

// ServerInfo is the version and network reported by the backend at start.
type ServerInfo struct {
	Version string
	Network string
}

// AddressInfo is the wallet's current receiving address and derivation index.
type AddressInfo struct {
	Address string
	Index   int
}

// TxType classifies a transaction for notification purposes.
type TxType string

const (
	TxTypeBlock       TxType = "block"
	TxTypeTransaction TxType = "transaction"
)

// TxInput is a transaction input as seen by the facade.
type TxInput struct {
	TxID    string
	Index   int
	TokenID string
	Value   uint64
	Address string
}

// TxOutput is a transaction output as seen by the facade.
type TxOutput struct {
	TokenID string
	Value   uint64
	Address string
}

// Tx is a wallet-affecting transaction delivered by the facade.
type Tx struct {
	ID        string
	Type      TxType
	Timestamp int64
	Inputs    []TxInput
	Outputs   []TxOutput
}

// TokenIDs returns the deduplicated set of token identifiers referenced by
// the transaction's inputs and outputs.
func (t *Tx) TokenIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, in := range t.Inputs {
		if _, ok := seen[in.TokenID]; !ok && in.TokenID != "" {
			seen[in.TokenID] = struct{}{}
			ids = append(ids, in.TokenID)
		}
	}
	for _, out := range t.Outputs {
		if _, ok := seen[out.TokenID]; !ok && out.TokenID != "" {
			seen[out.TokenID] = struct{}{}
			ids = append(ids, out.TokenID)
		}
	}
	return ids
}

// PartialUpdate reports partial sync progress from the connection.
type PartialUpdate struct {
	HistoryTransactions int
	AddressesFound      int
}

// TokenMetadata is the remotely fetched metadata for a custom token.
type TokenMetadata struct {
	TokenID  string
	Symbol   string
	Name     string
	Verified bool
	Banned   bool
}

// Empty reports whether the metadata carries no useful information.
func (m TokenMetadata) Empty() bool {
	return m.Symbol == "" && m.Name == "" && !m.Verified && !m.Banned
}
