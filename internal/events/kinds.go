package events

import "github.com/orbit-wallet/orbitd/internal/wallet"

// Kind identifies a message type on the stream.
type Kind string

// Message kinds produced and consumed by the session core.
const (
	// Session lifecycle.
	StartWalletRequested  Kind = "start-wallet-requested"
	ReloadWalletRequested Kind = "reload-wallet-requested"
	WalletStatusUpdate    Kind = "wallet-status-update"

	// Readiness signals.
	WalletStateReady Kind = "wallet-state-ready"
	WalletStateError Kind = "wallet-state-error"

	// Bridged backend events.
	WalletBestBlockUpdate Kind = "wallet-best-block-update"
	WalletPartialUpdate   Kind = "wallet-partial-update"
	WalletConnStateUpdate Kind = "wallet-conn-state-update"
	WalletReloadData      Kind = "wallet-reload-data"
	WalletNewTx           Kind = "wallet-new-tx"
	WalletUpdateTx        Kind = "wallet-update-tx"

	// Address and connectivity state.
	WalletRefreshSharedAddress Kind = "wallet-refresh-shared-address"
	NetworkStatusUpdate        Kind = "network-status-update"

	// Token loading.
	TokenFetchBalanceRequested  Kind = "token-fetch-balance-requested"
	TokenFetchHistoryRequested  Kind = "token-fetch-history-requested"
	TokenInvalidateHistory      Kind = "token-invalidate-history"
	TokenFetchMetadataRequested Kind = "token-fetch-metadata-requested"
	TokenFetchMetadataSuccess   Kind = "token-fetch-metadata-success"
	TokenFetchMetadataFailed    Kind = "token-fetch-metadata-failed"
	TokenMetadataLoaded         Kind = "token-metadata-loaded"
	TokenMetadataUpdated        Kind = "token-metadata-updated"
)

// WalletStatus is the user-visible session status carried by
// WalletStatusUpdate messages.
type WalletStatus string

const (
	StatusLoading WalletStatus = "loading"
	StatusReady   WalletStatus = "ready"
	StatusFailed  WalletStatus = "failed"
)

// StartRequest is the payload of StartWalletRequested.
type StartRequest struct {
	Credentials *wallet.Credentials
}

// StatusUpdate is the payload of WalletStatusUpdate.
type StatusUpdate struct {
	Status WalletStatus
}

// BestBlockUpdate is the payload of WalletBestBlockUpdate.
type BestBlockUpdate struct {
	Height int64
}

// PartialUpdate is the payload of WalletPartialUpdate, reporting partial
// sync progress.
type PartialUpdate struct {
	HistoryTransactions int
	AddressesFound      int
}

// ConnStateUpdate is the payload of WalletConnStateUpdate.
type ConnStateUpdate struct {
	State wallet.ConnState
}

// NetworkStatus is the payload of NetworkStatusUpdate.
type NetworkStatus struct {
	Online bool
}

// TokenFetch is the payload of the per-token balance/history request kinds
// and of TokenInvalidateHistory (Forced unused there).
type TokenFetch struct {
	TokenID string
	Forced  bool
}

// TokenMetadataRequest is the payload of TokenFetchMetadataRequested and
// TokenFetchMetadataFailed.
type TokenMetadataRequest struct {
	TokenID string
}

// TokenMetadataResult is the payload of TokenFetchMetadataSuccess.
type TokenMetadataResult struct {
	TokenID  string
	Metadata wallet.TokenMetadata
}

// TokenMetadataBatch is the payload of TokenMetadataUpdated: the aggregated
// outcome of one metadata load cycle.
type TokenMetadataBatch struct {
	Metadata map[string]wallet.TokenMetadata
	Errors   []string
}
