// Package flags provides the feature-flag collaborator that decides backend
// selection for wallet sessions.
package flags

import "context"

// Provider is the feature-flag collaborator consumed by the session core.
type Provider interface {
	// ShouldUseWalletService decides RemoteService eligibility. The single
	// async decision point during session start.
	ShouldUseWalletService(ctx context.Context) (bool, error)

	// IgnoreWalletService records a persistent decision to stop using the
	// RemoteService backend. ShouldUseWalletService returns false from
	// then on.
	IgnoreWalletService() error

	// Changes subscribes to backend-selection flag changes for the
	// lifetime of a session. The returned func unsubscribes; it is
	// idempotent and closes the channel.
	Changes() (<-chan bool, func())
}
