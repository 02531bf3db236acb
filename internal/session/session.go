package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/wallet"
)

// WalletSession is the single active wallet facade instance, its backend
// kind and the thread group of listener tasks spawned for it. Exactly one
// session is active at a time; see State.ReplaceSession.
type WalletSession struct {
	ID     uuid.UUID
	Facade wallet.Facade
	Kind   wallet.BackendKind

	group *ThreadGroup

	mu     sync.RWMutex
	status events.WalletStatus
}

// NewWalletSession creates a session for a facade. The thread group is
// parented to the given context, typically the daemon's root context.
func NewWalletSession(parent context.Context, facade wallet.Facade) *WalletSession {
	return &WalletSession{
		ID:     uuid.New(),
		Facade: facade,
		Kind:   facade.Kind(),
		group:  NewThreadGroup(parent),
		status: events.StatusLoading,
	}
}

// Group returns the session's thread group.
func (s *WalletSession) Group() *ThreadGroup {
	return s.group
}

// Status returns the session's current status.
func (s *WalletSession) Status() events.WalletStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus updates the session's status.
func (s *WalletSession) SetStatus(status events.WalletStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}
