package session

import (
	"sync"

	"github.com/orbit-wallet/orbitd/internal/registry"
	"github.com/orbit-wallet/orbitd/internal/wallet"
)

// OutcomeKind is the result of a token's metadata fetch.
type OutcomeKind string

const (
	OutcomePending    OutcomeKind = "pending"
	OutcomeSuccess    OutcomeKind = "success"
	OutcomeFailed     OutcomeKind = "failed"
	OutcomeNoMetadata OutcomeKind = "no-metadata"
)

// TokenOutcome is one entry of the token set built during a load cycle.
type TokenOutcome struct {
	Kind     OutcomeKind
	Metadata wallet.TokenMetadata
}

// State is the shared application state read by every component and the UI.
// The orchestrator is the only writer of the session handle; everything else
// reads it. Session replacement is strictly sequential: the previous thread
// group is fully cancelled before the new session is installed.
type State struct {
	mu sync.RWMutex

	session *WalletSession

	registered    map[string]registry.Token
	sharedAddress wallet.AddressInfo
	serverInfo    wallet.ServerInfo
	bestBlock     int64
	online        bool
	loading       bool

	// useWalletService is the recorded backend-selection flag value.
	// nil means never recorded.
	useWalletService *bool

	outcomes map[string]TokenOutcome
}

// NewState creates an empty application state.
func NewState() *State {
	return &State{
		registered: make(map[string]registry.Token),
		outcomes:   make(map[string]TokenOutcome),
		bestBlock:  -1,
	}
}

// Session returns the active wallet session, or nil.
func (s *State) Session() *WalletSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// ReplaceSession supersedes the active session. The previous session's
// thread group is cancelled and its facade stopped before the new session
// becomes visible, so no listener of the old group can outlive it.
func (s *State) ReplaceSession(next *WalletSession) {
	s.mu.Lock()
	prev := s.session
	s.session = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Group().Cancel()
		// Stop is best-effort; the group is already torn down.
		_ = prev.Facade.Stop()
	}

	if next != nil {
		s.mu.Lock()
		s.session = next
		s.mu.Unlock()
	}
}

// ResetForNewSession clears session-scoped state ahead of a start cycle.
// The registered token snapshot and the shared address survive so the UI
// never renders an empty wallet during the transition.
func (s *State) ResetForNewSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = false
	s.loading = true
	s.bestBlock = -1
	s.serverInfo = wallet.ServerInfo{}
	s.outcomes = make(map[string]TokenOutcome)
}

// SetRegistered snapshots the registered token descriptors.
func (s *State) SetRegistered(tokens []registry.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = make(map[string]registry.Token, len(tokens))
	for _, t := range tokens {
		s.registered[t.ID] = t
	}
}

// RegisteredIDs returns the IDs of all registered tokens.
func (s *State) RegisteredIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.registered))
	for id := range s.registered {
		ids = append(ids, id)
	}
	return ids
}

// IsRegistered reports whether a token is in the registered snapshot.
func (s *State) IsRegistered(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registered[tokenID]
	return ok
}

// SharedAddress returns the wallet's current receiving address.
func (s *State) SharedAddress() wallet.AddressInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sharedAddress
}

// SetSharedAddress overwrites the shared receiving address. It persists
// across reloads and is only ever overwritten, never cleared.
func (s *State) SetSharedAddress(addr wallet.AddressInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sharedAddress = addr
}

// ServerInfo returns the backend-reported server info.
func (s *State) ServerInfo() wallet.ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverInfo
}

// SetServerInfo records the backend-reported server info.
func (s *State) SetServerInfo(info wallet.ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// BestBlock returns the last recorded best-block height, -1 if none.
func (s *State) BestBlock() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestBlock
}

// SetBestBlock records the best-block height.
func (s *State) SetBestBlock(height int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bestBlock = height
}

// Online returns the connectivity flag.
func (s *State) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// SetOnline records the connectivity flag.
func (s *State) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// Loading returns whether a load cycle is in progress.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetLoading records whether a load cycle is in progress.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// RecordedWalletServiceFlag returns the recorded backend-selection flag
// value, or nil if none was ever recorded.
func (s *State) RecordedWalletServiceFlag() *bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.useWalletService == nil {
		return nil
	}
	v := *s.useWalletService
	return &v
}

// RecordWalletServiceFlag records the backend-selection flag value.
func (s *State) RecordWalletServiceFlag(value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useWalletService = &value
}

// SetTokenOutcome records a token's metadata-fetch outcome.
func (s *State) SetTokenOutcome(tokenID string, outcome TokenOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[tokenID] = outcome
}

// TokenOutcome returns a token's metadata-fetch outcome.
func (s *State) TokenOutcome(tokenID string) (TokenOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	outcome, ok := s.outcomes[tokenID]
	return outcome, ok
}

// TokenOutcomes returns a copy of the full token set.
func (s *State) TokenOutcomes() map[string]TokenOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]TokenOutcome, len(s.outcomes))
	for id, outcome := range s.outcomes {
		out[id] = outcome
	}
	return out
}
