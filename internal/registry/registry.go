// Package registry tracks the tokens registered in application state and
// answers token data and metadata requests from the session core.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/orbit-wallet/orbitd/internal/config"
)

// Token is a registered token descriptor.
type Token struct {
	ID     string
	Symbol string
	Name   string
}

// BaseToken returns the base-currency descriptor. It is always registered
// and never queried for metadata.
func BaseToken() Token {
	return Token{
		ID:     config.BaseTokenID,
		Symbol: config.BaseTokenSymbol,
		Name:   config.BaseTokenName,
	}
}

// Registry is the token registry collaborator consumed by the session core.
type Registry interface {
	// Tokens returns all registered token descriptors.
	Tokens() []Token

	// IsRegistered reports whether a token ID is registered.
	IsRegistered(tokenID string) bool

	// FetchTokenData triggers a balance and history load for a token,
	// blocking until the fetch completes.
	FetchTokenData(ctx context.Context, tokenID string) error
}

// TokenDataFetcher performs the actual balance/history load for a token.
// Ownership of the download is external to the session core.
type TokenDataFetcher func(ctx context.Context, tokenID string) error

// MemoryRegistry is an in-memory Registry. The base token is always present.
type MemoryRegistry struct {
	mu      sync.RWMutex
	tokens  map[string]Token
	fetcher TokenDataFetcher
}

// NewMemoryRegistry creates a registry seeded with the base token.
func NewMemoryRegistry(fetcher TokenDataFetcher) *MemoryRegistry {
	base := BaseToken()
	return &MemoryRegistry{
		tokens:  map[string]Token{base.ID: base},
		fetcher: fetcher,
	}
}

// Register adds or replaces a token descriptor.
func (r *MemoryRegistry) Register(token Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.ID] = token
}

// Unregister removes a token descriptor. The base token cannot be removed.
func (r *MemoryRegistry) Unregister(tokenID string) {
	if tokenID == config.BaseTokenID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, tokenID)
}

// Tokens returns all registered token descriptors, sorted by ID for
// deterministic iteration.
func (r *MemoryRegistry) Tokens() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })
	return tokens
}

// IsRegistered reports whether a token ID is registered.
func (r *MemoryRegistry) IsRegistered(tokenID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tokens[tokenID]
	return ok
}

// FetchTokenData triggers the external balance/history load for a token.
func (r *MemoryRegistry) FetchTokenData(ctx context.Context, tokenID string) error {
	if r.fetcher == nil {
		return nil
	}
	return r.fetcher(ctx, tokenID)
}
