package session

import (
	"context"
	"fmt"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/registry"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// TokenLoader loads the set of all tokens the wallet has ever interacted
// with and triggers balance downloads for them. The base currency is
// fetched eagerly and blocking; per-token balance requests are
// fire-and-forget; the metadata fetch runs as a detached task whose failure
// or delay never blocks the load.
type TokenLoader struct {
	bus      *events.Bus
	state    *State
	registry registry.Registry
	log      *logging.Logger

	// detachCtx outlives any single session but dies with the daemon, so
	// the detached metadata task is not cancelled by the loader's own
	// cancellation.
	detachCtx context.Context
}

// NewTokenLoader creates a token loader. detachCtx should be the daemon's
// root context.
func NewTokenLoader(bus *events.Bus, state *State, reg registry.Registry, detachCtx context.Context) *TokenLoader {
	if detachCtx == nil {
		detachCtx = context.Background()
	}
	return &TokenLoader{
		bus:       bus,
		state:     state,
		registry:  reg,
		log:       logging.GetDefault().Component("tokens"),
		detachCtx: detachCtx,
	}
}

// Load runs one token load cycle. It returns the full historical token set
// and the registered-but-not-base subset.
func (l *TokenLoader) Load(ctx context.Context, facade wallet.Facade) (all []string, registered []string, err error) {
	// Base currency first, blocking on this single call.
	if err := l.registry.FetchTokenData(ctx, config.BaseTokenID); err != nil {
		return nil, nil, fmt.Errorf("base token load: %w", err)
	}

	all, err = facade.AllTokens(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("token set query: %w", err)
	}

	for _, id := range l.state.RegisteredIDs() {
		if id != config.BaseTokenID {
			registered = append(registered, id)
		}
	}

	// Detached: runs to completion or failure independently of this load.
	go l.loadMetadata(l.detachCtx, registered)

	for _, id := range all {
		l.bus.Publish(events.TokenFetchBalanceRequested, events.TokenFetch{TokenID: id})
	}

	l.log.Info("Token load cycle dispatched", "tokens", len(all), "registered", len(registered))
	return all, registered, nil
}

// loadMetadata fetches metadata for the registered non-base tokens and
// emits one combined update. Responses are matched by token ID in any
// order. There is no timeout: an absent response stalls that token's
// completion until the daemon shuts down.
func (l *TokenLoader) loadMetadata(ctx context.Context, tokens []string) {
	if len(tokens) == 0 {
		l.bus.Publish(events.TokenMetadataLoaded, nil)
		return
	}

	// Listen before requesting so no response can be missed.
	sub := l.bus.Subscribe(events.TokenFetchMetadataSuccess, events.TokenFetchMetadataFailed)
	defer sub.Cancel()

	pending := make(map[string]struct{}, len(tokens))
	for _, id := range tokens {
		pending[id] = struct{}{}
		l.state.SetTokenOutcome(id, TokenOutcome{Kind: OutcomePending})
	}
	for _, id := range tokens {
		l.bus.Publish(events.TokenFetchMetadataRequested, events.TokenMetadataRequest{TokenID: id})
	}

	successes := make(map[string]wallet.TokenMetadata)
	var failures []string

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-sub.C():
			if !ok {
				return
			}

			switch msg.Kind {
			case events.TokenFetchMetadataSuccess:
				res, ok := msg.Payload.(events.TokenMetadataResult)
				if !ok {
					continue
				}
				if _, waiting := pending[res.TokenID]; !waiting {
					continue
				}
				delete(pending, res.TokenID)
				if res.Metadata.Empty() {
					l.state.SetTokenOutcome(res.TokenID, TokenOutcome{Kind: OutcomeNoMetadata})
					continue
				}
				successes[res.TokenID] = res.Metadata
				l.state.SetTokenOutcome(res.TokenID, TokenOutcome{
					Kind:     OutcomeSuccess,
					Metadata: res.Metadata,
				})

			case events.TokenFetchMetadataFailed:
				req, ok := msg.Payload.(events.TokenMetadataRequest)
				if !ok {
					continue
				}
				if _, waiting := pending[req.TokenID]; !waiting {
					continue
				}
				delete(pending, req.TokenID)
				failures = append(failures, req.TokenID)
				l.state.SetTokenOutcome(req.TokenID, TokenOutcome{Kind: OutcomeFailed})
			}
		}
	}

	if len(failures) > 0 {
		l.log.Warn("Metadata fetch failed for some tokens", "failed", len(failures))
	}

	l.bus.Publish(events.TokenMetadataUpdated, events.TokenMetadataBatch{
		Metadata: successes,
		Errors:   failures,
	})
}
