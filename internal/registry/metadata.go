// Package registry - metadata worker answering token metadata requests.
package registry

import (
	"context"

	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// MetadataSource resolves metadata for a single token.
type MetadataSource interface {
	TokenMetadata(ctx context.Context, tokenID string) (wallet.TokenMetadata, error)
}

// MetadataSourceFunc adapts a function to the MetadataSource interface.
type MetadataSourceFunc func(ctx context.Context, tokenID string) (wallet.TokenMetadata, error)

// TokenMetadata implements MetadataSource.
func (f MetadataSourceFunc) TokenMetadata(ctx context.Context, tokenID string) (wallet.TokenMetadata, error) {
	return f(ctx, tokenID)
}

// MetadataWorker consumes TokenFetchMetadataRequested messages and publishes
// a success or failure response per token.
type MetadataWorker struct {
	bus    *events.Bus
	source MetadataSource
	log    *logging.Logger
}

// NewMetadataWorker creates a worker answering from the given source.
func NewMetadataWorker(bus *events.Bus, source MetadataSource) *MetadataWorker {
	return &MetadataWorker{
		bus:    bus,
		source: source,
		log:    logging.GetDefault().Component("metadata"),
	}
}

// Run consumes metadata requests until the context is cancelled.
func (w *MetadataWorker) Run(ctx context.Context) {
	sub := w.bus.Subscribe(events.TokenFetchMetadataRequested)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			req, ok := msg.Payload.(events.TokenMetadataRequest)
			if !ok {
				continue
			}
			w.resolve(ctx, req.TokenID)
		}
	}
}

// resolve answers one request.
func (w *MetadataWorker) resolve(ctx context.Context, tokenID string) {
	meta, err := w.source.TokenMetadata(ctx, tokenID)
	if err != nil {
		w.log.Debug("Metadata fetch failed", "token", tokenID, "error", err)
		w.bus.Publish(events.TokenFetchMetadataFailed, events.TokenMetadataRequest{TokenID: tokenID})
		return
	}

	meta.TokenID = tokenID
	w.bus.Publish(events.TokenFetchMetadataSuccess, events.TokenMetadataResult{
		TokenID:  tokenID,
		Metadata: meta,
	})
}
