package session

import (
	"context"
	"testing"
	"time"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/registry"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/internal/wallet/sim"
)

func waitForStatus(t *testing.T, sub *events.Subscription, want events.WalletStatus) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.C():
			update := msg.Payload.(events.StatusUpdate)
			if update.Status == want {
				return
			}
		case <-deadline:
			t.Fatalf("status %v never published", want)
		}
	}
}

func TestReloadInvalidatesNonBaseHistory(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	state.SetRegistered([]registry.Token{{ID: config.BaseTokenID}})

	facade := sim.New(sim.Config{
		Kind:         wallet.KindRemoteService,
		Tokens:       []string{config.BaseTokenID, "0a", "0b"},
		ReadyOnStart: true,
	})
	if _, err := facade.Start(context.Background(), "1234", ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sess := NewWalletSession(context.Background(), facade)
	state.ReplaceSession(sess)

	statusSub := bus.Subscribe(events.WalletStatusUpdate)
	defer statusSub.Cancel()
	invalidateSub := bus.Subscribe(events.TokenInvalidateHistory)
	defer invalidateSub.Cancel()
	refreshSub := bus.Subscribe(events.WalletRefreshSharedAddress)
	defer refreshSub.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.NewMemoryRegistry(nil)
	loader := NewTokenLoader(bus, state, reg, ctx)
	reloader := NewReloadCoordinator(bus, state, loader)
	go reloader.Run(ctx)

	bus.Publish(events.WalletReloadData, nil)

	waitForStatus(t, statusSub, events.StatusLoading)
	waitForStatus(t, statusSub, events.StatusReady)

	// Every non-base token's history is invalidated; the base token's is not
	invalidated := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case msg := <-invalidateSub.C():
			invalidated[msg.Payload.(events.TokenFetch).TokenID] = true
		case <-time.After(time.Second):
			t.Fatalf("invalidation %d missing", i)
		}
	}
	if !invalidated["0a"] || !invalidated["0b"] {
		t.Errorf("invalidated = %v, want 0a and 0b", invalidated)
	}
	select {
	case msg := <-invalidateSub.C():
		t.Errorf("unexpected invalidation %v", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}

	// The RemoteService backend resyncs its address pool
	if addr, _ := facade.CurrentAddress(ctx); addr.Index != 1 {
		t.Errorf("address index = %d, want 1 after pool refresh", addr.Index)
	}

	select {
	case <-refreshSub.C():
	case <-time.After(time.Second):
		t.Fatal("shared address refresh not requested")
	}

	if sess.Status() != events.StatusReady {
		t.Errorf("session status = %v, want %v", sess.Status(), events.StatusReady)
	}
}

func TestReloadWaitsForLocalReadiness(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	state.SetRegistered([]registry.Token{{ID: config.BaseTokenID}})

	facade := sim.New(sim.Config{
		Kind:   wallet.KindLocal,
		Tokens: []string{config.BaseTokenID},
	})
	if _, err := facade.Start(context.Background(), "1234", ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sess := NewWalletSession(context.Background(), facade)
	state.ReplaceSession(sess)

	statusSub := bus.Subscribe(events.WalletStatusUpdate)
	defer statusSub.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.NewMemoryRegistry(nil)
	loader := NewTokenLoader(bus, state, reg, ctx)
	reloader := NewReloadCoordinator(bus, state, loader)
	go reloader.Run(ctx)

	bus.Publish(events.WalletReloadData, nil)
	waitForStatus(t, statusSub, events.StatusLoading)

	// Not ready yet: the reload blocks on the re-armed readiness watcher
	select {
	case msg := <-statusSub.C():
		t.Fatalf("premature status %v before readiness", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}

	facade.SetReady()
	waitForStatus(t, statusSub, events.StatusReady)
}

func TestReloadFailurePublishesFailedStatus(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	state.SetRegistered([]registry.Token{{ID: config.BaseTokenID}})

	facade := sim.New(sim.Config{
		Kind:   wallet.KindLocal,
		Tokens: []string{config.BaseTokenID},
	})
	if _, err := facade.Start(context.Background(), "1234", ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sess := NewWalletSession(context.Background(), facade)
	state.ReplaceSession(sess)

	statusSub := bus.Subscribe(events.WalletStatusUpdate)
	defer statusSub.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.NewMemoryRegistry(nil)
	loader := NewTokenLoader(bus, state, reg, ctx)
	reloader := NewReloadCoordinator(bus, state, loader)
	go reloader.Run(ctx)

	bus.Publish(events.WalletReloadData, nil)
	waitForStatus(t, statusSub, events.StatusLoading)

	// Give the reload time to arm its readiness watcher
	time.Sleep(50 * time.Millisecond)
	facade.EmitState(wallet.StateError)
	waitForStatus(t, statusSub, events.StatusFailed)

	if sess.Status() != events.StatusFailed {
		t.Errorf("session status = %v, want %v", sess.Status(), events.StatusFailed)
	}
}
