package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/registry"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/internal/wallet/sim"
)

// readySession installs a started, ready simulated session into state.
func readySession(t *testing.T, state *State) (*WalletSession, *sim.Wallet) {
	t.Helper()

	facade := sim.New(sim.Config{ReadyOnStart: true})
	if _, err := facade.Start(context.Background(), "1234", ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sess := NewWalletSession(context.Background(), facade)
	state.ReplaceSession(sess)
	return sess, facade
}

func collectTokenFetches(t *testing.T, sub *events.Subscription, n int) []events.TokenFetch {
	t.Helper()

	var out []events.TokenFetch
	for i := 0; i < n; i++ {
		select {
		case msg := <-sub.C():
			out = append(out, msg.Payload.(events.TokenFetch))
		case <-time.After(time.Second):
			t.Fatalf("token fetch %d missing", i)
		}
	}
	return out
}

func TestTxHandlerRefreshesOnlyRegisteredAffectedTokens(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	state.SetRegistered([]registry.Token{{ID: config.BaseTokenID}, {ID: "0a"}})
	readySession(t, state)

	var notified atomic.Int32
	notifier := NotifierFunc(func(tx *wallet.Tx) error {
		notified.Add(1)
		return nil
	})

	fetchSub := bus.Subscribe(events.TokenFetchBalanceRequested, events.TokenFetchHistoryRequested)
	defer fetchSub.Cancel()

	handler := NewTxHandler(bus, state, nil, notifier)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handler.Run(ctx)

	// Touches a registered token (0a) and an unregistered one (0x)
	tx := &wallet.Tx{
		ID: "tx1",
		Outputs: []wallet.TxOutput{
			{TokenID: "0a", Value: 10},
			{TokenID: "0x", Value: 5},
		},
	}
	bus.Publish(events.WalletNewTx, tx)

	fetches := collectTokenFetches(t, fetchSub, 2)
	for _, f := range fetches {
		if f.TokenID != "0a" {
			t.Errorf("fetch for %q, want only the registered token", f.TokenID)
		}
		if !f.Forced {
			t.Error("transaction-driven fetches must be forced")
		}
	}

	// No extra fetches for the unregistered token
	select {
	case msg := <-fetchSub.C():
		t.Errorf("unexpected fetch %v", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}

	if notified.Load() != 1 {
		t.Errorf("notified %d times, want 1", notified.Load())
	}
}

func TestTxHandlerDropsEventsWhenNotReady(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	state.SetRegistered([]registry.Token{{ID: "0a"}})

	facade := sim.New(sim.Config{}) // Started but never ready
	if _, err := facade.Start(context.Background(), "1234", ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	state.ReplaceSession(NewWalletSession(context.Background(), facade))

	var notified atomic.Int32
	notifier := NotifierFunc(func(tx *wallet.Tx) error {
		notified.Add(1)
		return nil
	})

	handler := NewTxHandler(bus, state, nil, notifier)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handler.Run(ctx)

	bus.Publish(events.WalletNewTx, &wallet.Tx{
		ID:      "tx1",
		Outputs: []wallet.TxOutput{{TokenID: "0a", Value: 1}},
	})

	time.Sleep(50 * time.Millisecond)
	if notified.Load() != 0 {
		t.Errorf("notified %d times while not ready, want 0", notified.Load())
	}
}

func TestTxHandlerBestBlockDeduplicates(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	readySession(t, state)

	fetchSub := bus.Subscribe(events.TokenFetchBalanceRequested)
	defer fetchSub.Cancel()

	handler := NewTxHandler(bus, state, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handler.Run(ctx)

	bus.Publish(events.WalletBestBlockUpdate, events.BestBlockUpdate{Height: 100})
	bus.Publish(events.WalletBestBlockUpdate, events.BestBlockUpdate{Height: 100})
	bus.Publish(events.WalletBestBlockUpdate, events.BestBlockUpdate{Height: 101})

	fetches := collectTokenFetches(t, fetchSub, 2)
	for _, f := range fetches {
		if f.TokenID != config.BaseTokenID {
			t.Errorf("fetch for %q, want base token", f.TokenID)
		}
	}

	// The duplicate height must not trigger a third fetch
	select {
	case msg := <-fetchSub.C():
		t.Errorf("unexpected fetch %v for duplicate height", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}

	if state.BestBlock() != 101 {
		t.Errorf("BestBlock = %d, want 101", state.BestBlock())
	}
}

func TestTxHandlerConnStateDrivesOnlineFlag(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	readySession(t, state)

	netSub := bus.Subscribe(events.NetworkStatusUpdate)
	defer netSub.Cancel()

	handler := NewTxHandler(bus, state, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handler.Run(ctx)

	tests := []struct {
		conn   wallet.ConnState
		online bool
	}{
		{wallet.ConnConnected, true},
		{wallet.ConnClosed, false},
		{wallet.ConnConnecting, false},
	}

	for _, tt := range tests {
		bus.Publish(events.WalletConnStateUpdate, events.ConnStateUpdate{State: tt.conn})

		select {
		case msg := <-netSub.C():
			status := msg.Payload.(events.NetworkStatus)
			if status.Online != tt.online {
				t.Errorf("conn %v: Online = %v, want %v", tt.conn, status.Online, tt.online)
			}
		case <-time.After(time.Second):
			t.Fatalf("conn %v: no network status update", tt.conn)
		}

		if state.Online() != tt.online {
			t.Errorf("conn %v: state.Online = %v, want %v", tt.conn, state.Online(), tt.online)
		}
	}
}

func TestTxHandlerRefreshSharedAddress(t *testing.T) {
	bus := events.NewBus()
	state := NewState()
	_, facade := readySession(t, state)
	facade.BumpAddress()

	handler := NewTxHandler(bus, state, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handler.Run(ctx)

	bus.Publish(events.WalletRefreshSharedAddress, nil)

	deadline := time.Now().Add(time.Second)
	for {
		if addr := state.SharedAddress(); addr.Index == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("SharedAddress = %+v, want index 1", state.SharedAddress())
		}
		time.Sleep(time.Millisecond)
	}
}
