package session

import (
	"context"
	"testing"
	"time"

	"github.com/orbit-wallet/orbitd/internal/registry"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/internal/wallet/sim"
)

func TestReplaceSessionCancelsPrevious(t *testing.T) {
	state := NewState()

	prev := NewWalletSession(context.Background(), sim.New(sim.Config{}))
	state.ReplaceSession(prev)

	listening := make(chan struct{})
	stopped := make(chan struct{})
	prev.Group().Go(func(ctx context.Context) {
		close(listening)
		<-ctx.Done()
		close(stopped)
	})
	<-listening

	next := NewWalletSession(context.Background(), sim.New(sim.Config{}))
	state.ReplaceSession(next)

	// The previous group is fully cancelled before the new session installs
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("previous session's listener still running after replace")
	}

	if got := state.Session(); got != next {
		t.Errorf("Session() = %v, want the new session", got)
	}
}

func TestReplaceSessionNilClearsActive(t *testing.T) {
	state := NewState()

	sess := NewWalletSession(context.Background(), sim.New(sim.Config{}))
	state.ReplaceSession(sess)
	state.ReplaceSession(nil)

	if state.Session() != nil {
		t.Error("Session() should be nil after clearing")
	}

	select {
	case <-sess.Group().Context().Done():
	default:
		t.Error("cleared session's group should be cancelled")
	}
}

func TestResetForNewSessionKeepsTokensAndAddress(t *testing.T) {
	state := NewState()
	state.SetRegistered([]registry.Token{{ID: "00"}, {ID: "01"}})
	state.SetSharedAddress(wallet.AddressInfo{Address: "orb1abc", Index: 3})
	state.SetBestBlock(42)
	state.SetOnline(true)
	state.SetServerInfo(wallet.ServerInfo{Version: "v1"})
	state.SetTokenOutcome("01", TokenOutcome{Kind: OutcomeSuccess})

	state.ResetForNewSession()

	if !state.IsRegistered("01") {
		t.Error("registered snapshot should survive a reset")
	}
	if addr := state.SharedAddress(); addr.Address != "orb1abc" {
		t.Errorf("SharedAddress = %q, want preserved value", addr.Address)
	}
	if state.BestBlock() != -1 {
		t.Errorf("BestBlock = %d, want -1", state.BestBlock())
	}
	if state.Online() {
		t.Error("Online should reset to false")
	}
	if !state.Loading() {
		t.Error("Loading should be true during a start cycle")
	}
	if info := state.ServerInfo(); info.Version != "" {
		t.Errorf("ServerInfo.Version = %q, want cleared", info.Version)
	}
	if _, ok := state.TokenOutcome("01"); ok {
		t.Error("token outcomes should be cleared")
	}
}

func TestRecordedWalletServiceFlag(t *testing.T) {
	state := NewState()

	if state.RecordedWalletServiceFlag() != nil {
		t.Error("flag should start unrecorded")
	}

	state.RecordWalletServiceFlag(true)
	if v := state.RecordedWalletServiceFlag(); v == nil || !*v {
		t.Errorf("RecordedWalletServiceFlag() = %v, want true", v)
	}

	state.RecordWalletServiceFlag(false)
	if v := state.RecordedWalletServiceFlag(); v == nil || *v {
		t.Errorf("RecordedWalletServiceFlag() = %v, want false", v)
	}
}

func TestTokenOutcomesCopy(t *testing.T) {
	state := NewState()
	state.SetTokenOutcome("01", TokenOutcome{Kind: OutcomeFailed})

	out := state.TokenOutcomes()
	out["01"] = TokenOutcome{Kind: OutcomeSuccess}

	if got, _ := state.TokenOutcome("01"); got.Kind != OutcomeFailed {
		t.Errorf("TokenOutcome = %v, mutation leaked into state", got.Kind)
	}
}
