package events

import (
	"context"
	"testing"
	"time"
)

func TestBusSubscribeFiltered(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe(WalletNewTx)
	defer sub.Cancel()

	bus.Publish(WalletBestBlockUpdate, BestBlockUpdate{Height: 5})
	bus.Publish(WalletNewTx, nil)

	select {
	case msg := <-sub.C():
		if msg.Kind != WalletNewTx {
			t.Errorf("Kind = %v, want %v", msg.Kind, WalletNewTx)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a message")
	}

	// The filtered-out kind must not be delivered
	select {
	case msg := <-sub.C():
		t.Errorf("unexpected message %v", msg.Kind)
	default:
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe()
	defer sub.Cancel()

	kinds := []Kind{WalletNewTx, WalletStatusUpdate, NetworkStatusUpdate}
	for _, k := range kinds {
		bus.Publish(k, nil)
	}

	for i, want := range kinds {
		select {
		case msg := <-sub.C():
			if msg.Kind != want {
				t.Errorf("message %d: Kind = %v, want %v", i, msg.Kind, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("message %d missing", i)
		}
	}
}

func TestBusPublishOrder(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe(WalletBestBlockUpdate)
	defer sub.Cancel()

	for h := int64(0); h < 10; h++ {
		bus.Publish(WalletBestBlockUpdate, BestBlockUpdate{Height: h})
	}

	for h := int64(0); h < 10; h++ {
		select {
		case msg := <-sub.C():
			update := msg.Payload.(BestBlockUpdate)
			if update.Height != h {
				t.Fatalf("Height = %d, want %d", update.Height, h)
			}
		case <-time.After(time.Second):
			t.Fatalf("message %d missing", h)
		}
	}
}

func TestBusCancelIdempotent(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe(WalletNewTx)
	sub.Cancel()
	sub.Cancel() // Must not panic

	// The channel is closed and no longer receives
	bus.Publish(WalletNewTx, nil)
	if _, ok := <-sub.C(); ok {
		t.Error("expected closed channel after cancel")
	}
}

func TestBusWaitFor(t *testing.T) {
	bus := NewBus()

	go func() {
		time.Sleep(10 * time.Millisecond)
		bus.Publish(WalletStateReady, nil)
	}()

	msg, err := bus.WaitFor(context.Background(), WalletStateReady, WalletStateError)
	if err != nil {
		t.Fatalf("WaitFor() error = %v", err)
	}
	if msg.Kind != WalletStateReady {
		t.Errorf("Kind = %v, want %v", msg.Kind, WalletStateReady)
	}
}

func TestBusWaitForCancelled(t *testing.T) {
	bus := NewBus()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := bus.WaitFor(ctx, WalletStateReady); err == nil {
		t.Error("expected error from cancelled context")
	}
}
