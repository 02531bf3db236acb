package wallet

import (
	"testing"
	"time"
)

func TestEmitterDeliversInOrder(t *testing.T) {
	e := NewEmitter()

	ch, unsub := e.Subscribe(EventBestBlock)
	defer unsub()

	for h := int64(0); h < 5; h++ {
		e.Emit(EventBestBlock, h)
	}

	for h := int64(0); h < 5; h++ {
		select {
		case payload := <-ch:
			if payload.(int64) != h {
				t.Fatalf("payload = %v, want %d", payload, h)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d missing", h)
		}
	}
}

func TestEmitterSubscribersAreIndependent(t *testing.T) {
	e := NewEmitter()

	stateCh, unsubState := e.Subscribe(EventState)
	defer unsubState()
	txCh, unsubTx := e.Subscribe(EventNewTx)
	defer unsubTx()

	e.Emit(EventState, StateReady)

	select {
	case payload := <-stateCh:
		if payload.(LifecycleState) != StateReady {
			t.Errorf("payload = %v, want %v", payload, StateReady)
		}
	case <-time.After(time.Second):
		t.Fatal("state event missing")
	}

	select {
	case payload := <-txCh:
		t.Errorf("unexpected tx event %v", payload)
	default:
	}
}

func TestEmitterUnsubscribeIdempotent(t *testing.T) {
	e := NewEmitter()

	ch, unsub := e.Subscribe(EventState)
	if got := e.SubscriberCount(EventState); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}

	unsub()
	unsub() // Must not panic or close twice

	if got := e.SubscriberCount(EventState); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}

	// No delivery after unsubscribe: the channel is closed
	e.Emit(EventState, StateReady)
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}

func TestEmitterUnsubscribeRemovesOnlyOwnSubscription(t *testing.T) {
	e := NewEmitter()

	_, unsubA := e.Subscribe(EventState)
	chB, unsubB := e.Subscribe(EventState)
	defer unsubB()

	unsubA()

	e.Emit(EventState, StateSyncing)
	select {
	case payload := <-chB:
		if payload.(LifecycleState) != StateSyncing {
			t.Errorf("payload = %v, want %v", payload, StateSyncing)
		}
	case <-time.After(time.Second):
		t.Fatal("surviving subscriber got no event")
	}
}
