package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestThreadGroupCancelWaitsForCleanup(t *testing.T) {
	group := NewThreadGroup(context.Background())

	var cleaned atomic.Bool
	group.Go(func(ctx context.Context) {
		defer cleaned.Store(true)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
	})

	group.Cancel()

	if !cleaned.Load() {
		t.Error("Cancel returned before task cleanup finished")
	}
}

func TestThreadGroupCancelIdempotent(t *testing.T) {
	group := NewThreadGroup(context.Background())

	var runs atomic.Int32
	group.Go(func(ctx context.Context) {
		runs.Add(1)
		<-ctx.Done()
	})

	group.Cancel()
	group.Cancel() // Must not panic or block

	if runs.Load() != 1 {
		t.Errorf("task ran %d times, want 1", runs.Load())
	}
}

func TestThreadGroupInheritsParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	group := NewThreadGroup(parent)

	done := make(chan struct{})
	group.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not observe parent cancellation")
	}
}
