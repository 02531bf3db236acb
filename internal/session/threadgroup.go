// Package session implements the wallet session lifecycle: the orchestrator
// state machine, the event bridge, the readiness and feature-flag watchers,
// token loading and reload recovery. All coordination happens over the
// central event bus; components never call each other directly.
package session

import (
	"context"
	"sync"
)

// ThreadGroup owns the concurrently running listener tasks of one wallet
// session. Tasks are attached: cancelling the group terminates them and
// waits for their cleanup (listener de-registration) to finish before
// Cancel returns.
type ThreadGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewThreadGroup creates a group parented to the given context.
func NewThreadGroup(parent context.Context) *ThreadGroup {
	ctx, cancel := context.WithCancel(parent)
	return &ThreadGroup{ctx: ctx, cancel: cancel}
}

// Context returns the group's cancellation context.
func (g *ThreadGroup) Context() context.Context {
	return g.ctx
}

// Go runs an attached task. The task must return promptly once its context
// is cancelled, running any deferred cleanup on the way out.
func (g *ThreadGroup) Go(fn func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
}

// Cancel terminates all tasks and blocks until their cleanup has run.
// Idempotent: cancelling twice has no additional effect.
func (g *ThreadGroup) Cancel() {
	g.cancel()
	g.wg.Wait()
}
