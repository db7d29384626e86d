// Package guard bundles the cooperative abort checks consulted inside long
// computations: context deadline and source liveness.
package guard

import (
	"context"
	"errors"

	"catdist/domain/core"
	"catdist/ports"
)

// Guard is checked at stage boundaries and periodically inside loops.
type Guard struct {
	ctx  context.Context
	live ports.Liveness
}

// New creates a guard. A nil liveness never reports staleness.
func New(ctx context.Context, live ports.Liveness) Guard {
	if live == nil {
		live = ports.AlwaysLive{}
	}
	return Guard{ctx: ctx, live: live}
}

// Check returns a stale-source or timeout error naming stage, or nil.
// Staleness is reported first: a fresh request is the caller's remedy either way,
// but a stale source must never be retried against the same data.
func (g Guard) Check(stage string) error {
	if g.live.Invalidated() {
		return core.NewStaleSourceError(stage)
	}
	if err := g.ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.NewTimeoutError(stage, err)
		}
		return err
	}
	return nil
}

// Context returns the guarded context.
func (g Guard) Context() context.Context {
	return g.ctx
}
