// Package dispatch runs independent bridge calls concurrently.
package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mobilenet/amaribridge/pkg/bridge"
)

// DefaultLimit caps concurrent subprocesses when no limit is given.
const DefaultLimit = 4

// Caller sends one message to one entity. *bridge.Bridge satisfies it.
type Caller interface {
	Call(ctx context.Context, entity string, message any) bridge.Result
}

// Call is one entity/message pair.
type Call struct {
	Entity  string
	Message any
}

// Fanout issues every call with at most limit in flight and returns the
// results in input order. Calls never fail as a group: each failure is
// classified in its own Result. Calls not yet started when ctx is canceled
// are not run, and their results carry the context error.
func Fanout(ctx context.Context, caller Caller, calls []Call, limit int) []bridge.Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]bridge.Result, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, c := range calls {
		if err := gctx.Err(); err != nil {
			results[i] = canceled(c.Entity, err)
			continue
		}
		i, c := i, c // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = canceled(c.Entity, err)
				return nil
			}
			results[i] = caller.Call(gctx, c.Entity, c.Message)
			return nil
		})
	}
	// Workers never return an error.
	_ = g.Wait()
	return results
}

// Broadcast sends the same message to every entity.
func Broadcast(ctx context.Context, caller Caller, entities []string, message any, limit int) map[string]bridge.Result {
	calls := make([]Call, len(entities))
	for i, e := range entities {
		calls[i] = Call{Entity: e, Message: message}
	}
	out := make(map[string]bridge.Result, len(entities))
	for i, res := range Fanout(ctx, caller, calls, limit) {
		out[entities[i]] = res
	}
	return out
}

func canceled(entity string, err error) bridge.Result {
	return bridge.Result{
		Entity:  entity,
		Process: &bridge.ProcessError{ExitCode: -1, Killed: true, Cause: err},
	}
}
