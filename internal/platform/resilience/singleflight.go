package resilience

import (
	"context"
	"fmt"
	"sync"
)

// SingleFlight collapses concurrent calls sharing a key into one execution.
// The first caller runs fn with its own context; later callers wait for the
// result or for their own context to end, whichever comes first.
type SingleFlight[T any] struct {
	mu       sync.Mutex
	inflight map[string]*flight[T]
}

type flight[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Do returns fn's result and whether it was shared with another caller.
func (g *SingleFlight[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error, bool) {
	g.mu.Lock()
	if g.inflight == nil {
		g.inflight = make(map[string]*flight[T])
	}
	if f, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		select {
		case <-f.done:
			return f.val, f.err, true
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err(), true
		}
	}

	f := &flight[T]{done: make(chan struct{})}
	g.inflight[key] = f
	g.mu.Unlock()

	g.run(ctx, key, f, fn)
	return f.val, f.err, false
}

// Pending reports how many keys currently have a call in flight.
func (g *SingleFlight[T]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}

func (g *SingleFlight[T]) run(ctx context.Context, key string, f *flight[T], fn func(context.Context) (T, error)) {
	finished := false
	defer func() {
		if !finished {
			f.err = fmt.Errorf("singleflight %q: call panicked", key)
		}
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
		close(f.done)
	}()

	f.val, f.err = fn(ctx)
	finished = true
}
