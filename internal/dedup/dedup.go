// Package dedup collapses concurrent identical requests into one execution.
//
// For N concurrent Do calls with the same key, fn runs exactly once and all
// N callers observe the same value or the same error. Once the call
// completes the key is forgotten, so the next Do runs fn again.
//
// A caller may stop waiting by cancelling its context; the shared call keeps
// running for the remaining waiters and fn never sees that cancellation.
package dedup

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Group de-duplicates in-flight calls by key
type Group[T any] struct {
	group    singleflight.Group
	inFlight atomic.Int64
}

// New creates an empty Group
func New[T any]() *Group[T] {
	return &Group[T]{}
}

// Do runs fn once per key among concurrent callers and returns its outcome.
// shared reports whether the result was also delivered to other callers.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (value T, shared bool, err error) {
	// The shared call outlives any single caller's cancellation
	callCtx := context.WithoutCancel(ctx)

	ch := g.group.DoChan(key, func() (any, error) {
		g.inFlight.Add(1)
		defer g.inFlight.Add(-1)
		return g.call(callCtx, fn)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Shared, res.Err
		}
		v, _ := res.Val.(T)
		return v, res.Shared, nil
	}
}

// call runs fn and turns a panic into an error so waiters are never left hanging
func (g *Group[T]) call(ctx context.Context, fn func(ctx context.Context) (T, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dedup: call panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Forget drops key so the next Do starts a new call even if one is running
func (g *Group[T]) Forget(key string) {
	g.group.Forget(key)
}

// InFlight returns the number of calls currently executing
func (g *Group[T]) InFlight() int {
	return int(g.inFlight.Load())
}
