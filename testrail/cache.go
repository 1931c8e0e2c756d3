package testrail

import (
	"context"
	"sync"
)

// call is one shared fetch. done is closed once val and err are set.
type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// memo caches the first fetch of a value for the lifetime of its owner. The
// call is stored before the fetch starts, so callers arriving while it is in
// flight wait on the same request. A failed fetch stays cached as well.
type memo[T any] struct {
	mu sync.Mutex
	c  *call[T]
}

// Do returns the cached result, starting fetch on first use. The fetch runs
// detached from ctx cancellation; ctx only bounds how long this caller waits.
func (m *memo[T]) Do(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	m.mu.Lock()
	c := m.c
	if c == nil {
		c = &call[T]{done: make(chan struct{})}
		m.c = c
		go func() {
			defer close(c.done)
			c.val, c.err = fetch(context.WithoutCancel(ctx))
		}()
	}
	m.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// keyedMemo holds one memo per key.
type keyedMemo[K comparable, T any] struct {
	mu    sync.Mutex
	slots map[K]*memo[T]
}

// Do runs fetch at most once per key, with memo's sharing semantics.
func (k *keyedMemo[K, T]) Do(ctx context.Context, key K, fetch func(context.Context) (T, error)) (T, error) {
	k.mu.Lock()
	if k.slots == nil {
		k.slots = make(map[K]*memo[T])
	}
	slot, ok := k.slots[key]
	if !ok {
		slot = &memo[T]{}
		k.slots[key] = slot
	}
	k.mu.Unlock()

	return slot.Do(ctx, fetch)
}
