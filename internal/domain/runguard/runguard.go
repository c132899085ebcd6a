// Package runguard provides at-most-one admission for pipeline runs.
package runguard

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard admits at most one in-flight run per (mode, date) pair. A second
// trigger for the same pair is rejected until the first releases.
type Guard interface {
	// Acquire atomically checks whether the (mode, date) slot is free and
	// claims it if so. Returns false when the same run is already in flight.
	Acquire(ctx context.Context, mode, date string) bool

	// Release frees the slot so the run can be triggered again. Releasing
	// a slot that is not held is a no-op.
	Release(ctx context.Context, mode, date string)

	// InFlight reports the number of currently held slots.
	InFlight() int64
}

// inMemoryGuard implements Guard with a mutex-protected set.
type inMemoryGuard struct {
	mu       sync.Mutex
	held     map[string]struct{}
	inFlight atomic.Int64
}

// NewInMemoryGuard creates an empty in-memory guard.
func NewInMemoryGuard() Guard {
	return &inMemoryGuard{
		held: make(map[string]struct{}),
	}
}

func runKey(mode, date string) string {
	return mode + "|" + date
}

// Acquire claims the (mode, date) slot if it is free.
func (g *inMemoryGuard) Acquire(ctx context.Context, mode, date string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := runKey(mode, date)
	if _, exists := g.held[k]; exists {
		return false // Already in flight
	}
	g.held[k] = struct{}{}
	g.inFlight.Add(1)
	return true
}

// Release frees the (mode, date) slot.
func (g *inMemoryGuard) Release(ctx context.Context, mode, date string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := runKey(mode, date)
	if _, exists := g.held[k]; exists {
		delete(g.held, k)
		g.inFlight.Add(-1)
	}
}

// InFlight returns the number of currently held slots.
func (g *inMemoryGuard) InFlight() int64 {
	return g.inFlight.Load()
}
