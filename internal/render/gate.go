package render

import (
	"context"
	"sync"
)

// Gate is a counting semaphore bounding concurrent encodes. Waiters are
// served strictly in arrival order. Construct one per process and inject
// it; it is not a package global.
type Gate struct {
	mu      sync.Mutex
	max     int
	running int
	waiters []chan struct{}
}

// GateStatus is a point-in-time snapshot for observability.
type GateStatus struct {
	Running int `json:"running"`
	Queued  int `json:"queued"`
	Max     int `json:"max"`
}

// NewGate creates a gate admitting at most max concurrent holders.
func NewGate(max int) *Gate {
	if max < 1 {
		max = 1
	}
	return &Gate{max: max}
}

// Acquire blocks until a slot is free or ctx is done. Every successful
// Acquire must be paired with exactly one Release.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if g.running < g.max {
		g.running++
		g.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	g.waiters = append(g.waiters, ready)
	g.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, w := range g.waiters {
			if w == ready {
				g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
				g.mu.Unlock()
				return ctx.Err()
			}
		}
		g.mu.Unlock()
		// Release already granted us the slot; hand it back.
		<-ready
		g.Release()
		return ctx.Err()
	}
}

// Release frees a slot, handing it to the longest-waiting caller if any.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.waiters) > 0 {
		ready := g.waiters[0]
		g.waiters = g.waiters[1:]
		// running stays constant: the slot transfers to the waiter.
		close(ready)
		return
	}

	if g.running > 0 {
		g.running--
	}
}

// Status reports the current running/queued counts.
func (g *Gate) Status() GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GateStatus{
		Running: g.running,
		Queued:  len(g.waiters),
		Max:     g.max,
	}
}
