// Package flight provides the coalescing single-flight gate used around
// queue drains and reconciliation rounds.
package flight

import "sync"

// Gate ensures only one logical run of an operation is active. Triggers
// arriving while a run is in flight collapse into at most one follow-up
// run after the current one completes.
//
// The zero value is ready to use.
type Gate struct {
	mu      sync.Mutex
	running bool
	pending bool
}

// Do runs fn on the calling goroutine if the gate is idle, then keeps
// re-running it while follow-up triggers arrived during execution. If a
// run is already in flight, Do records one pending follow-up and returns
// immediately.
func (g *Gate) Do(fn func()) {
	g.mu.Lock()
	if g.running {
		g.pending = true
		g.mu.Unlock()
		return
	}
	g.running = true
	g.mu.Unlock()

	for {
		fn()

		g.mu.Lock()
		if !g.pending {
			g.running = false
			g.mu.Unlock()
			return
		}
		g.pending = false
		g.mu.Unlock()
	}
}
