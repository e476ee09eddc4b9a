// File: core/dispatch/gate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Precedence gate standing in for fixed-priority preemption. Every message
// posted to the Event Worker raises the gate; the Event Worker lowers it
// once the message has been dispatched. The Task Worker waits on the gate
// before each of its own dispatches, so event work is always drained fully
// before one unit of task work is consumed.

package dispatch

import "sync"

// Gate tracks outstanding Event Worker obligations. The zero value is not
// usable; construct with NewGate.
type Gate struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

// NewGate returns an idle gate.
func NewGate() *Gate {
	g := &Gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *Gate) raise() {
	g.mu.Lock()
	g.n++
	g.mu.Unlock()
}

func (g *Gate) lower() {
	g.mu.Lock()
	g.n--
	if g.n <= 0 {
		g.cond.Broadcast()
	}
	g.mu.Unlock()
}

// Wait blocks until no event work is outstanding. A message posted after
// Wait returns may still overtake the caller; the gate only guarantees
// the queue observed so far has been drained.
func (g *Gate) Wait() {
	g.mu.Lock()
	for g.n > 0 {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// Outstanding returns the current obligation count.
func (g *Gate) Outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
