// File: core/tasklet/engine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reference tasklet engine: a FIFO of deferred work with the
// empty-to-non-empty edge signal the dispatch workers are built around.
// Stacks that bring their own engine only need to honor the same
// Pending/Process contract; this one backs the examples and tests.

package tasklet

import (
	"sync"

	"github.com/eapache/queue"
)

// Func is one unit of deferred work.
type Func func()

// Engine queues tasklets in FIFO order. Safe for concurrent Post; the
// Pending/Process pair must be driven from the stack's single logical
// thread of control, which is what the workers guarantee.
type Engine struct {
	mu     sync.Mutex
	q      *queue.Queue
	signal func()
}

// NewEngine builds an engine. signal, when non-nil, runs on every
// empty-to-non-empty transition of the queue; it must be cheap and
// non-blocking, typically a pending-flag check plus a message post.
func NewEngine(signal func()) *Engine {
	return &Engine{q: queue.New(), signal: signal}
}

// Post enqueues a tasklet, signaling if the queue was empty.
func (e *Engine) Post(fn Func) {
	e.mu.Lock()
	edge := e.q.Length() == 0
	e.q.Add(fn)
	e.mu.Unlock()
	if edge && e.signal != nil {
		e.signal()
	}
}

// Pending reports whether tasklet work is queued. Checking with nothing
// pending is a single predicate, so drain loops terminate immediately on
// an empty queue.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.q.Length() > 0
}

// Process runs the oldest queued tasklet, if any. The tasklet body runs
// outside the engine lock so it may post further work.
func (e *Engine) Process() {
	e.mu.Lock()
	if e.q.Length() == 0 {
		e.mu.Unlock()
		return
	}
	fn := e.q.Remove().(Func)
	e.mu.Unlock()
	fn()
}

// Len returns the queued tasklet count.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.q.Length()
}
