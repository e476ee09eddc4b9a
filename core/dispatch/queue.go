// File: core/dispatch/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded FIFO message queue backing one worker. Modeled on the kernel
// message-queue primitive the original design runs on: posting is
// non-blocking and fails when the fixed bound is exceeded, receiving
// blocks until a message or shutdown.

package dispatch

import "github.com/momentics/threadlet/api"

// Default queue depths. The Event Worker's queue is deeper because it
// receives every event class; the Task Worker is signaled only on the
// empty-to-non-empty tasklet edge, so a shallow queue with slack for
// interleaved radio and timeout messages suffices.
const (
	EventQueueLen = 16
	TaskQueueLen  = 4
)

// Queue is a bounded FIFO of worker messages. An optional Gate is raised
// for every accepted message and lowered by the owning worker after
// dispatch, which is how the Event Worker's queue advertises outstanding
// work to the Task Worker.
type Queue struct {
	ch   chan api.Message
	gate *Gate
}

// NewQueue builds a queue with the given fixed capacity. gate may be nil.
func NewQueue(capacity int, gate *Gate) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		ch:   make(chan api.Message, capacity),
		gate: gate,
	}
}

// Post enqueues a message without blocking. Returns false when the queue
// is full; the caller exceeded the design bound and must treat that as a
// sizing bug, not a retryable condition.
func (q *Queue) Post(m api.Message) bool {
	if q.gate != nil {
		q.gate.raise()
	}
	select {
	case q.ch <- m:
		return true
	default:
		if q.gate != nil {
			q.gate.lower()
		}
		return false
	}
}

// Receive blocks until a message arrives or quit is closed.
func (q *Queue) Receive(quit <-chan struct{}) (api.Message, bool) {
	select {
	case m := <-q.ch:
		return m, true
	case <-quit:
		return nil, false
	}
}

// Dispatched retires one gate obligation after the owning worker finished
// handling a received message.
func (q *Queue) Dispatched() {
	if q.gate != nil {
		q.gate.lower()
	}
}

// Len returns the number of buffered messages.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the fixed queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
