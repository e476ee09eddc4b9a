// File: core/dispatch/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared worker plumbing: spawn abstraction, identity publication, and
// the create-and-start contract both workers follow. Spawn failure is a
// bring-up failure: the caller gets ErrInvalidArgument and no worker
// identifier is ever published.

package dispatch

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/threadlet/affinity"
	"github.com/momentics/threadlet/api"
)

// SpawnFunc starts the worker body on its own goroutine. The default
// implementation is a plain `go fn()`; tests substitute failing stubs to
// exercise the bring-up failure path.
type SpawnFunc func(name string, fn func()) error

func goSpawn(_ string, fn func()) error {
	go fn()
	return nil
}

// Options carries the create-and-start parameters shared by both
// workers: a name, a queue bound, an optional CPU to pin the worker's OS
// thread to, the spawn primitive, and a logger.
type Options struct {
	Name     string
	QueueLen int
	CPU      int // negative: no pinning
	Spawn    SpawnFunc
	Logger   zerolog.Logger
}

func (o *Options) normalize(defaultName string, defaultLen int) {
	if o.Name == "" {
		o.Name = defaultName
	}
	if o.QueueLen <= 0 {
		o.QueueLen = defaultLen
	}
	if o.Spawn == nil {
		o.Spawn = goSpawn
	}
}

// worker is the state common to both dispatch loops.
type worker struct {
	name  string
	id    atomic.Int32 // api.WorkerID; 0 until the loop starts
	queue *Queue
	quit  chan struct{}
	done  chan struct{}
	log   zerolog.Logger
}

// ID returns the worker identifier, or WorkerIDUnset before the worker
// has started. Immutable once set.
func (w *worker) ID() api.WorkerID {
	return api.WorkerID(w.id.Load())
}

// Post enqueues a message for this worker without blocking. False means
// the bounded queue is full.
func (w *worker) Post(m api.Message) bool {
	return w.queue.Post(m)
}

// QueueLen reports the number of messages waiting.
func (w *worker) QueueLen() int {
	return w.queue.Len()
}

// Stop terminates the dispatch loop and waits for it to exit. The
// production system never stops its workers; this exists for tests and
// orderly process teardown.
func (w *worker) Stop() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
	<-w.done
}

// enter publishes the worker identity and applies thread pinning. Runs
// first on the worker goroutine.
func (w *worker) enter(id api.WorkerID, cpu int) {
	w.id.Store(int32(id))
	if cpu >= 0 {
		runtime.LockOSThread()
		if err := affinity.SetAffinity(cpu); err != nil {
			w.log.Warn().Err(err).Int("cpu", cpu).Msg("worker pinning failed")
		}
	}
}

func spawnError(name string, err error) error {
	return fmt.Errorf("worker %q: spawn: %v: %w", name, err, api.ErrInvalidArgument)
}
