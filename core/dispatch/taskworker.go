// File: core/dispatch/taskworker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task Worker: landing point for posted tasklet work originating from
// packet transmission. The stack signals once on the empty-to-non-empty
// tasklet edge; this worker drains the queue under the coarse buffer
// mutex, keeping packet preparation and radio-queue submission off the
// urgent path.
//
// Lock nesting invariant: the radio mutex is only ever taken inside
// DispatchISR, and in this worker DispatchISR is only reachable while the
// coarse buffer mutex is held. The coarse critical section never takes
// any other lock, so the Event Worker can at worst wait out one short ISR
// call on the radio mutex.

package dispatch

import (
	"sync"

	"github.com/momentics/threadlet/api"
	"github.com/momentics/threadlet/control"
)

// TaskConfig assembles the Task Worker's collaborators.
type TaskConfig struct {
	Options

	// ID is the identifier the worker publishes once its loop starts.
	ID api.WorkerID

	// Instance reads the stack created by the Event Worker; nil until
	// event bring-up finishes, and every dispatch tolerates that.
	Instance *api.InstanceHolder

	// Radio serializes ISR dispatch.
	Radio api.RadioISR

	// Gate is the Event Worker's precedence gate; this worker defers to
	// it before every dispatch.
	Gate *Gate

	// Pending is the shared tasklet-pending flag, cleared here when a
	// wake is consumed.
	Pending *PendingFlag

	// Metrics, when set, counts dispatched messages per kind.
	Metrics *control.MetricsRegistry
}

// TaskWorker is the lower-urgency dispatch loop.
type TaskWorker struct {
	worker
	cfg TaskConfig

	// buffers is the coarse buffer mutex: held for the whole
	// dispatch-plus-drain cycle of every iteration.
	buffers sync.Mutex
}

// StartTaskWorker creates and starts the Task Worker. On spawn failure it
// returns an error wrapping api.ErrInvalidArgument and no worker
// identifier is published.
func StartTaskWorker(cfg TaskConfig) (*TaskWorker, error) {
	if cfg.Instance == nil {
		return nil, spawnError(cfg.Name, errMissingInstance)
	}
	if cfg.Radio == nil {
		return nil, spawnError(cfg.Name, errMissingRadio)
	}
	if cfg.Pending == nil {
		return nil, spawnError(cfg.Name, errMissingPending)
	}
	cfg.normalize("ot-task", TaskQueueLen)
	w := &TaskWorker{
		worker: worker{
			name:  cfg.Name,
			queue: NewQueue(cfg.QueueLen, nil),
			quit:  make(chan struct{}),
			done:  make(chan struct{}),
			log:   cfg.Logger.With().Str("worker", cfg.Name).Logger(),
		},
		cfg: cfg,
	}
	if err := cfg.Spawn(cfg.Name, w.run); err != nil {
		return nil, spawnError(cfg.Name, err)
	}
	return w, nil
}

func (w *TaskWorker) run() {
	defer close(w.done)
	w.enter(w.cfg.ID, w.cfg.CPU)
	w.log.Info().Msg("task worker up")

	for {
		msg, ok := w.queue.Receive(w.quit)
		if !ok {
			return
		}

		// Event work preempts task work: wait until the Event Worker has
		// drained everything it has seen so far.
		if w.cfg.Gate != nil {
			w.cfg.Gate.Wait()
		}

		w.buffers.Lock()
		w.dispatch(msg)

		// Drain posted tasklet work to completion, still under the
		// coarse lock.
		if inst := w.cfg.Instance.Load(); inst != nil {
			for inst.TaskletsPending() {
				inst.ProcessTasklets()
			}
		}
		w.buffers.Unlock()
	}
}

func (w *TaskWorker) dispatch(msg api.Message) {
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.Add("task."+msg.Kind(), 1)
	}
	w.log.Debug().Str("kind", msg.Kind()).Msg("task dispatch")

	inst := w.cfg.Instance.Load()

	switch msg.(type) {
	case api.TaskletPending:
		// Record that this wake has been consumed. A producer observing
		// the cleared flag knows a fresh signal is required.
		w.cfg.Pending.Clear()

	case api.AlarmMicro:
		if inst != nil {
			inst.AlarmMicroFired()
		}

	case api.RadioEvent:
		// Radio mutex nested inside the coarse buffer mutex, held only
		// for the ISR call itself.
		w.cfg.Radio.DispatchISR()

	case api.RadioBusy:
		if inst != nil {
			inst.TxDone(api.TxMediumBusy)
		}

	case api.LinkRetryTimeout:
		if inst != nil {
			inst.TxDone(api.TxNoAck)
		}
	}
}
