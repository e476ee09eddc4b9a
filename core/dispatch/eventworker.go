// File: core/dispatch/eventworker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event Worker: owns the stack instance and dispatches everything that
// must run with interrupt-like urgency. Timer fires, job requests, serial
// input, and radio events land here; between messages the worker drains
// the stack's tasklet queue to quiescence so the engine never sleeps on
// deferred work.

package dispatch

import (
	"time"

	"github.com/momentics/threadlet/api"
	"github.com/momentics/threadlet/control"
)

// EventConfig assembles everything the Event Worker needs. Instance and
// NewStack are mandatory; the rest defaults sanely.
type EventConfig struct {
	Options

	// ID is the identifier the worker publishes once its loop starts.
	ID api.WorkerID

	// NewStack creates the single stack instance during bring-up.
	NewStack func() api.Stack

	// Instance receives the created stack; collaborators read it from here.
	Instance *api.InstanceHolder

	// Radio serializes ISR dispatch and coalesced-interrupt accounting.
	Radio api.RadioISR

	// Gate advertises outstanding event work to the Task Worker.
	Gate *Gate

	// Link parameters applied right after instance creation.
	PanID   uint16
	Channel uint8

	// FrontEnd selects which management surface to initialize:
	// control.FrontEndCLI, control.FrontEndNCP, or none.
	FrontEnd    string
	Diagnostics bool

	// Watchdog, when set, is kicked on every serial message. Serial
	// commands are a liveness proxy on NCP builds.
	Watchdog func()

	// SettleDelay pauses bring-up so collaborators finish their own
	// startup first.
	SettleDelay time.Duration

	// Metrics, when set, counts dispatched messages per kind.
	Metrics *control.MetricsRegistry
}

// EventWorker is the highest-urgency dispatch loop.
type EventWorker struct {
	worker
	cfg EventConfig
}

// StartEventWorker creates and starts the Event Worker. On spawn failure
// it returns an error wrapping api.ErrInvalidArgument and no worker
// identifier is published.
func StartEventWorker(cfg EventConfig) (*EventWorker, error) {
	if cfg.NewStack == nil || cfg.Instance == nil {
		return nil, spawnError(cfg.Name, errMissingStack)
	}
	if cfg.Radio == nil {
		return nil, spawnError(cfg.Name, errMissingRadio)
	}
	cfg.normalize("ot-event", EventQueueLen)
	w := &EventWorker{
		worker: worker{
			name:  cfg.Name,
			queue: NewQueue(cfg.QueueLen, cfg.Gate),
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

func (w *EventWorker) run() {
	defer close(w.done)
	w.enter(w.cfg.ID, w.cfg.CPU)
	w.log.Debug().Msg("event worker starting")

	// Let dependent contexts finish their own startup before the stack
	// instance exists.
	if w.cfg.SettleDelay > 0 {
		time.Sleep(w.cfg.SettleDelay)
	}

	inst := w.cfg.NewStack()
	w.cfg.Instance.Store(inst)
	w.log.Debug().Msg("stack instance created")

	inst.SetPanID(w.cfg.PanID)
	inst.SetChannel(w.cfg.Channel)

	switch w.cfg.FrontEnd {
	case control.FrontEndCLI:
		if cli, ok := inst.(api.CLIFrontEnd); ok {
			cli.InitCLI()
			cli.SetIPv6Enabled(true)
			cli.SetThreadEnabled(true)
			w.log.Debug().Msg("cli front end up, ipv6 and thread enabled")
		}
	case control.FrontEndNCP:
		if ncp, ok := inst.(api.NCPFrontEnd); ok {
			ncp.InitNCP()
			ncp.StartCommissioner()
			w.log.Debug().Msg("ncp front end up, commissioner started")
		}
	}
	if w.cfg.Diagnostics {
		if diag, ok := inst.(api.Diagnostics); ok {
			diag.InitDiag()
		}
	}
	w.log.Info().
		Uint16("pan_id", w.cfg.PanID).
		Uint8("channel", w.cfg.Channel).
		Msg("event worker up")

	for {
		// Reach quiescence before blocking: the stack expects its pending
		// work to run to completion before the owner yields.
		for inst.TaskletsPending() {
			inst.ProcessTasklets()
		}

		msg, ok := w.queue.Receive(w.quit)
		if !ok {
			return
		}
		w.dispatch(inst, msg)
		w.queue.Dispatched()
	}
}

func (w *EventWorker) dispatch(inst api.Stack, msg api.Message) {
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.Add("event."+msg.Kind(), 1)
	}
	w.log.Debug().Str("kind", msg.Kind()).Msg("event dispatch")

	switch m := msg.(type) {
	case api.TaskletPending:
		// Wake only; the drain loop above does the work.

	case api.RadioEvent:
		w.cfg.Radio.DispatchISR()
		if m.Coalesced {
			w.cfg.Radio.AckIRQ()
		}

	case api.LinkRetryTimeout:
		inst.TxDone(api.TxNoAck)

	case api.RadioBusy:
		inst.TxDone(api.TxMediumBusy)

	case api.AlarmMilli:
		inst.AlarmMilliFired()

	case api.AlarmMicro:
		// The stack-side callback filters eagerly-fired timers itself.
		inst.AlarmMicroFired()

	case api.SerialData:
		if w.cfg.Watchdog != nil {
			w.cfg.Watchdog()
		}
		inst.UartReceived(m.Slot.Bytes())
		m.Slot.Free()

	case api.JobRequest:
		job := m.Job
		value := inst.ExecCommand(job.Command, job.Arg, job.Answer)
		w.log.Debug().
			Stringer("job", job.ID).
			Str("command", job.Command).
			Int("value", value).
			Msg("job executed")
		// Reply is buffered with capacity one, so this send never blocks
		// even when the requester abandoned the wait.
		job.Reply <- api.JobResult{Value: value}
	}
}
