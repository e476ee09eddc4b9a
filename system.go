// File: system.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// System is the process-wide context object: it owns the stack instance
// holder, the worker identities, the pending-task flag, the radio guard,
// and the alarm sources. Collaborators receive a *System instead of
// reaching for ambient globals.

package threadlet

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/momentics/threadlet/api"
	"github.com/momentics/threadlet/control"
	"github.com/momentics/threadlet/core/alarm"
	"github.com/momentics/threadlet/core/dispatch"
	"github.com/momentics/threadlet/core/serial"
	"github.com/momentics/threadlet/radio"
)

// Worker identifiers published once the respective loop starts.
const (
	EventWorkerID api.WorkerID = iota + 1
	TaskWorkerID
)

// StackFactory creates the single stack instance during Event Worker
// bring-up. The factory receives the System so the stack can route its
// tasklet-pending signal back through SignalPending.
type StackFactory func(sys *System) api.Stack

// System bundles the concurrency core. Create with New, then Start.
type System struct {
	cfg      control.Settings
	log      zerolog.Logger
	newStack StackFactory
	watchdog func()
	spawn    dispatch.SpawnFunc

	instance api.InstanceHolder
	guard    *radio.Guard
	gate     *dispatch.Gate
	pending  dispatch.PendingFlag

	event *dispatch.EventWorker
	task  *dispatch.TaskWorker

	serialPool *serial.Pool
	milli      *alarm.Alarm
	micro      *alarm.Alarm

	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
}

// Option adjusts a System before Start.
type Option func(*System)

// WithLogger sets the logger all components derive from.
func WithLogger(log zerolog.Logger) Option {
	return func(s *System) { s.log = log }
}

// WithWatchdog installs a watchdog kicked on every serial message.
func WithWatchdog(clear func()) Option {
	return func(s *System) { s.watchdog = clear }
}

// WithSpawn substitutes the worker spawn primitive, mainly for tests.
func WithSpawn(spawn dispatch.SpawnFunc) Option {
	return func(s *System) { s.spawn = spawn }
}

// New assembles a System from settings, a stack factory, and the radio
// driver. Nothing runs until Start.
func New(cfg control.Settings, newStack StackFactory, drv api.RadioDriver, opts ...Option) *System {
	s := &System{
		cfg:      cfg,
		log:      zerolog.Nop(),
		newStack: newStack,
		gate:     dispatch.NewGate(),
		config:   control.NewConfigStore(cfg),
		metrics:  control.NewMetricsRegistry(),
		probes:   control.NewDebugProbes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.guard = radio.NewGuard(drv, s.log)
	s.serialPool = serial.NewPool(cfg.SerialSlots, cfg.SerialSlotSize)
	return s
}

// Start validates settings and brings up both workers, Task Worker first
// so it is ready before the Event Worker begins posting. The Event
// Worker's settle delay covers the rest of the bootstrap race.
func (s *System) Start() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if s.newStack == nil {
		return fmt.Errorf("system: %w: no stack factory", api.ErrInvalidArgument)
	}

	task, err := dispatch.StartTaskWorker(dispatch.TaskConfig{
		Options: dispatch.Options{
			Name:     s.cfg.TaskWorkerName,
			QueueLen: s.cfg.TaskQueueLen,
			CPU:      s.cfg.TaskCPU,
			Spawn:    s.spawn,
			Logger:   s.log,
		},
		ID:       TaskWorkerID,
		Instance: &s.instance,
		Radio:    s.guard,
		Gate:     s.gate,
		Pending:  &s.pending,
		Metrics:  s.metrics,
	})
	if err != nil {
		return err
	}
	s.task = task

	event, err := dispatch.StartEventWorker(dispatch.EventConfig{
		Options: dispatch.Options{
			Name:     s.cfg.EventWorkerName,
			QueueLen: s.cfg.EventQueueLen,
			CPU:      s.cfg.EventCPU,
			Spawn:    s.spawn,
			Logger:   s.log,
		},
		ID:          EventWorkerID,
		NewStack:    func() api.Stack { return s.newStack(s) },
		Instance:    &s.instance,
		Radio:       s.guard,
		Gate:        s.gate,
		PanID:       s.cfg.PanID,
		Channel:     s.cfg.Channel,
		FrontEnd:    s.cfg.FrontEnd,
		Diagnostics: s.cfg.Diagnostics,
		Watchdog:    s.watchdog,
		SettleDelay: s.cfg.SettleDelay,
		Metrics:     s.metrics,
	})
	if err != nil {
		s.task.Stop()
		return err
	}
	s.event = event

	s.milli = alarm.NewMilli(s.event.Post)
	s.micro = alarm.NewMicro(s.event.Post)

	s.probes.RegisterProbe("dispatch.event.queue", func() any { return s.event.QueueLen() })
	s.probes.RegisterProbe("dispatch.task.queue", func() any { return s.task.QueueLen() })
	s.probes.RegisterProbe("dispatch.pending", func() any { return s.pending.Pending() })
	s.probes.RegisterProbe("radio.pending_irq", func() any { return s.guard.PendingIRQ() })

	// Reloaded link parameters are pushed straight to the radio; the
	// structural knobs only apply on the next Start.
	s.config.OnReload(func(cfg control.Settings) {
		s.metrics.Add("config.reloads", 1)
		if err := s.guard.SetPanID(cfg.PanID); err != nil {
			s.log.Warn().Err(err).Msg("reload: pan id not applied")
		}
		if err := s.guard.SetChannel(uint16(cfg.Channel)); err != nil {
			s.log.Warn().Err(err).Msg("reload: channel not applied")
		}
		s.log.Info().
			Uint16("pan_id", cfg.PanID).
			Uint8("channel", cfg.Channel).
			Msg("settings reloaded")
	})
	return nil
}

// Shutdown stops both workers. Task Worker first so no task-side dispatch
// is left waiting on the precedence gate.
func (s *System) Shutdown() error {
	if s.task != nil {
		s.task.Stop()
	}
	if s.event != nil {
		s.event.Stop()
	}
	return nil
}

// Instance returns the process-wide stack handle, or nil before the Event
// Worker finishes bring-up.
func (s *System) Instance() api.Stack {
	return s.instance.Load()
}

// EventWorkerID returns the Event Worker identifier, or WorkerIDUnset
// before it starts.
func (s *System) EventWorkerID() api.WorkerID {
	if s.event == nil {
		return api.WorkerIDUnset
	}
	return s.event.ID()
}

// TaskWorkerID returns the Task Worker identifier, or WorkerIDUnset
// before it starts.
func (s *System) TaskWorkerID() api.WorkerID {
	if s.task == nil {
		return api.WorkerIDUnset
	}
	return s.task.ID()
}

// Radio returns the radio guard.
func (s *System) Radio() *radio.Guard {
	return s.guard
}

// MilliAlarm returns the millisecond alarm source. Valid after Start.
func (s *System) MilliAlarm() *alarm.Alarm {
	return s.milli
}

// MicroAlarm returns the microsecond alarm source. Valid after Start.
func (s *System) MicroAlarm() *alarm.Alarm {
	return s.micro
}

// Config returns the live settings store. Reloading through it retunes
// the radio link parameters of a started system.
func (s *System) Config() *control.ConfigStore {
	return s.config
}

// Metrics returns the dispatch metrics registry.
func (s *System) Metrics() *control.MetricsRegistry {
	return s.metrics
}

// Probes returns the debug probe registry.
func (s *System) Probes() *control.DebugProbes {
	return s.probes
}
