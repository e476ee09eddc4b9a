// File: core/dispatch/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package dispatch implements the two cooperating workers that funnel
// asynchronous events (radio interrupts, timer fires, serial input, job
// requests) into the single-threaded protocol stack.
//
// The Event Worker owns the stack instance and services everything with
// interrupt-like urgency. The Task Worker drains posted tasklet work under
// the coarse buffer mutex, keeping packet preparation off the urgent path.
// On a runtime without fixed-priority threads the "event work preempts
// task work" guarantee is preserved by a precedence gate: the Task Worker
// defers before each dispatch until the Event Worker's queue has been
// drained.
package dispatch
