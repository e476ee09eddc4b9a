// File: api/stack.go
// Package api defines the protocol stack boundary.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "io"

// Stack is the surface of the tasklet-driven protocol engine the workers
// drive. The workers keep calls serialized by precedence, not by a shared
// lock: task-side dispatch defers to outstanding event work through a
// gate, so an event-side call can still overlap an in-progress task-side
// drain under contention. Implementations must tolerate that residual
// overlap.
type Stack interface {
	// TaskletsPending reports whether deferred work is queued.
	TaskletsPending() bool

	// ProcessTasklets runs queued tasklet work. The workers call it in a
	// loop until TaskletsPending reports false, so a single call need not
	// drain everything.
	ProcessTasklets()

	// SetPanID and SetChannel apply the default link parameters during
	// Event Worker bring-up.
	SetPanID(pan uint16)
	SetChannel(channel uint8)

	// AlarmMilliFired and AlarmMicroFired deliver timer expirations.
	// The microsecond callback must itself check which timers actually
	// expired: the underlying timer facility may fire eagerly.
	AlarmMilliFired()
	AlarmMicroFired()

	// UartReceived feeds serial console input to the stack.
	UartReceived(buf []byte)

	// TxDone reports a transmit outcome for the in-flight frame.
	TxDone(outcome TxOutcome)

	// ExecCommand runs a named management command with the given argument,
	// writing any textual answer to answer, and returns the execution
	// result value.
	ExecCommand(command, arg string, answer io.Writer) int
}

// CLIFrontEnd is implemented by stacks built with a command-line front end.
// The Event Worker initializes it during bring-up and then enables the
// IPv6 interface and Thread operation.
type CLIFrontEnd interface {
	InitCLI()
	SetIPv6Enabled(enabled bool)
	SetThreadEnabled(enabled bool)
}

// NCPFrontEnd is implemented by stacks built with a network-control-protocol
// front end instead of a CLI.
type NCPFrontEnd interface {
	InitNCP()
	StartCommissioner()
}

// Diagnostics is implemented by stacks built with diagnostics support.
type Diagnostics interface {
	InitDiag()
}
