// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values used across the threadlet core.

package api

import "errors"

var (
	// ErrInvalidArgument indicates worker bring-up failed, typically
	// because the underlying thread could not be created. Fatal to
	// system start; never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrQueueFull indicates a message was posted to a worker whose
	// bounded queue is at capacity. This is a design-time sizing bug on
	// the sender's side, not a recoverable runtime condition.
	ErrQueueFull = errors.New("worker queue full")

	// ErrSlotBusy indicates a serial buffer slot still in flight was
	// asked to accept a new fill.
	ErrSlotBusy = errors.New("serial slot busy")

	// ErrNoInstance indicates the stack instance has not been created
	// yet, i.e. the Event Worker has not finished bring-up.
	ErrNoInstance = errors.New("stack instance not initialized")
)
