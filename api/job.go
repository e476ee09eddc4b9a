// File: api/job.go
// Package api defines the synchronous job request/response unit.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"bytes"

	"github.com/google/uuid"
)

// Job is a cross-thread command invocation executed synchronously by the
// Event Worker. The requester owns the record; the worker writes the
// textual answer into Answer and sends exactly one JobResult on Reply.
//
// Reply must be buffered with capacity 1 so the worker's send never
// blocks, even when the requester abandoned the wait. An abandoned
// result is simply discarded.
type Job struct {
	ID      uuid.UUID
	Command string
	Arg     string
	Answer  *bytes.Buffer
	Reply   chan JobResult
}

// JobResult carries the integer execution result of a job.
type JobResult struct {
	Value int
}

// NewJob builds a job record with a fresh correlation id and a reply
// channel sized for the single unconditional reply.
func NewJob(command, arg string) *Job {
	return &Job{
		ID:      uuid.New(),
		Command: command,
		Arg:     arg,
		Answer:  &bytes.Buffer{},
		Reply:   make(chan JobResult, 1),
	}
}
