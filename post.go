// File: post.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Producer-side entry points: how external contexts (radio driver hooks,
// the serial receive path, timers, other goroutines) feed events into the
// workers, and the synchronous job rendezvous.

package threadlet

import (
	"context"
	"fmt"

	"github.com/momentics/threadlet/api"
)

// SignalPending routes the stack's "tasklets went non-empty" callback to
// the Task Worker. The wake is sent only on the false-to-true edge of the
// pending flag; a wake that cannot be queued resets the flag so the next
// edge signals again. Spurious extra wakes are harmless: the drain loop
// is idempotent against nothing pending.
func (s *System) SignalPending() bool {
	if !s.pending.MarkPending() {
		return true // a wake is already in flight
	}
	if !s.task.Post(api.TaskletPending{}) {
		s.pending.Clear()
		return false
	}
	return true
}

// PostEvent posts a raw message to the Event Worker queue.
func (s *System) PostEvent(m api.Message) bool {
	return s.event.Post(m)
}

// PostTask posts a raw message to the Task Worker queue. Used by builds
// that split radio and microsecond-timer handling onto the task path.
func (s *System) PostTask(m api.Message) bool {
	return s.task.Post(m)
}

// RadioEvent reports a radio interrupt to the Event Worker. coalesced
// marks events the driver accounts in its pending-interrupt counter.
func (s *System) RadioEvent(coalesced bool) bool {
	if coalesced {
		s.guard.NoteIRQ()
	}
	return s.event.Post(api.RadioEvent{Coalesced: coalesced})
}

// RadioBusy reports a medium-busy transmit outcome.
func (s *System) RadioBusy() bool {
	return s.event.Post(api.RadioBusy{})
}

// LinkRetryTimeout reports an elapsed link-retry window.
func (s *System) LinkRetryTimeout() bool {
	return s.event.Post(api.LinkRetryTimeout{})
}

// SerialReceive copies one serial chunk into a free buffer slot and posts
// it to the Event Worker. ErrSlotBusy means every slot is still in
// flight; the producer must back off rather than overwrite.
func (s *System) SerialReceive(p []byte) error {
	slot, err := s.serialPool.Fill(p)
	if err != nil {
		return err
	}
	if !s.event.Post(api.SerialData{Slot: slot}) {
		slot.Free()
		return api.ErrQueueFull
	}
	return nil
}

// Call executes a management command inside the Event Worker and blocks
// for the reply: a synchronous cross-thread rendezvous. The context lets
// the caller abandon the wait; the worker still completes the command and
// its discarded result costs nothing.
func (s *System) Call(ctx context.Context, command, arg string) (int, string, error) {
	job := api.NewJob(command, arg)
	if !s.event.Post(api.JobRequest{Job: job}) {
		return 0, "", fmt.Errorf("job %s: %w", job.ID, api.ErrQueueFull)
	}
	select {
	case res := <-job.Reply:
		return res.Value, job.Answer.String(), nil
	case <-ctx.Done():
		return 0, "", ctx.Err()
	}
}
