// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared type declarations for the threadlet core: worker identity,
// transmit outcomes, and the process-wide stack instance holder.

package api

import "sync/atomic"

// WorkerID identifies a started worker. The zero value means "not started
// yet"; once a worker publishes its identifier it never changes for the
// process lifetime.
type WorkerID int32

// WorkerIDUnset is the identifier of a worker that has not started.
const WorkerIDUnset WorkerID = 0

// TxOutcome enumerates transmit completion outcomes reported to the
// stack's send-completion path.
type TxOutcome int

const (
	TxComplete TxOutcome = iota
	TxCompleteDataPending
	TxNoAck
	TxMediumBusy
)

func (o TxOutcome) String() string {
	switch o {
	case TxComplete:
		return "complete"
	case TxCompleteDataPending:
		return "complete-data-pending"
	case TxNoAck:
		return "no-ack"
	case TxMediumBusy:
		return "medium-busy"
	default:
		return "unknown"
	}
}

// InstanceHolder publishes the single process-wide stack instance. The
// Event Worker stores the instance exactly once during bring-up; any
// collaborator may load it. Load returns nil until then.
type InstanceHolder struct {
	v atomic.Value // holds Stack
}

// Store publishes the instance. Only the Event Worker calls this.
func (h *InstanceHolder) Store(s Stack) {
	h.v.Store(s)
}

// Load returns the published instance, or nil before bring-up completes.
func (h *InstanceHolder) Load() Stack {
	s, _ := h.v.Load().(Stack)
	return s
}
