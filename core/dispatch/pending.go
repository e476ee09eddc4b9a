// File: core/dispatch/pending.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import "sync/atomic"

// PendingFlag records whether a tasklet-pending wake has been delivered to
// the Task Worker and not yet consumed. Producers call MarkPending and
// signal only on the false-to-true edge; the Task Worker clears the flag
// when it begins processing a wake.
//
// The flag is advisory. A spurious extra wake is harmless because the
// drain loop is idempotent against "nothing pending"; correctness never
// depends on the flag alone.
type PendingFlag struct {
	v atomic.Bool
}

// MarkPending sets the flag and reports whether this call made the
// false-to-true transition, i.e. whether the caller must send a wake.
func (f *PendingFlag) MarkPending() bool {
	return f.v.CompareAndSwap(false, true)
}

// Clear resets the flag. Called by the Task Worker when it consumes a
// tasklet-pending message, so a later producer knows a fresh signal is
// required.
func (f *PendingFlag) Clear() {
	f.v.Store(false)
}

// Pending reports the current flag value.
func (f *PendingFlag) Pending() bool {
	return f.v.Load()
}
