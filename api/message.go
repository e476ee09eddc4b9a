// File: api/message.go
// Package api defines the closed set of worker message variants.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Messages are a sealed tagged-variant type: one struct per event kind,
// each carrying only the payload that kind needs. Workers dispatch with a
// type switch; a variant a worker does not recognize is silently ignored.

package api

// Message is the sealed interface over all worker message kinds. Only
// types in this package implement it, so a dispatch type switch is
// exhaustive by construction.
type Message interface {
	// Kind names the message for logs and metrics.
	Kind() string

	message()
}

// TaskletPending wakes a worker because the stack transitioned from an
// empty to a non-empty tasklet queue. Carries no payload; the drain loop
// at the top of each worker iteration does the actual work.
type TaskletPending struct{}

// RadioEvent reports a radio driver interrupt that needs servicing.
// Coalesced marks events accounted by the driver's pending-interrupt
// counter; the Event Worker acknowledges those after the ISR call.
type RadioEvent struct {
	Coalesced bool
}

// RadioBusy reports that the medium was busy for the in-flight frame.
type RadioBusy struct{}

// LinkRetryTimeout reports that the link-layer retry window elapsed
// without an acknowledgement.
type LinkRetryTimeout struct{}

// AlarmMilli reports a millisecond alarm expiration.
type AlarmMilli struct{}

// AlarmMicro reports a microsecond alarm expiration (fine-grained CSMA
// timing; only posted on builds that need it).
type AlarmMicro struct{}

// SerialData carries one in-flight serial buffer slot. Ownership of the
// slot passes to the receiving worker until it calls Free.
type SerialData struct {
	Slot SerialSlot
}

// JobRequest carries a synchronous cross-thread command invocation.
type JobRequest struct {
	Job *Job
}

func (TaskletPending) Kind() string { return "tasklet-pending" }
func (RadioEvent) Kind() string { return "radio-event" }
func (RadioBusy) Kind() string { return "radio-busy" }
func (LinkRetryTimeout) Kind() string { return "link-retry-timeout" }
func (AlarmMilli) Kind() string { return "alarm-milli" }
func (AlarmMicro) Kind() string { return "alarm-micro" }
func (SerialData) Kind() string { return "serial-data" }
func (JobRequest) Kind() string { return "job-request" }

func (TaskletPending) message() {}
func (RadioEvent) message() {}
func (RadioBusy) message() {}
func (LinkRetryTimeout) message() {}
func (AlarmMilli) message() {}
func (AlarmMicro) message() {}
func (SerialData) message() {}
func (JobRequest) message() {}

// SerialSlot is the consumer-side view of a serial buffer slot. Bytes is
// valid until Free is called; Free returns the slot to its producer.
type SerialSlot interface {
	Bytes() []byte
	Free()
}
