// File: api/radio.go
// Package api defines the radio driver boundary.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// RadioOpt selects a radio driver option for Set/Get, mirroring the
// option-based device interface of 802.15.4 driver stacks.
type RadioOpt int

const (
	RadioOptChannel RadioOpt = iota
	RadioOptPanID
	RadioOptTxPower
	RadioOptShortAddr
	RadioOptLongAddr
	RadioOptPromiscuous
	RadioOptState
)

// RadioDriver is the external radio device. ISR is the driver's
// interrupt-service entry point; the core only ever calls it through the
// radio guard, which serializes access with the radio mutex.
type RadioDriver interface {
	ISR()
	Set(opt RadioOpt, value any) error
	Get(opt RadioOpt) (any, error)
}

// RadioISR is the guard-side surface the workers dispatch radio events
// through. DispatchISR serializes the driver ISR call; AckIRQ retires one
// coalesced pending interrupt after a RadioEvent with Coalesced set.
type RadioISR interface {
	DispatchISR()
	AckIRQ()
}
