// File: radio/guard.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Guard wraps the external radio driver behind the radio mutex.
// DispatchISR is the only place the mutex is taken, which makes the lock
// ordering checkable: the Task Worker reaches it while holding the coarse
// buffer mutex, every other caller holds nothing.

package radio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/threadlet/api"
)

// IEEE 802.15.4 long address length in bytes.
const longAddrLen = 8

// Guard serializes access to one radio device and accounts coalesced
// pending interrupts.
type Guard struct {
	mu         sync.Mutex
	drv        api.RadioDriver
	pendingIRQ atomic.Int32
	log        zerolog.Logger
}

// NewGuard wraps a radio driver.
func NewGuard(drv api.RadioDriver, log zerolog.Logger) *Guard {
	return &Guard{drv: drv, log: log.With().Str("component", "radio").Logger()}
}

// DispatchISR invokes the driver's interrupt-service entry point under
// the radio mutex. Held only for the duration of the ISR call.
func (g *Guard) DispatchISR() {
	g.mu.Lock()
	g.drv.ISR()
	g.mu.Unlock()
}

// NoteIRQ records one coalesced interrupt when the driver posts a radio
// event it has already counted.
func (g *Guard) NoteIRQ() {
	g.pendingIRQ.Add(1)
}

// AckIRQ retires one coalesced interrupt after its event was serviced.
func (g *Guard) AckIRQ() {
	g.pendingIRQ.Add(-1)
}

// PendingIRQ returns the outstanding coalesced interrupt count.
func (g *Guard) PendingIRQ() int {
	return int(g.pendingIRQ.Load())
}

// SetPanID applies the 802.15.4 PAN identifier.
func (g *Guard) SetPanID(pan uint16) error {
	return g.set(api.RadioOptPanID, pan)
}

// SetChannel selects the 802.15.4 channel.
func (g *Guard) SetChannel(channel uint16) error {
	return g.set(api.RadioOptChannel, channel)
}

// SetTxPower applies the transmit power in dBm.
func (g *Guard) SetTxPower(power int16) error {
	return g.set(api.RadioOptTxPower, power)
}

// SetShortAddress applies the short address, swapped to the byte order
// the driver expects on the wire.
func (g *Guard) SetShortAddress(addr uint16) error {
	swapped := ((addr & 0xff) << 8) | ((addr >> 8) & 0xff)
	return g.set(api.RadioOptShortAddr, swapped)
}

// SetLongAddress applies the extended address. The stack hands it most
// significant byte first; the driver wants it reversed.
func (g *Guard) SetLongAddress(ext [longAddrLen]byte) error {
	var reversed [longAddrLen]byte
	for i := range ext {
		reversed[i] = ext[longAddrLen-1-i]
	}
	return g.set(api.RadioOptLongAddr, reversed)
}

// SetPromiscuous toggles promiscuous mode.
func (g *Guard) SetPromiscuous(enabled bool) error {
	return g.set(api.RadioOptPromiscuous, enabled)
}

func (g *Guard) set(opt api.RadioOpt, value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.drv.Set(opt, value); err != nil {
		return fmt.Errorf("radio: set option %d: %w", opt, err)
	}
	return nil
}
