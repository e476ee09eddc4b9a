// File: core/serial/serial.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Serial receive buffer slots. The serial producer fills a FREE slot,
// marking it BUSY, and posts its reference to the Event Worker; the
// worker feeds the bytes to the stack's UART input and frees the slot.
// The status flag is what stops the producer from reusing a slot that is
// still being read: at most one reference per slot is ever in flight.

package serial

import (
	"sync/atomic"

	"github.com/momentics/threadlet/api"
)

// Slot status values.
const (
	statusFree int32 = iota
	statusBusy
)

// Slot is one fixed-capacity serial receive buffer with a FREE/BUSY flag.
type Slot struct {
	status atomic.Int32
	buf    []byte
	n      int
}

// NewSlot allocates a free slot holding up to capacity bytes.
func NewSlot(capacity int) *Slot {
	return &Slot{buf: make([]byte, capacity)}
}

// Fill copies p into the slot and marks it BUSY. Returns ErrSlotBusy when
// the slot is still in flight, ErrQueueFull when p exceeds the slot
// capacity. The producer must not touch the data again until Free.
func (s *Slot) Fill(p []byte) error {
	if len(p) > len(s.buf) {
		return api.ErrQueueFull
	}
	if !s.status.CompareAndSwap(statusFree, statusBusy) {
		return api.ErrSlotBusy
	}
	s.n = copy(s.buf, p)
	return nil
}

// Bytes returns the filled portion of the buffer. Valid only while the
// slot is BUSY and only from the consuming worker.
func (s *Slot) Bytes() []byte {
	return s.buf[:s.n]
}

// Free marks the slot reusable. Consumer-side release.
func (s *Slot) Free() {
	s.n = 0
	s.status.Store(statusFree)
}

// Busy reports whether the slot is in flight.
func (s *Slot) Busy() bool {
	return s.status.Load() == statusBusy
}

// Pool is a small fixed set of slots the serial producer rotates through.
type Pool struct {
	slots []*Slot
}

// NewPool builds n slots of the given capacity.
func NewPool(n, capacity int) *Pool {
	p := &Pool{slots: make([]*Slot, n)}
	for i := range p.slots {
		p.slots[i] = NewSlot(capacity)
	}
	return p
}

// Fill copies p into the first free slot and returns it, or ErrSlotBusy
// when every slot is in flight.
func (p *Pool) Fill(data []byte) (*Slot, error) {
	for _, s := range p.slots {
		err := s.Fill(data)
		if err == nil {
			return s, nil
		}
		if err != api.ErrSlotBusy {
			return nil, err
		}
	}
	return nil, api.ErrSlotBusy
}

// Len returns the number of slots.
func (p *Pool) Len() int {
	return len(p.slots)
}

var _ api.SerialSlot = (*Slot)(nil)
