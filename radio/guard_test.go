// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// guard_test.go — radio mutex discipline: ISR dispatch is mutually
// exclusive system-wide, pending-interrupt accounting survives
// contention, and link configuration reaches the driver transformed.
package radio

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/threadlet/api"
)

// contendingDriver detects overlapping ISR entries with a plain counter:
// any unserialized access would corrupt it under the race detector and
// the overlap check.
type contendingDriver struct {
	mu      sync.Mutex
	inISR   bool
	overlap bool
	count   int
	hold    time.Duration

	opts map[api.RadioOpt]any
}

func (d *contendingDriver) ISR() {
	d.mu.Lock()
	if d.inISR {
		d.overlap = true
	}
	d.inISR = true
	d.mu.Unlock()

	time.Sleep(d.hold)

	d.mu.Lock()
	d.inISR = false
	d.count++
	d.mu.Unlock()
}

func (d *contendingDriver) Set(opt api.RadioOpt, value any) error {
	d.mu.Lock()
	if d.opts == nil {
		d.opts = make(map[api.RadioOpt]any)
	}
	d.opts[opt] = value
	d.mu.Unlock()
	return nil
}

func (d *contendingDriver) Get(opt api.RadioOpt) (any, error) { return nil, nil }

func TestGuard_SerializesISR(t *testing.T) {
	drv := &contendingDriver{hold: 5 * time.Millisecond}
	g := NewGuard(drv, zerolog.Nop())

	// Simulated concurrent event-side hold: the task-side dispatch must
	// wait, then proceed, never corrupting the count.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.DispatchISR()
		}()
	}
	wg.Wait()

	drv.mu.Lock()
	defer drv.mu.Unlock()
	if drv.overlap {
		t.Fatal("ISR entries overlapped despite radio mutex")
	}
	if drv.count != 8 {
		t.Fatalf("count = %d, want 8", drv.count)
	}
}

func TestGuard_PendingIRQAccounting(t *testing.T) {
	g := NewGuard(&contendingDriver{}, zerolog.Nop())

	g.NoteIRQ()
	g.NoteIRQ()
	if g.PendingIRQ() != 2 {
		t.Fatalf("pending = %d, want 2", g.PendingIRQ())
	}
	g.AckIRQ()
	if g.PendingIRQ() != 1 {
		t.Fatalf("pending = %d, want 1 after ack", g.PendingIRQ())
	}
}

func TestGuard_ShortAddressByteOrder(t *testing.T) {
	drv := &contendingDriver{}
	g := NewGuard(drv, zerolog.Nop())

	if err := g.SetShortAddress(0x1234); err != nil {
		t.Fatalf("set short address: %v", err)
	}
	got := drv.opts[api.RadioOptShortAddr].(uint16)
	if got != 0x3412 {
		t.Fatalf("driver saw %04x, want byte-swapped 3412", got)
	}
}

func TestGuard_LongAddressReversed(t *testing.T) {
	drv := &contendingDriver{}
	g := NewGuard(drv, zerolog.Nop())

	in := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := g.SetLongAddress(in); err != nil {
		t.Fatalf("set long address: %v", err)
	}
	got := drv.opts[api.RadioOptLongAddr].([8]byte)
	want := [8]byte{8, 7, 6, 5, 4, 3, 2, 1}
	if got != want {
		t.Fatalf("driver saw %v, want %v", got, want)
	}
}
