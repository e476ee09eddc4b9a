// File: core/alarm/alarm.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Alarm sources for the stack's millisecond and microsecond timers. The
// stack exposes exactly one outstanding timer per resolution, so each
// Alarm manages a single reusable timer: StartAt arms it, Stop disarms,
// expiry posts the alarm message to the owning worker's queue. A zero
// delay posts immediately, matching the platform contract.

package alarm

import (
	"sync"
	"time"

	"github.com/momentics/threadlet/api"
)

// Poster accepts an alarm-fired message; satisfied by a worker's Post.
type Poster func(api.Message) bool

// Alarm is one single-shot, re-armable timer source.
type Alarm struct {
	mu    sync.Mutex
	unit  time.Duration
	msg   api.Message
	post  Poster
	timer *time.Timer
	epoch time.Time
}

// NewMilli builds the millisecond alarm source posting AlarmMilli.
func NewMilli(post Poster) *Alarm {
	return newAlarm(time.Millisecond, api.AlarmMilli{}, post)
}

// NewMicro builds the microsecond alarm source posting AlarmMicro. The
// consumer-side callback filters eagerly-fired timers itself, so this
// source does not re-check expiry.
func NewMicro(post Poster) *Alarm {
	return newAlarm(time.Microsecond, api.AlarmMicro{}, post)
}

func newAlarm(unit time.Duration, msg api.Message, post Poster) *Alarm {
	return &Alarm{
		unit:  unit,
		msg:   msg,
		post:  post,
		epoch: time.Now(),
	}
}

// StartAt arms the alarm to fire dt units after the reference time t0,
// both expressed in this alarm's resolution since the process epoch.
// dt of zero fires immediately. Re-arming replaces the previous deadline.
func (a *Alarm) StartAt(t0, dt uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()

	if dt == 0 {
		a.post(a.msg)
		return
	}
	deadline := a.epoch.Add(time.Duration(t0+dt) * a.unit)
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}
	a.timer = time.AfterFunc(delay, func() {
		a.post(a.msg)
	})
}

// Stop disarms the alarm. A fire already in flight may still deliver;
// the dispatch path tolerates the spurious message.
func (a *Alarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Alarm) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// Now returns the current time in this alarm's resolution since the
// process epoch.
func (a *Alarm) Now() uint32 {
	return uint32(time.Since(a.epoch) / a.unit)
}
