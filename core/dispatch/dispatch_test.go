// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// dispatch_test.go — worker contracts: FIFO dispatch, bring-up order,
// job rendezvous, failure paths, and the precedence gate.
package dispatch_test

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/threadlet/api"
	"github.com/momentics/threadlet/core/dispatch"
)

// fakeStack records every stack entry point invocation in order.
type fakeStack struct {
	mu       sync.Mutex
	calls    []string
	outcomes []api.TxOutcome
	uart     [][]byte
	pending  int // tasklets left to drain
	milliDur time.Duration
}

func (f *fakeStack) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeStack) TaskletsPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending > 0
}

func (f *fakeStack) ProcessTasklets() {
	f.mu.Lock()
	if f.pending > 0 {
		f.pending--
	}
	f.calls = append(f.calls, "process-tasklets")
	f.mu.Unlock()
}

func (f *fakeStack) SetPanID(pan uint16) { f.record(fmt.Sprintf("set-pan-id:%04x", pan)) }
func (f *fakeStack) SetChannel(channel uint8) { f.record(fmt.Sprintf("set-channel:%d", channel)) }

func (f *fakeStack) AlarmMilliFired() {
	if f.milliDur > 0 {
		time.Sleep(f.milliDur)
	}
	f.record("alarm-milli")
}

func (f *fakeStack) AlarmMicroFired() { f.record("alarm-micro") }

func (f *fakeStack) UartReceived(buf []byte) {
	cp := append([]byte(nil), buf...)
	f.mu.Lock()
	f.uart = append(f.uart, cp)
	f.mu.Unlock()
	f.record("uart")
}

func (f *fakeStack) TxDone(outcome api.TxOutcome) {
	f.mu.Lock()
	f.outcomes = append(f.outcomes, outcome)
	f.mu.Unlock()
	f.record("tx-done:" + outcome.String())
}

func (f *fakeStack) ExecCommand(command, arg string, answer io.Writer) int {
	f.record("exec:" + command)
	if command == "echo" {
		fmt.Fprint(answer, arg)
		v, _ := strconv.Atoi(arg)
		return v
	}
	return -1
}

func (f *fakeStack) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeCLIStack adds the CLI front-end surface.
type fakeCLIStack struct {
	fakeStack
}

func (f *fakeCLIStack) InitCLI() { f.record("init-cli") }
func (f *fakeCLIStack) SetIPv6Enabled(on bool) { f.record(fmt.Sprintf("ipv6:%v", on)) }
func (f *fakeCLIStack) SetThreadEnabled(on bool) { f.record(fmt.Sprintf("thread:%v", on)) }

// fakeRadio counts ISR dispatches through the guard interface.
type fakeRadio struct {
	mu    sync.Mutex
	isr   int
	acked int
	hold  time.Duration
}

func (r *fakeRadio) DispatchISR() {
	if r.hold > 0 {
		time.Sleep(r.hold)
	}
	r.mu.Lock()
	r.isr++
	r.mu.Unlock()
}

func (r *fakeRadio) AckIRQ() {
	r.mu.Lock()
	r.acked++
	r.mu.Unlock()
}

// fakeSlot satisfies api.SerialSlot and records Free.
type fakeSlot struct {
	data  []byte
	freed sync.WaitGroup
}

func (s *fakeSlot) Bytes() []byte { return s.data }
func (s *fakeSlot) Free() { s.freed.Done() }

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startEvent(t *testing.T, stack api.Stack, cfg dispatch.EventConfig) *dispatch.EventWorker {
	t.Helper()
	if cfg.NewStack == nil {
		cfg.NewStack = func() api.Stack { return stack }
	}
	if cfg.Instance == nil {
		cfg.Instance = &api.InstanceHolder{}
	}
	if cfg.Radio == nil {
		cfg.Radio = &fakeRadio{}
	}
	cfg.Logger = zerolog.Nop()
	cfg.ID = 1
	w, err := dispatch.StartEventWorker(cfg)
	if err != nil {
		t.Fatalf("StartEventWorker: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestEventWorker_PublishesIdentity(t *testing.T) {
	stack := &fakeStack{}
	w := startEvent(t, stack, dispatch.EventConfig{})
	eventually(t, func() bool { return w.ID() == 1 }, "worker id publication")
}

func TestEventWorker_BringUpOrder(t *testing.T) {
	stack := &fakeCLIStack{}
	holder := &api.InstanceHolder{}
	startEvent(t, stack, dispatch.EventConfig{
		Instance: holder,
		PanID:    0xbeef,
		Channel:  17,
		FrontEnd: "cli",
	})

	eventually(t, func() bool { return holder.Load() != nil }, "instance publication")
	eventually(t, func() bool { return len(stack.snapshot()) >= 5 }, "bring-up calls")

	want := []string{"set-pan-id:beef", "set-channel:17", "init-cli", "ipv6:true", "thread:true"}
	got := stack.snapshot()[:5]
	for i, call := range want {
		if got[i] != call {
			t.Fatalf("bring-up step %d = %q, want %q (full: %v)", i, got[i], call, got)
		}
	}
}

func TestEventWorker_FIFOOrder(t *testing.T) {
	stack := &fakeStack{}
	w := startEvent(t, stack, dispatch.EventConfig{})
	eventually(t, func() bool { return w.ID() != 0 }, "worker start")

	// Back-to-back no-ack then medium-busy must reach TxDone in order.
	if !w.Post(api.LinkRetryTimeout{}) || !w.Post(api.RadioBusy{}) {
		t.Fatal("post failed on empty queue")
	}
	eventually(t, func() bool {
		stack.mu.Lock()
		defer stack.mu.Unlock()
		return len(stack.outcomes) == 2
	}, "two tx outcomes")

	stack.mu.Lock()
	defer stack.mu.Unlock()
	if stack.outcomes[0] != api.TxNoAck || stack.outcomes[1] != api.TxMediumBusy {
		t.Fatalf("outcome order = %v, want [no-ack medium-busy]", stack.outcomes)
	}
}

func TestEventWorker_DrainsTaskletsBeforeBlocking(t *testing.T) {
	stack := &fakeStack{pending: 3}
	w := startEvent(t, stack, dispatch.EventConfig{})

	eventually(t, func() bool {
		stack.mu.Lock()
		defer stack.mu.Unlock()
		return stack.pending == 0
	}, "initial tasklet drain")

	// A wake with nothing pending is a no-op beyond the predicate check.
	before := len(stack.snapshot())
	w.Post(api.TaskletPending{})
	w.Post(api.AlarmMicro{})
	eventually(t, func() bool {
		calls := stack.snapshot()
		return len(calls) > before && calls[len(calls)-1] == "alarm-micro"
	}, "wake processed")
	for _, c := range stack.snapshot()[before:] {
		if c == "process-tasklets" {
			t.Fatal("drained tasklets that were never pending")
		}
	}
}

func TestEventWorker_RadioEventAck(t *testing.T) {
	stack := &fakeStack{}
	radio := &fakeRadio{}
	w := startEvent(t, stack, dispatch.EventConfig{Radio: radio})

	w.Post(api.RadioEvent{Coalesced: true})
	w.Post(api.RadioEvent{})
	eventually(t, func() bool {
		radio.mu.Lock()
		defer radio.mu.Unlock()
		return radio.isr == 2
	}, "two isr dispatches")

	radio.mu.Lock()
	defer radio.mu.Unlock()
	if radio.acked != 1 {
		t.Fatalf("acked = %d, want 1 (only the coalesced event)", radio.acked)
	}
}

func TestEventWorker_SerialDataFreesSlot(t *testing.T) {
	stack := &fakeStack{}
	watchdogKicks := 0
	var mu sync.Mutex
	w := startEvent(t, stack, dispatch.EventConfig{
		Watchdog: func() { mu.Lock(); watchdogKicks++; mu.Unlock() },
	})

	slot := &fakeSlot{data: []byte("state")}
	slot.freed.Add(1)
	w.Post(api.SerialData{Slot: slot})
	slot.freed.Wait()

	stack.mu.Lock()
	defer stack.mu.Unlock()
	if len(stack.uart) != 1 || string(stack.uart[0]) != "state" {
		t.Fatalf("uart input = %q, want [state]", stack.uart)
	}
	mu.Lock()
	defer mu.Unlock()
	if watchdogKicks != 1 {
		t.Fatalf("watchdog kicks = %d, want 1", watchdogKicks)
	}
}

func TestEventWorker_JobRoundTrip(t *testing.T) {
	stack := &fakeStack{}
	w := startEvent(t, stack, dispatch.EventConfig{})

	job := api.NewJob("echo", "42")
	if !w.Post(api.JobRequest{Job: job}) {
		t.Fatal("post job failed")
	}

	select {
	case res := <-job.Reply:
		if res.Value != 42 {
			t.Fatalf("reply value = %d, want 42", res.Value)
		}
		if job.Answer.String() != "42" {
			t.Fatalf("answer = %q, want %q", job.Answer.String(), "42")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply within deadline")
	}

	select {
	case <-job.Reply:
		t.Fatal("second reply received, want exactly one")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventWorker_AbandonedJobDoesNotBlock(t *testing.T) {
	stack := &fakeStack{}
	w := startEvent(t, stack, dispatch.EventConfig{})
	eventually(t, func() bool { return w.ID() != 0 }, "worker start")

	// Nobody reads these replies; the buffered reply channel absorbs them
	// and the worker keeps dispatching.
	for i := 0; i < 5; i++ {
		w.Post(api.JobRequest{Job: api.NewJob("echo", "1")})
	}
	w.Post(api.AlarmMilli{})
	eventually(t, func() bool {
		calls := stack.snapshot()
		return len(calls) > 0 && calls[len(calls)-1] == "alarm-milli"
	}, "dispatch after abandoned jobs")
}

func TestStartEventWorker_SpawnFailure(t *testing.T) {
	failing := func(name string, fn func()) error { return errors.New("no threads left") }
	w, err := dispatch.StartEventWorker(dispatch.EventConfig{
		Options:  dispatch.Options{Spawn: failing, Logger: zerolog.Nop()},
		ID:       1,
		NewStack: func() api.Stack { return &fakeStack{} },
		Instance: &api.InstanceHolder{},
		Radio:    &fakeRadio{},
	})
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if w != nil {
		t.Fatal("worker returned despite spawn failure")
	}
}

func TestStartTaskWorker_SpawnFailure(t *testing.T) {
	failing := func(name string, fn func()) error { return errors.New("no threads left") }
	w, err := dispatch.StartTaskWorker(dispatch.TaskConfig{
		Options:  dispatch.Options{Spawn: failing, Logger: zerolog.Nop()},
		ID:       2,
		Instance: &api.InstanceHolder{},
		Radio:    &fakeRadio{},
		Pending:  &dispatch.PendingFlag{},
	})
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if w != nil {
		t.Fatal("worker returned despite spawn failure")
	}
}

func TestStartEventWorker_MissingRadio(t *testing.T) {
	w, err := dispatch.StartEventWorker(dispatch.EventConfig{
		Options:  dispatch.Options{Logger: zerolog.Nop()},
		ID:       1,
		NewStack: func() api.Stack { return &fakeStack{} },
		Instance: &api.InstanceHolder{},
	})
	if !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if w != nil {
		t.Fatal("worker returned without a radio dispatcher")
	}
}

func TestStartTaskWorker_MissingCollaborators(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dispatch.TaskConfig)
	}{
		{"no radio", func(c *dispatch.TaskConfig) { c.Radio = nil }},
		{"no pending flag", func(c *dispatch.TaskConfig) { c.Pending = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := dispatch.TaskConfig{
				Options:  dispatch.Options{Logger: zerolog.Nop()},
				ID:       2,
				Instance: &api.InstanceHolder{},
				Radio:    &fakeRadio{},
				Pending:  &dispatch.PendingFlag{},
			}
			tc.mutate(&cfg)
			w, err := dispatch.StartTaskWorker(cfg)
			if !errors.Is(err, api.ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
			if w != nil {
				t.Fatal("worker returned despite missing collaborator")
			}
		})
	}
}

func startTask(t *testing.T, holder *api.InstanceHolder, cfg dispatch.TaskConfig) *dispatch.TaskWorker {
	t.Helper()
	cfg.Instance = holder
	if cfg.Radio == nil {
		cfg.Radio = &fakeRadio{}
	}
	if cfg.Pending == nil {
		cfg.Pending = &dispatch.PendingFlag{}
	}
	cfg.Logger = zerolog.Nop()
	cfg.ID = 2
	w, err := dispatch.StartTaskWorker(cfg)
	if err != nil {
		t.Fatalf("StartTaskWorker: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestTaskWorker_ClearsPendingFlag(t *testing.T) {
	stack := &fakeStack{pending: 2}
	holder := &api.InstanceHolder{}
	holder.Store(stack)
	flag := &dispatch.PendingFlag{}
	w := startTask(t, holder, dispatch.TaskConfig{Pending: flag})

	if !flag.MarkPending() {
		t.Fatal("first edge should mark pending")
	}
	w.Post(api.TaskletPending{})

	eventually(t, func() bool { return !flag.Pending() }, "flag cleared")
	eventually(t, func() bool {
		stack.mu.Lock()
		defer stack.mu.Unlock()
		return stack.pending == 0
	}, "tasklets drained under coarse lock")

	// Cleared flag means the next edge signals again.
	if !flag.MarkPending() {
		t.Fatal("edge after clear should mark pending again")
	}
}

func TestTaskWorker_ToleratesMissingInstance(t *testing.T) {
	holder := &api.InstanceHolder{}
	radio := &fakeRadio{}
	w := startTask(t, holder, dispatch.TaskConfig{Radio: radio})

	// Stack not created yet: radio events still serviced, stack-bound
	// messages dropped without crashing.
	w.Post(api.RadioEvent{})
	w.Post(api.RadioBusy{})
	eventually(t, func() bool {
		radio.mu.Lock()
		defer radio.mu.Unlock()
		return radio.isr == 1
	}, "isr without instance")
}

func TestTaskWorker_DefersToEventWorker(t *testing.T) {
	gate := dispatch.NewGate()

	stack := &fakeStack{milliDur: 20 * time.Millisecond}
	holder := &api.InstanceHolder{}
	holder.Store(stack)

	ew := startEvent(t, stack, dispatch.EventConfig{Instance: holder, Gate: gate})
	tw := startTask(t, holder, dispatch.TaskConfig{Gate: gate})
	eventually(t, func() bool { return ew.ID() != 0 && tw.ID() != 0 }, "workers start")

	// Three slow event dispatches, then one task dispatch. The task-side
	// alarm-micro must come after every event-side alarm-milli.
	ew.Post(api.AlarmMilli{})
	ew.Post(api.AlarmMilli{})
	ew.Post(api.AlarmMilli{})
	tw.Post(api.AlarmMicro{})

	eventually(t, func() bool {
		for _, c := range stack.snapshot() {
			if c == "alarm-micro" {
				return true
			}
		}
		return false
	}, "task dispatch completion")

	milli := 0
	for _, c := range stack.snapshot() {
		if c == "alarm-micro" {
			if milli < 3 {
				t.Fatalf("task work ran after %d of 3 event dispatches", milli)
			}
			return
		}
		if c == "alarm-milli" {
			milli++
		}
	}
}

func TestQueue_PostFullReturnsFalse(t *testing.T) {
	q := dispatch.NewQueue(2, nil)
	if !q.Post(api.AlarmMilli{}) || !q.Post(api.AlarmMilli{}) {
		t.Fatal("posts within capacity failed")
	}
	if q.Post(api.AlarmMilli{}) {
		t.Fatal("post beyond capacity succeeded")
	}
	if q.Len() != 2 || q.Cap() != 2 {
		t.Fatalf("len/cap = %d/%d, want 2/2", q.Len(), q.Cap())
	}
}

func TestGate_WaitUnblocksWhenDrained(t *testing.T) {
	gate := dispatch.NewGate()
	q := dispatch.NewQueue(4, gate)
	q.Post(api.AlarmMilli{})
	q.Post(api.AlarmMilli{})

	done := make(chan struct{})
	go func() {
		gate.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while obligations outstanding")
	case <-time.After(20 * time.Millisecond):
	}

	quit := make(chan struct{})
	for i := 0; i < 2; i++ {
		if _, ok := q.Receive(quit); !ok {
			t.Fatal("receive failed")
		}
		q.Dispatched()
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after drain")
	}
}
