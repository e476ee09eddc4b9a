// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package threadlet is the concurrency core that runs a single-threaded,
// tasklet-driven mesh protocol stack on a preemptive multi-goroutine
// runtime. It wires the Event Worker and Task Worker dispatch loops, the
// radio guard, alarm sources, and the serial receive path into one System
// object created at bootstrap and handed by reference to every
// collaborator.
package threadlet
