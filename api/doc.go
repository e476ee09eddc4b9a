// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the contracts between the threadlet concurrency core
// and its collaborators: the tasklet-driven protocol stack, the radio
// driver, and whatever front end (CLI, NCP) a build wires in.
//
// The core itself never reaches into stack or radio internals. Everything
// it needs is expressed here as small interfaces and a closed set of
// message variants, so the dispatch loops can be exercised against fakes
// exactly the way they run against a real stack.
package api
