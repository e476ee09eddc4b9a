// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for the dispatch module.

package dispatch

import "errors"

var (
	// errMissingStack indicates the Event Worker was configured without a
	// stack factory or instance holder.
	errMissingStack = errors.New("missing stack factory or instance holder")

	// errMissingInstance indicates the Task Worker was configured without
	// an instance holder to read the stack from.
	errMissingInstance = errors.New("missing instance holder")

	// errMissingRadio indicates a worker was configured without the radio
	// ISR dispatcher its radio messages need.
	errMissingRadio = errors.New("missing radio dispatcher")

	// errMissingPending indicates the Task Worker was configured without
	// the shared pending-task flag.
	errMissingPending = errors.New("missing pending flag")
)
