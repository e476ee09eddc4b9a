// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package radio guards the shared radio device. All ISR dispatch funnels
// through a single Guard whose internal mutex is the system-wide radio
// lock, and all link configuration (PAN ID, channel, power, addresses)
// goes through the same Guard so driver access stays serialized.
package radio
