// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration and metrics layer for the threadlet core.
//
// Provides concurrent-safe primitives for:
//   - Typed settings with TOML file loading and validated defaults
//   - Immutable snapshot config reads with reload listeners
//   - Per-message-kind dispatch counters and debug probes
//
// This package is cross-platform and has no dependency on the dispatch
// loops; workers feed it, tools read it.
package control
