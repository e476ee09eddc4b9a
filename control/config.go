// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Live settings store with reload propagation. Holds the Settings
// snapshot a running system was built from and lets operators re-read
// the TOML file; listeners receive each validated snapshot so the parts
// that can retune at runtime (link parameters) pick up the change.

package control

import "sync"

// ConfigStore holds the current validated Settings and notifies
// listeners whenever a new snapshot is applied.
type ConfigStore struct {
	mu        sync.RWMutex
	current   Settings
	listeners []func(Settings)
}

// NewConfigStore seeds a store with an initial settings snapshot.
func NewConfigStore(initial Settings) *ConfigStore {
	return &ConfigStore{current: initial}
}

// Current returns the settings snapshot the system currently runs with.
func (cs *ConfigStore) Current() Settings {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.current
}

// OnReload registers a listener called with every applied snapshot.
// Listeners run synchronously on the reloading goroutine, in
// registration order.
func (cs *ConfigStore) OnReload(fn func(Settings)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// Reload re-reads the TOML file at path and applies the result. On any
// load or validation error the current snapshot is left untouched.
func (cs *ConfigStore) Reload(path string) (Settings, error) {
	cfg, err := LoadSettings(path)
	if err != nil {
		return Settings{}, err
	}
	return cfg, cs.Apply(cfg)
}

// Apply validates cfg, makes it the current snapshot, and notifies
// listeners. Structural knobs (queue depths, worker names, pool sizes)
// only take effect on the next Start; listeners handle the rest.
func (cs *ConfigStore) Apply(cfg Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.current = cfg
	fns := make([]func(Settings), len(cs.listeners))
	copy(fns, cs.listeners)
	cs.mu.Unlock()

	for _, fn := range fns {
		fn(cfg)
	}
	return nil
}
