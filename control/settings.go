// control/settings.go
// Author: momentics <momentics@gmail.com>
//
// Typed build/runtime settings for the threadlet core, loadable from a
// TOML file with validated defaults. These are the knobs the original
// design fixed at compile time: link parameters, queue depths, worker
// names, and which management front end the build carries.

package control

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Front-end selection values for Settings.FrontEnd.
const (
	FrontEndNone = ""
	FrontEndCLI  = "cli"
	FrontEndNCP  = "ncp"
)

// Settings carries the fixed configuration both workers are built with.
type Settings struct {
	PanID   uint16 `toml:"pan_id"`
	Channel uint8  `toml:"channel"`

	EventQueueLen int `toml:"event_queue_len"`
	TaskQueueLen  int `toml:"task_queue_len"`

	EventWorkerName string `toml:"event_worker_name"`
	TaskWorkerName  string `toml:"task_worker_name"`

	// EventCPU/TaskCPU pin the worker's OS thread to a logical CPU.
	// Negative disables pinning.
	EventCPU int `toml:"event_cpu"`
	TaskCPU  int `toml:"task_cpu"`

	// FrontEnd selects the management surface initialized at bring-up:
	// "cli", "ncp", or empty for none.
	FrontEnd    string `toml:"front_end"`
	Diagnostics bool   `toml:"diagnostics"`

	// SettleDelay is the fixed pause before the Event Worker creates the
	// stack instance, giving collaborators time to finish their own
	// startup. Not a correctness requirement.
	SettleDelay time.Duration `toml:"-"`

	// SerialSlots and SerialSlotSize dimension the serial receive pool.
	SerialSlots    int `toml:"serial_slots"`
	SerialSlotSize int `toml:"serial_slot_size"`
}

// DefaultSettings returns the settings a build without a config file runs with.
func DefaultSettings() Settings {
	return Settings{
		PanID:           0xbeef,
		Channel:         26,
		EventQueueLen:   16,
		TaskQueueLen:    4,
		EventWorkerName: "ot-event",
		TaskWorkerName:  "ot-task",
		EventCPU:        -1,
		TaskCPU:         -1,
		FrontEnd:        FrontEndCLI,
		SettleDelay:     100 * time.Millisecond,
		SerialSlots:     2,
		SerialSlotSize:  256,
	}
}

type fileSettings struct {
	Settings
	SettleDelay string `toml:"settle_delay"`
}

// LoadSettings reads a TOML settings file, applying defaults for any key
// the file leaves out.
func LoadSettings(path string) (Settings, error) {
	raw := fileSettings{Settings: DefaultSettings()}
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	cfg := raw.Settings
	if meta.IsDefined("settle_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SettleDelay))
		if err != nil {
			return Settings{}, fmt.Errorf("parse settle_delay: %w", err)
		}
		cfg.SettleDelay = d
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Validate rejects settings the dispatch core cannot run with.
func (s Settings) Validate() error {
	if s.EventQueueLen < 1 {
		return fmt.Errorf("settings: event_queue_len %d out of range", s.EventQueueLen)
	}
	if s.TaskQueueLen < 1 {
		return fmt.Errorf("settings: task_queue_len %d out of range", s.TaskQueueLen)
	}
	if s.Channel < 11 || s.Channel > 26 {
		return fmt.Errorf("settings: channel %d outside 802.15.4 range 11..26", s.Channel)
	}
	switch s.FrontEnd {
	case FrontEndNone, FrontEndCLI, FrontEndNCP:
	default:
		return fmt.Errorf("settings: unknown front_end %q", s.FrontEnd)
	}
	if s.SerialSlots < 1 || s.SerialSlotSize < 1 {
		return fmt.Errorf("settings: serial pool %dx%d out of range", s.SerialSlots, s.SerialSlotSize)
	}
	return nil
}
