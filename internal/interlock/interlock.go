// Package interlock evaluates the tank-level safety condition that gates
// every watering cycle.
package interlock

import "log/slog"

// Config fixes the tank switch behavior at construction time.
type Config struct {
	// Enabled wires the switch into the decision; when false the tank is
	// treated as always holding water.
	Enabled bool

	// HighMeansWater selects the signal polarity: true reads a high level
	// as "water present", false reads a low level that way.
	HighMeansWater bool
}

// Interlock answers the water-present predicate from a raw digital signal.
type Interlock struct {
	cfg    Config
	read   func() (bool, error)
	lastOK bool
}

// New creates an interlock over the given raw signal source.
func New(cfg Config, read func() (bool, error)) *Interlock {
	return &Interlock{cfg: cfg, read: read, lastOK: true}
}

// HasWater reports whether the tank currently holds water. The signal is read
// fresh on every call, never cached between evaluations; a failed read holds
// the last known answer rather than halting the control loop.
func (i *Interlock) HasWater() bool {
	if !i.cfg.Enabled {
		return true
	}

	level, err := i.read()
	if err != nil {
		slog.Warn("tank switch read failed, holding last known level", "error", err, "has_water", i.lastOK)
		return i.lastOK
	}

	i.lastOK = level == i.cfg.HighMeansWater
	return i.lastOK
}
