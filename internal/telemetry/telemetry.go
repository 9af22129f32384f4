// Package telemetry carries the periodic status snapshot from the control
// loop to its observers: the console status line and the HTTP status
// endpoint.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/driptide/irrigationd/internal/controller"
)

// Snapshot is one observation of the control loop, taken right after an
// evaluation so it is never staler than one sampling tick.
type Snapshot struct {
	State        controller.State
	Raw          int
	Average      int
	DryThreshold int
	WetThreshold int
	TankOK       bool
	PumpOn       bool
	Elapsed      time.Duration
	At           time.Time
}

// Line renders the snapshot as the console status line.
func (s Snapshot) Line() string {
	tank := "OK"
	if !s.TankOK {
		tank = "EMPTY"
	}
	pump := "OFF"
	if s.PumpOn {
		pump = "ON"
	}
	return fmt.Sprintf("STATE=%s RAW=%d AVG=%d DRY=%d WET=%d TANK=%s PUMP=%s ELAPSE=%dms",
		s.State, s.Raw, s.Average, s.DryThreshold, s.WetThreshold, tank, pump, s.Elapsed.Milliseconds())
}

// Tracker holds the latest snapshot for readers outside the control loop.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker seeds the tracker so observers see sane values before the
// first sampling tick lands.
func NewTracker(initial Snapshot) *Tracker {
	return &Tracker{snap: initial}
}

// Update replaces the held snapshot. Called by the engine goroutine only.
func (t *Tracker) Update(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = snap
}

// Snapshot returns a copy of the latest snapshot.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
