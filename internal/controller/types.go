package controller

import (
	"errors"
	"time"
)

// State identifies the active phase of the irrigation cycle.
type State string

const (
	StateIdle     State = "IDLE"
	StateWatering State = "WATERING"
	StateCooldown State = "COOLDOWN"
)

// Reason explains why a transition fired.
type Reason string

const (
	ReasonSoilDry      Reason = "soil_dry"
	ReasonSoilWet      Reason = "soil_wet"
	ReasonTankEmpty    Reason = "tank_empty"
	ReasonMaxRuntime   Reason = "max_runtime"
	ReasonCooldownOver Reason = "cooldown_complete"
	ReasonManualStart  Reason = "manual_start"
	ReasonManualStop   Reason = "manual_stop"
)

// ErrInvalidTransition is returned when a manual start is requested from a
// state that cannot accept it.
var ErrInvalidTransition = errors.New("invalid transition")

// Config carries the tuning for one controller. Thresholds are the only
// fields that change after construction, via the setter methods.
type Config struct {
	// MaxReading is the upper bound of the raw sensor domain. Thresholds
	// are clamped into [0, MaxReading].
	MaxReading int

	DryThreshold int
	WetThreshold int

	// LowMeansDry selects the sensor polarity: true when drier soil reads
	// lower, so watering starts at avg <= dry and completes at avg >= wet.
	// False inverts both comparisons.
	LowMeansDry bool

	// MinRun guards against short-cycling: a watering cycle may not end on
	// moisture before this much time has passed.
	MinRun time.Duration

	// MaxRun is the hard ceiling on a watering cycle, independent of the
	// sensor.
	MaxRun time.Duration

	// Cooldown is the mandatory rest after every watering cycle.
	Cooldown time.Duration
}

// Decision is the outcome of one evaluation or manual request.
type Decision struct {
	State        State
	From         State
	PumpOn       bool
	Transitioned bool
	Reason       Reason
}
