// Package controller holds the decision engine that drives the pump through
// the idle, watering and cooldown phases with hysteresis and hard run-time
// bounds. It owns the cycle state and the tunable thresholds; hardware reads
// and writes stay with the caller.
package controller

import (
	"fmt"
	"time"
)

// Controller is not safe for concurrent use. All calls must come from the
// single goroutine that drives the control loop.
type Controller struct {
	cfg       Config
	dry       int
	wet       int
	state     State
	enteredAt time.Time
}

// New builds a controller resting in IDLE as of now. The configured
// thresholds are clamped into [0, MaxReading] on the way in.
func New(cfg Config, now time.Time) (*Controller, error) {
	if cfg.MaxReading < 1 {
		return nil, fmt.Errorf("max reading must be >= 1, got %d", cfg.MaxReading)
	}
	if cfg.MinRun < 0 {
		return nil, fmt.Errorf("minimum run time must not be negative, got %v", cfg.MinRun)
	}
	if cfg.MaxRun <= 0 {
		return nil, fmt.Errorf("maximum run time must be positive, got %v", cfg.MaxRun)
	}
	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("cooldown must not be negative, got %v", cfg.Cooldown)
	}

	c := &Controller{
		cfg:       cfg,
		state:     StateIdle,
		enteredAt: now,
	}
	c.dry = c.clamp(cfg.DryThreshold)
	c.wet = c.clamp(cfg.WetThreshold)

	return c, nil
}

// Evaluate advances the cycle by one sampling tick given the smoothed
// reading and a fresh tank answer. Within WATERING the exits are checked in
// priority order: interlock loss first, then the run-time ceiling, then
// normal completion once the minimum run time is met. Every exit from
// WATERING lands in COOLDOWN.
func (c *Controller) Evaluate(now time.Time, avg int, tankOK bool) Decision {
	switch c.state {
	case StateWatering:
		elapsed := c.Elapsed(now)
		switch {
		case !tankOK:
			return c.transition(now, StateCooldown, ReasonTankEmpty)
		case elapsed >= c.cfg.MaxRun:
			return c.transition(now, StateCooldown, ReasonMaxRuntime)
		case c.isWet(avg) && elapsed >= c.cfg.MinRun:
			return c.transition(now, StateCooldown, ReasonSoilWet)
		}

	case StateCooldown:
		if c.Elapsed(now) >= c.cfg.Cooldown {
			return c.transition(now, StateIdle, ReasonCooldownOver)
		}

	default:
		if c.isDry(avg) && tankOK {
			return c.transition(now, StateWatering, ReasonSoilDry)
		}
	}

	return c.hold()
}

// RequestStart begins a watering cycle on operator demand. Only an idle
// controller with water available may start; the successful path is
// identical to the automatic trigger.
func (c *Controller) RequestStart(now time.Time, tankOK bool) (Decision, error) {
	if c.state != StateIdle {
		return c.hold(), fmt.Errorf("%w: pump can only start from %s, not %s", ErrInvalidTransition, StateIdle, c.state)
	}
	if !tankOK {
		return c.hold(), fmt.Errorf("%w: tank is empty", ErrInvalidTransition)
	}
	return c.transition(now, StateWatering, ReasonManualStart), nil
}

// RequestStop aborts the cycle from any state, forcing the pump off and
// entering COOLDOWN without regard to the minimum or maximum run checks.
// The cooldown clock restarts even when already cooling down.
func (c *Controller) RequestStop(now time.Time) Decision {
	from := c.state
	c.state = StateCooldown
	c.enteredAt = now
	return Decision{
		State:        StateCooldown,
		From:         from,
		PumpOn:       false,
		Transitioned: from != StateCooldown,
		Reason:       ReasonManualStop,
	}
}

// SetDryThreshold stores a clamped dry trigger level and returns the value
// actually stored.
func (c *Controller) SetDryThreshold(v int) int {
	c.dry = c.clamp(v)
	return c.dry
}

// SetWetThreshold stores a clamped wet trigger level and returns the value
// actually stored.
func (c *Controller) SetWetThreshold(v int) int {
	c.wet = c.clamp(v)
	return c.wet
}

// Thresholds returns the current dry and wet trigger levels.
func (c *Controller) Thresholds() (dry, wet int) {
	return c.dry, c.wet
}

// State reports the active phase.
func (c *Controller) State() State {
	return c.state
}

// PumpShouldBeOn reports the commanded pump level for the active phase.
func (c *Controller) PumpShouldBeOn() bool {
	return c.state == StateWatering
}

// Elapsed is the time spent in the active phase, never negative.
func (c *Controller) Elapsed(now time.Time) time.Duration {
	elapsed := now.Sub(c.enteredAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ThresholdsOverlap reports whether the start and stop bands overlap for the
// configured polarity. Overlapping bands lose the hysteresis gap, so cycles
// can start already satisfied and short-cycle the pump.
func (c *Controller) ThresholdsOverlap() bool {
	if c.cfg.LowMeansDry {
		return c.dry >= c.wet
	}
	return c.dry <= c.wet
}

func (c *Controller) transition(now time.Time, next State, reason Reason) Decision {
	from := c.state
	c.state = next
	c.enteredAt = now
	return Decision{
		State:        next,
		From:         from,
		PumpOn:       next == StateWatering,
		Transitioned: true,
		Reason:       reason,
	}
}

func (c *Controller) hold() Decision {
	return Decision{
		State:  c.state,
		From:   c.state,
		PumpOn: c.state == StateWatering,
	}
}

func (c *Controller) isDry(avg int) bool {
	if c.cfg.LowMeansDry {
		return avg <= c.dry
	}
	return avg >= c.dry
}

func (c *Controller) isWet(avg int) bool {
	if c.cfg.LowMeansDry {
		return avg >= c.wet
	}
	return avg <= c.wet
}

func (c *Controller) clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > c.cfg.MaxReading {
		return c.cfg.MaxReading
	}
	return v
}
