// Package engine runs the control loop. One goroutine owns the controller,
// the filter and the pump; console commands reach it through a request
// channel, so command handling, sampling and status emission stay strictly
// ordered.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/driptide/irrigationd/internal/command"
	"github.com/driptide/irrigationd/internal/controller"
	"github.com/driptide/irrigationd/internal/filter"
	"github.com/driptide/irrigationd/internal/hardware"
	"github.com/driptide/irrigationd/internal/history"
	"github.com/driptide/irrigationd/internal/interlock"
	"github.com/driptide/irrigationd/internal/params"
	"github.com/driptide/irrigationd/internal/telemetry"
)

// Broadcaster delivers a status line to every attached console session.
type Broadcaster interface {
	Broadcast(line string)
}

// Poster queues an operator alert without blocking.
type Poster interface {
	Post(message string)
}

// Config times the loop.
type Config struct {
	// SampleInterval is how often the soil probe is read and the
	// controller evaluated.
	SampleInterval time.Duration

	// StatusInterval is how often the status line goes out to the
	// attached consoles.
	StatusInterval time.Duration
}

// Deps are the collaborators the engine drives. Broadcast and Alerts may be
// nil; everything else is required.
type Deps struct {
	Kit         hardware.Kit
	Controller  *controller.Controller
	Filter      *filter.MovingAverage
	Tank        *interlock.Interlock
	Thresholds  *params.Store
	Transitions history.Store
	Tracker     *telemetry.Tracker
	Broadcast   Broadcaster
	Alerts      Poster
}

type request struct {
	cmd   command.Command
	reply chan string
}

// Engine ties the control core to the hardware and the command surfaces.
type Engine struct {
	cfg      Config
	deps     Deps
	requests chan request

	lastRaw      int
	lastStatusAt time.Time
}

// New validates the wiring and returns an engine ready to Run.
func New(cfg Config, deps Deps) (*Engine, error) {
	if cfg.SampleInterval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %v", cfg.SampleInterval)
	}
	if cfg.StatusInterval <= 0 {
		return nil, fmt.Errorf("status interval must be positive, got %v", cfg.StatusInterval)
	}
	if deps.Kit == nil || deps.Controller == nil || deps.Filter == nil ||
		deps.Tank == nil || deps.Thresholds == nil || deps.Transitions == nil || deps.Tracker == nil {
		return nil, fmt.Errorf("engine is missing a required collaborator")
	}

	return &Engine{
		cfg:      cfg,
		deps:     deps,
		requests: make(chan request, 8),
	}, nil
}

// Run drives the loop until the context ends. Whatever the exit path, the
// pump is left resting.
func (e *Engine) Run(ctx context.Context) error {
	slog.Debug(">>engine.Run")
	defer slog.Debug("<<engine.Run")

	defer func() {
		if err := e.deps.Kit.SetPump(false); err != nil {
			slog.Error("failed to rest the pump on shutdown", "error", err)
		}
	}()

	ticker := time.NewTicker(e.cfg.SampleInterval)
	defer ticker.Stop()

	e.lastStatusAt = time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil

		case req := <-e.requests:
			req.reply <- e.execute(ctx, req.cmd)

		case now := <-ticker.C:
			e.tick(ctx, now)
		}
	}
}

// Execute submits one command to the loop and waits for its reply line.
func (e *Engine) Execute(ctx context.Context, cmd command.Command) (string, error) {
	req := request{cmd: cmd, reply: make(chan string, 1)}

	select {
	case e.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case reply := <-req.reply:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// tick samples the probe, evaluates the controller and applies the outcome.
func (e *Engine) tick(ctx context.Context, now time.Time) {
	raw, err := e.deps.Kit.ReadSoil()
	if err != nil {
		slog.Warn("soil probe read failed, holding last reading", "error", err, "raw", e.lastRaw)
		raw = e.lastRaw
	}
	e.lastRaw = raw

	avg := e.deps.Filter.Observe(raw)
	tankOK := e.deps.Tank.HasWater()

	d := e.deps.Controller.Evaluate(now, avg, tankOK)
	e.applyDecision(ctx, now, d, raw, avg, tankOK)

	if now.Sub(e.lastStatusAt) >= e.cfg.StatusInterval {
		e.lastStatusAt = now
		if e.deps.Broadcast != nil {
			e.deps.Broadcast.Broadcast(e.snapshot(now, raw, avg, tankOK).Line())
		}
	}
}

// applyDecision commands the pump, refreshes the tracker and, on a
// transition, writes the history row and raises any safety alert.
func (e *Engine) applyDecision(ctx context.Context, now time.Time, d controller.Decision, raw, avg int, tankOK bool) {
	if err := e.deps.Kit.SetPump(d.PumpOn); err != nil {
		slog.Error("failed to drive the pump relay", "error", err, "on", d.PumpOn)
		e.post(fmt.Sprintf("Pump relay command failed: %v", err))
	}

	e.deps.Tracker.Update(e.snapshot(now, raw, avg, tankOK))

	if !d.Transitioned {
		return
	}

	slog.Info("state transition",
		"from", d.From,
		"to", d.State,
		"reason", d.Reason,
		"raw", raw,
		"average", avg,
		"tank_ok", tankOK)

	tr := history.Transition{
		OccurredAt: now,
		From:       d.From,
		To:         d.State,
		Reason:     d.Reason,
		Raw:        raw,
		Average:    avg,
	}
	if err := e.deps.Transitions.Record(ctx, tr); err != nil {
		slog.Error("failed to record transition", "error", err)
	}

	switch d.Reason {
	case controller.ReasonTankEmpty:
		e.post("Watering aborted: tank is empty")
	case controller.ReasonMaxRuntime:
		e.post("Watering stopped at the maximum run time with the soil still dry")
	}
}

// execute runs one console command. It is called from the loop goroutine
// only, so it may touch the controller directly.
func (e *Engine) execute(ctx context.Context, cmd command.Command) string {
	now := time.Now()

	switch cmd.Kind {
	case command.KindHelp:
		return command.HelpReply

	case command.KindStatus:
		// The tank is read fresh even between sampling ticks.
		return e.snapshot(now, e.lastRaw, e.currentAverage(), e.deps.Tank.HasWater()).Line()

	case command.KindStart:
		tankOK := e.deps.Tank.HasWater()
		d, err := e.deps.Controller.RequestStart(now, tankOK)
		if err != nil {
			slog.Info("manual start refused", "error", err)
			return command.CannotStartReply
		}
		e.applyDecision(ctx, now, d, e.lastRaw, e.currentAverage(), tankOK)
		return command.StartedReply

	case command.KindStop:
		d := e.deps.Controller.RequestStop(now)
		e.applyDecision(ctx, now, d, e.lastRaw, e.currentAverage(), e.deps.Tank.HasWater())
		return command.StoppedReply

	case command.KindSetDry:
		stored := e.deps.Controller.SetDryThreshold(cmd.Value)
		slog.Info("dry threshold set", "requested", cmd.Value, "stored", stored)
		e.warnOnOverlap()
		return command.OKReply

	case command.KindSetWet:
		stored := e.deps.Controller.SetWetThreshold(cmd.Value)
		slog.Info("wet threshold set", "requested", cmd.Value, "stored", stored)
		e.warnOnOverlap()
		return command.OKReply

	case command.KindSave:
		dry, wet := e.deps.Controller.Thresholds()
		if err := e.deps.Thresholds.Save(params.Limits{Dry: dry, Wet: wet}); err != nil {
			slog.Error("failed to save thresholds", "error", err, "dry", dry, "wet", wet)
			return "Save failed"
		}
		slog.Info("thresholds saved", "dry", dry, "wet", wet)
		return command.SavedReply

	default:
		return command.UnknownReply
	}
}

func (e *Engine) snapshot(now time.Time, raw, avg int, tankOK bool) telemetry.Snapshot {
	dry, wet := e.deps.Controller.Thresholds()
	return telemetry.Snapshot{
		State:        e.deps.Controller.State(),
		Raw:          raw,
		Average:      avg,
		DryThreshold: dry,
		WetThreshold: wet,
		TankOK:       tankOK,
		PumpOn:       e.deps.Controller.PumpShouldBeOn(),
		Elapsed:      e.deps.Controller.Elapsed(now),
		At:           now,
	}
}

func (e *Engine) currentAverage() int {
	avg, _ := e.deps.Filter.Current()
	return avg
}

func (e *Engine) warnOnOverlap() {
	if e.deps.Controller.ThresholdsOverlap() {
		dry, wet := e.deps.Controller.Thresholds()
		slog.Warn("dry and wet thresholds leave no hysteresis gap, cycles may short-cycle or only end at the run-time ceiling",
			"dry", dry, "wet", wet)
	}
}

func (e *Engine) post(message string) {
	if e.deps.Alerts != nil {
		e.deps.Alerts.Post(message)
	}
}
