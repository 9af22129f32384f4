package status

import (
	"time"

	"github.com/driptide/irrigationd/internal/telemetry"
)

type (
	SystemStatus struct {
		State          string    `json:"state"`
		Raw            int       `json:"raw"`
		Average        int       `json:"average"`
		DryThreshold   int       `json:"dry_threshold"`
		WetThreshold   int       `json:"wet_threshold"`
		TankOK         bool      `json:"tank_ok"`
		PumpOn         bool      `json:"pump_on"`
		ElapsedSeconds float64   `json:"elapsed_seconds"`
		ReadAt         time.Time `json:"read_at"`
	}

	Handler struct {
		tracker        *telemetry.Tracker
		originPatterns []string
	}
)

func buildSystemStatus(snapshot telemetry.Snapshot) SystemStatus {
	return SystemStatus{
		State:          string(snapshot.State),
		Raw:            snapshot.Raw,
		Average:        snapshot.Average,
		DryThreshold:   snapshot.DryThreshold,
		WetThreshold:   snapshot.WetThreshold,
		TankOK:         snapshot.TankOK,
		PumpOn:         snapshot.PumpOn,
		ElapsedSeconds: snapshot.Elapsed.Seconds(),
		ReadAt:         snapshot.At,
	}
}
