package config

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/driptide/irrigationd/internal/hardware"
)

const DefaultLogLevel = slog.LevelInfo

type (
	// ControlSettings carries the watering policy. Thresholds here are the
	// compiled-in defaults; saved thresholds override them at boot.
	ControlSettings struct {
		MaxReading      int  `json:"max_reading"`
		DryThreshold    int  `json:"dry_threshold"`
		WetThreshold    int  `json:"wet_threshold"`
		LowMeansDry     bool `json:"low_means_dry"`
		FilterWindow    int  `json:"filter_window"`
		MinRunSeconds   int  `json:"min_run_seconds"`
		MaxRunSeconds   int  `json:"max_run_seconds"`
		CooldownSeconds int  `json:"cooldown_seconds"`
	}

	SamplingSettings struct {
		SampleIntervalMs int `json:"sample_interval_ms"`
		StatusIntervalMs int `json:"status_interval_ms"`
	}

	TankSettings struct {
		Enabled        bool `json:"enabled"`
		HighMeansWater bool `json:"high_means_water"`
	}

	ConsoleSettings struct {
		ListenAddress string `json:"listen_address"`
	}

	ServerSettings struct {
		OriginPatterns []string `json:"origin_patterns"`
	}

	StorageSettings struct {
		ThresholdsPath  string `json:"thresholds_path"`
		TransitionsPath string `json:"transitions_path"`
	}

	Settings struct {
		Hardware hardware.Config  `json:"hardware"`
		Control  ControlSettings  `json:"control"`
		Sampling SamplingSettings `json:"sampling"`
		Tank     TankSettings     `json:"tank"`
		Console  ConsoleSettings  `json:"console"`
		Server   ServerSettings   `json:"server"`
		Storage  StorageSettings  `json:"storage"`
	}
)

func (c ControlSettings) MinRun() time.Duration {
	return time.Duration(c.MinRunSeconds) * time.Second
}

func (c ControlSettings) MaxRun() time.Duration {
	return time.Duration(c.MaxRunSeconds) * time.Second
}

func (c ControlSettings) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (s SamplingSettings) SampleInterval() time.Duration {
	return time.Duration(s.SampleIntervalMs) * time.Millisecond
}

func (s SamplingSettings) StatusInterval() time.Duration {
	return time.Duration(s.StatusIntervalMs) * time.Millisecond
}

// DefaultSettings are the values the daemon boots with when no config file is
// present. They match a Pi wired with the pump relay on GPIO 17, the tank
// float switch on GPIO 27 and the soil probe on MCP3008 channel 0.
func DefaultSettings() Settings {
	return Settings{
		Hardware: hardware.Config{
			SoilChannel:    0,
			PumpPin:        17,
			PumpActiveHigh: true,
			TankPin:        27,
			TankPullUp:     true,
		},
		Control: ControlSettings{
			MaxReading:      1023,
			DryThreshold:    450,
			WetThreshold:    520,
			LowMeansDry:     true,
			FilterWindow:    15,
			MinRunSeconds:   20,
			MaxRunSeconds:   120,
			CooldownSeconds: 60,
		},
		Sampling: SamplingSettings{
			SampleIntervalMs: 200,
			StatusIntervalMs: 2000,
		},
		Tank: TankSettings{
			Enabled:        true,
			HighMeansWater: true,
		},
		Console: ConsoleSettings{
			ListenAddress: ":9600",
		},
		Server: ServerSettings{
			OriginPatterns: []string{"localhost:*"},
		},
		Storage: StorageSettings{
			ThresholdsPath:  "thresholds.json",
			TransitionsPath: "transitions.db",
		},
	}
}

// LoadSettings reads the JSON settings file over the defaults. A missing file
// is not an error; the daemon must come up on a bare device.
func LoadSettings(filename string) (Settings, error) {
	settings := DefaultSettings()

	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("no config file found, using defaults", "filename", filename)
			return settings, nil
		}
		return settings, err
	}

	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return settings, err
	}

	err = json.Unmarshal(bytes, &settings)
	if err != nil {
		return settings, err
	}

	return settings, nil
}
