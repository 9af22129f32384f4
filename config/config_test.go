package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "nope.json"))

	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettingsOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	payload := `{
		"control": {"dry_threshold": 300, "wet_threshold": 380},
		"console": {"listen_address": ":7000"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, 300, settings.Control.DryThreshold)
	assert.Equal(t, 380, settings.Control.WetThreshold)
	assert.Equal(t, ":7000", settings.Console.ListenAddress)

	// sections and fields the file leaves out keep their defaults
	assert.True(t, settings.Control.LowMeansDry)
	assert.Equal(t, 15, settings.Control.FilterWindow)
	assert.Equal(t, 17, settings.Hardware.PumpPin)
	assert.Equal(t, 200*time.Millisecond, settings.Sampling.SampleInterval())
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestDurationAccessors(t *testing.T) {
	control := ControlSettings{MinRunSeconds: 20, MaxRunSeconds: 120, CooldownSeconds: 60}
	assert.Equal(t, 20*time.Second, control.MinRun())
	assert.Equal(t, 2*time.Minute, control.MaxRun())
	assert.Equal(t, time.Minute, control.Cooldown())

	sampling := SamplingSettings{SampleIntervalMs: 200, StatusIntervalMs: 2000}
	assert.Equal(t, 200*time.Millisecond, sampling.SampleInterval())
	assert.Equal(t, 2*time.Second, sampling.StatusInterval())
}
