// Package params persists the operator-tunable thresholds across restarts.
package params

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// formatMarker identifies a file written by this store. Files without it are
// ignored in favor of the compiled-in defaults.
const formatMarker = 0xBEEF

// Limits is the persisted threshold pair.
type Limits struct {
	Dry int `json:"dry"`
	Wet int `json:"wet"`
}

type fileLayout struct {
	Marker int `json:"marker"`
	Limits
}

// Store reads and writes the threshold file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted limits. ok is false when the file is absent,
// unreadable, malformed or carries the wrong marker; the caller keeps its
// defaults in every one of those cases.
func (s *Store) Load() (Limits, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read threshold file", "path", s.path, "error", err)
		}
		return Limits{}, false
	}

	var f fileLayout
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("threshold file is malformed, using defaults", "path", s.path, "error", err)
		return Limits{}, false
	}
	if f.Marker != formatMarker {
		slog.Warn("threshold file marker mismatch, using defaults", "path", s.path, "marker", f.Marker)
		return Limits{}, false
	}

	return f.Limits, true
}

// Save writes both limits plus the marker. The write lands in a temp file in
// the same directory first and is renamed into place, so a crash mid-write
// cannot leave a torn file behind.
func (s *Store) Save(l Limits) error {
	data, err := json.MarshalIndent(fileLayout{Marker: formatMarker, Limits: l}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode thresholds: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
