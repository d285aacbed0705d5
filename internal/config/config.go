// Package config holds the settings of the framesim command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/framecoro/internal/logging"
)

// SimulationConfig describes one framesim run.
type SimulationConfig struct {
	Frames        int           `yaml:"frames"`         // Number of frames to simulate
	DeltaTime     float64       `yaml:"delta_time"`     // Seconds per frame
	Entities      int           `yaml:"entities"`       // Demo entities, each owning a few routines
	DespawnAfter  int           `yaml:"despawn_after"`  // Frame after which every other entity is destroyed (0 = never)
	Realtime      bool          `yaml:"realtime"`       // Drive frames from a ticker instead of a tight loop
	FrameInterval time.Duration `yaml:"frame_interval"` // Tick period in realtime mode
	StatsDB       string        `yaml:"stats_db"`       // SQLite file for statistics ("" = in memory)
	LogLevel      string        `yaml:"log_level"`      // debug, info, warn, error
	LogFormat     string        `yaml:"log_format"`     // text, json
}

// DefaultSimulationConfig returns sensible defaults.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Frames:        120,
		DeltaTime:     1.0 / 60,
		Entities:      4,
		DespawnAfter:  60,
		FrameInterval: time.Second / 60,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected so
// typos surface instead of being ignored.
func Load(path string) (SimulationConfig, error) {
	cfg := DefaultSimulationConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c SimulationConfig) Validate() error {
	var errs []error
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames must be >= 0, got %d", c.Frames))
	}
	if c.DeltaTime < 0 || math.IsNaN(c.DeltaTime) || math.IsInf(c.DeltaTime, 0) {
		errs = append(errs, fmt.Errorf("delta_time must be a finite value >= 0, got %v", c.DeltaTime))
	}
	if c.Entities < 0 {
		errs = append(errs, fmt.Errorf("entities must be >= 0, got %d", c.Entities))
	}
	if c.DespawnAfter < 0 {
		errs = append(errs, fmt.Errorf("despawn_after must be >= 0, got %d", c.DespawnAfter))
	}
	if c.Realtime && c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame_interval must be > 0 in realtime mode, got %s", c.FrameInterval))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
