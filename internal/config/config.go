// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with documented defaults.
// - Layered loading lives in Load (defaults -> file -> env).
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"

	"github.com/stepflow/stepflow/internal/domain/scoring"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// Version is reported by the root and health endpoints.
	Version string `koanf:"version"`

	// Score weights. Must be non-negative and sum to 1.
	WeightSync       float64 `koanf:"weight_sync"`
	WeightOnBeat     float64 `koanf:"weight_on_beat"`
	WeightSmoothness float64 `koanf:"weight_smoothness"`
	WeightAccuracy   float64 `koanf:"weight_accuracy"`
	WeightEnergy     float64 `koanf:"weight_energy"`
	WeightForm       float64 `koanf:"weight_form"`

	// MinBeatSpacingSec is the minimum interval between detected movement beats.
	MinBeatSpacingSec float64 `koanf:"min_beat_spacing_sec"`

	// PeakProminenceQuantile sets the adaptive beat-detection threshold.
	PeakProminenceQuantile float64 `koanf:"peak_prominence_quantile"`

	// OnBeatToleranceDiv divides the beat interval into the on-beat window.
	OnBeatToleranceDiv float64 `koanf:"on_beat_tolerance_div"`

	// JerkScale and EnergyScale normalize the smoothness and energy scores.
	JerkScale   float64 `koanf:"jerk_scale"`
	EnergyScale float64 `koanf:"energy_scale"`

	// HighPerformanceThreshold is the bar for the positive general feedback.
	HighPerformanceThreshold float64 `koanf:"high_performance_threshold"`
}

// New creates a Config with the documented defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":8000",
		Version:                  "1.0.0",
		WeightSync:               0.20,
		WeightOnBeat:             0.05,
		WeightSmoothness:         0.20,
		WeightAccuracy:           0.25,
		WeightEnergy:             0.15,
		WeightForm:               0.15,
		MinBeatSpacingSec:        0.25,
		PeakProminenceQuantile:   0.75,
		OnBeatToleranceDiv:       8,
		JerkScale:                50,
		EnergyScale:              10,
		HighPerformanceThreshold: 0.85,
	}
}

// Weights assembles the aggregator weighting policy from the flat fields.
func (c *Config) Weights() scoring.Weights {
	return scoring.Weights{
		Sync:       c.WeightSync,
		OnBeat:     c.WeightOnBeat,
		Smoothness: c.WeightSmoothness,
		Accuracy:   c.WeightAccuracy,
		Energy:     c.WeightEnergy,
		Form:       c.WeightForm,
	}
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MinBeatSpacingSec <= 0 {
		return fmt.Errorf("%w: min_beat_spacing_sec must be positive", ErrInvalidConfig)
	}
	if c.PeakProminenceQuantile <= 0 || c.PeakProminenceQuantile >= 1 {
		return fmt.Errorf("%w: peak_prominence_quantile must be in (0,1)", ErrInvalidConfig)
	}
	if c.OnBeatToleranceDiv < 1 {
		return fmt.Errorf("%w: on_beat_tolerance_div must be >= 1", ErrInvalidConfig)
	}
	if c.JerkScale <= 0 || c.EnergyScale <= 0 {
		return fmt.Errorf("%w: jerk_scale and energy_scale must be positive", ErrInvalidConfig)
	}
	if c.HighPerformanceThreshold <= 0 || c.HighPerformanceThreshold > 1 {
		return fmt.Errorf("%w: high_performance_threshold must be in (0,1]", ErrInvalidConfig)
	}
	return nil
}
