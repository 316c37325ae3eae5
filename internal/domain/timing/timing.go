// Package timing detects movement beats in a motion-energy signal and
// compares their timing against the musical beat grid implied by a BPM.
package timing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/stepflow/stepflow/internal/domain/kinematics"
	"github.com/stepflow/stepflow/internal/domain/model"
)

// Default analyzer configuration constants.
const (
	// defaultMinBeatSpacing rejects peaks closer than 250ms apart, a 240 BPM
	// ceiling on detectable movement beats.
	defaultMinBeatSpacing = 0.25

	// defaultProminenceQuantile sets the adaptive peak threshold at the 75th
	// percentile of the energy signal.
	defaultProminenceQuantile = 0.75

	// defaultOnBeatToleranceDiv counts a beat as on-beat when its lag is
	// within beatInterval/8.
	defaultOnBeatToleranceDiv = 8.0

	// prominenceMargin is the relative margin a peak must clear above the
	// prominence threshold. Samples tied with the threshold, or above it only
	// through numerical jitter, are baseline rather than beats.
	prominenceMargin = 0.05

	secondsPerMinute = 60.0
	millisPerSecond  = 1000.0
	percentScale     = 100.0
	minPeakSignalLen = 3
	perfectSyncScore = 1.0
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithMinBeatSpacing sets the minimum interval between accepted beats.
func WithMinBeatSpacing(seconds float64) Option {
	return func(a *Analyzer) {
		if seconds > 0 {
			a.minBeatSpacing = seconds
		}
	}
}

// WithProminenceQuantile sets the quantile of the energy signal used as the
// adaptive peak threshold. Must be in (0,1).
func WithProminenceQuantile(q float64) Option {
	return func(a *Analyzer) {
		if q > 0 && q < 1 {
			a.prominenceQuantile = q
		}
	}
}

// WithOnBeatToleranceDiv sets the divisor of the beat interval that defines
// the on-beat window. Larger values tighten the window.
func WithOnBeatToleranceDiv(div float64) Option {
	return func(a *Analyzer) {
		if div >= 1 {
			a.onBeatToleranceDiv = div
		}
	}
}

// Analyzer detects movement beats and scores their alignment to a tempo.
// The zero-cost construction is pure; Analyze holds no state between calls.
type Analyzer struct {
	minBeatSpacing     float64
	prominenceQuantile float64
	onBeatToleranceDiv float64
}

// NewAnalyzer creates an analyzer with configuration options applied over
// the documented defaults.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		minBeatSpacing:     defaultMinBeatSpacing,
		prominenceQuantile: defaultProminenceQuantile,
		onBeatToleranceDiv: defaultOnBeatToleranceDiv,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces timing metrics for a preprocessed motion. bpm <= 0 means
// no tempo reference: the metrics fall back to the documented neutral
// defaults (sync 1.0, on-beat 0, lag 0) since alignment to an undefined grid
// can neither be rewarded nor penalized. The detected movement-beat
// timestamps are returned alongside the metrics.
func (a *Analyzer) Analyze(series *kinematics.Series, bpm float64) (model.TimingMetrics, []float64) {
	beats := a.DetectBeats(series.EnergySignal(), series.Timestamps)

	if bpm <= 0 || len(beats) == 0 {
		return model.TimingMetrics{
			AvgLagMS:         0,
			SyncScore:        perfectSyncScore,
			OnBeatPercentage: 0,
		}, beats
	}

	beatInterval := secondsPerMinute / bpm
	tolerance := beatInterval / a.onBeatToleranceDiv

	// The expected grid is anchored at the first detected movement beat.
	anchor := beats[0]
	lagSum := 0.0
	onBeat := 0
	for _, t := range beats {
		gridIndex := math.Round((t - anchor) / beatInterval)
		lag := math.Abs(t - (anchor + gridIndex*beatInterval))
		lagSum += lag
		if lag <= tolerance {
			onBeat++
		}
	}

	avgLag := lagSum / float64(len(beats))
	sync := perfectSyncScore - math.Min(avgLag/beatInterval, 1)

	return model.TimingMetrics{
		AvgLagMS:         avgLag * millisPerSecond,
		SyncScore:        clamp01(sync),
		OnBeatPercentage: float64(onBeat) / float64(len(beats)) * percentScale,
	}, beats
}

// DetectBeats finds movement beats in an energy signal: samples that are
// strict local maxima, strictly above the prominence threshold by a relative
// margin, and at least the minimum spacing after the previously accepted
// beat. The margin keeps baseline samples out even when rounding in the
// energy signal makes them strict local maxima at threshold level. Returned
// values are frame timestamps, not indices, so irregular sampling is handled.
func (a *Analyzer) DetectBeats(energy, timestamps []float64) []float64 {
	if len(energy) < minPeakSignalLen || len(energy) != len(timestamps) {
		return nil
	}

	floor := a.prominenceThreshold(energy) * (1 + prominenceMargin)

	var beats []float64
	lastBeat := math.Inf(-1)
	for i := 1; i < len(energy)-1; i++ {
		if energy[i] <= energy[i-1] || energy[i] <= energy[i+1] {
			continue
		}
		if energy[i] <= floor || timestamps[i]-lastBeat < a.minBeatSpacing {
			continue
		}
		beats = append(beats, timestamps[i])
		lastBeat = timestamps[i]
	}
	return beats
}

// prominenceThreshold computes the adaptive peak threshold from the energy
// signal's empirical distribution.
func (a *Analyzer) prominenceThreshold(energy []float64) float64 {
	sorted := make([]float64, len(energy))
	copy(sorted, energy)
	sort.Float64s(sorted)
	return stat.Quantile(a.prominenceQuantile, stat.Empirical, sorted, nil)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
