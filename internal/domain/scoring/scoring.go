// Package scoring combines timing and movement metrics into the overall
// performance score.
package scoring

import (
	"fmt"
	"math"

	"github.com/stepflow/stepflow/internal/domain/model"
)

// Default scoring configuration constants.
const (
	maxScoreValue   = 100.0
	percentScale    = 100.0
	weightTolerance = 1e-9
)

// Weights assigns the relative importance of the six sub-scores. A valid set
// is non-negative and sums to 1.
type Weights struct {
	Sync       float64
	OnBeat     float64
	Smoothness float64
	Accuracy   float64
	Energy     float64
	Form       float64
}

// DefaultWeights returns the documented default weighting policy.
func DefaultWeights() Weights {
	return Weights{
		Sync:       0.20,
		OnBeat:     0.05,
		Smoothness: 0.20,
		Accuracy:   0.25,
		Energy:     0.15,
		Form:       0.15,
	}
}

// Validate reports whether the weights form a valid policy.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Sync, w.OnBeat, w.Smoothness, w.Accuracy, w.Energy, w.Form} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
		}
	}
	sum := w.Sync + w.OnBeat + w.Smoothness + w.Accuracy + w.Energy + w.Form
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights sets the weighting policy. Invalid weights are ignored and the
// defaults kept; config-level validation rejects them before this point.
func WithWeights(w Weights) Option {
	return func(a *Aggregator) {
		if w.Validate() == nil {
			a.weights = w
		}
	}
}

// Aggregator computes the overall score as a fixed weighted sum over the six
// sub-scores. It is a pure function of its inputs: no side effects, no
// randomness, no retained state.
type Aggregator struct {
	weights Weights
}

// NewAggregator creates an aggregator with configuration options applied
// over the default weights.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weights returns the active weighting policy.
func (a *Aggregator) Weights() Weights {
	return a.weights
}

// Overall combines the metric groups into a single score in [0,100]. The
// on-beat percentage enters normalized to [0,1] so all six terms share a
// scale before weighting.
func (a *Aggregator) Overall(t model.TimingMetrics, m model.MovementMetrics) float64 {
	w := a.weights
	score := w.Sync*t.SyncScore +
		w.OnBeat*t.OnBeatPercentage/percentScale +
		w.Smoothness*m.SmoothnessScore +
		w.Accuracy*m.AccuracyScore +
		w.Energy*m.EnergyScore +
		w.Form*m.FormScore
	return math.Max(0, math.Min(maxScoreValue, score*maxScoreValue))
}
