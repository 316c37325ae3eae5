// Package quality computes movement-quality sub-scores from preprocessed
// kinematics. Each sub-score is an independent computation normalized to
// [0,1] through a bounded mapping, with a documented neutral fallback when
// the input carries too little evidence to judge: absence of data is never
// scored as a fault.
package quality

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"

	"github.com/stepflow/stepflow/internal/domain/kinematics"
	"github.com/stepflow/stepflow/internal/domain/model"
)

// Default scorer configuration constants.
const (
	// defaultJerkScale is the mean jerk magnitude (units/s^3) at which
	// smoothness drops to 0.5.
	defaultJerkScale = 50.0

	// defaultEnergyScale is the mean speed (units/s) that saturates the
	// energy score; typical motion lands near mid-range.
	defaultEnergyScale = 10.0

	// defaultMinCycleSamples is the minimum energy-signal length before the
	// cycle-consistency statistic is considered meaningful.
	defaultMinCycleSamples = 16

	// neutralEnergy is reported when no velocity could be computed.
	neutralEnergy = 0.5

	// neutralForm is the neutral-high fallback when posture can be judged
	// neither from confidence nor from geometry; sparse evidence must not
	// read as bad posture.
	neutralForm = 0.8

	// formJitterScale converts the mean relative variation of inter-joint
	// distances into the postural penalty of the geometry fallback.
	formJitterScale = 10.0

	minCycleLag = 2
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithJerkScale sets the jerk normalization scale for smoothness.
func WithJerkScale(scale float64) Option {
	return func(s *Scorer) {
		if scale > 0 {
			s.jerkScale = scale
		}
	}
}

// WithEnergyScale sets the speed normalization scale for energy.
func WithEnergyScale(scale float64) Option {
	return func(s *Scorer) {
		if scale > 0 {
			s.energyScale = scale
		}
	}
}

// WithMinCycleSamples sets the minimum signal length for cycle analysis.
func WithMinCycleSamples(n int) Option {
	return func(s *Scorer) {
		if n > minCycleLag {
			s.minCycleSamples = n
		}
	}
}

// Scorer computes movement-quality metrics. Construction is cheap and Score
// holds no state between calls.
type Scorer struct {
	jerkScale       float64
	energyScale     float64
	minCycleSamples int
}

// NewScorer creates a scorer with configuration options applied over the
// documented defaults.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		jerkScale:       defaultJerkScale,
		energyScale:     defaultEnergyScale,
		minCycleSamples: defaultMinCycleSamples,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes all four sub-scores from a preprocessed motion. The four
// computations are independent: degenerate input in one never propagates a
// fault into the others.
func (s *Scorer) Score(series *kinematics.Series) model.MovementMetrics {
	return model.MovementMetrics{
		SmoothnessScore: s.smoothness(series),
		AccuracyScore:   s.accuracy(series),
		EnergyScore:     s.energy(series),
		FormScore:       s.form(series),
	}
}

// smoothness is an inverse function of mean jerk magnitude across joints and
// frames. With no jerk samples (fewer than four frames, or all gaps) there is
// too little data to penalize and the score is 1.0.
func (s *Scorer) smoothness(series *kinematics.Series) float64 {
	jerks := series.JerkMagnitudes()
	if len(jerks) == 0 {
		return 1.0
	}
	return clamp01(1.0 / (1.0 + stat.Mean(jerks, nil)/s.jerkScale))
}

// energy is the mean speed across joints and frames scaled against the
// expected reference range. With no computable velocity the score is the
// neutral mid-range value rather than zero.
func (s *Scorer) energy(series *kinematics.Series) float64 {
	speeds := series.Speeds()
	if len(speeds) == 0 {
		return neutralEnergy
	}
	return clamp01(stat.Mean(speeds, nil) / s.energyScale)
}

// accuracy measures movement consistency from two signals: stability of the
// body's radial shape around its center across frames, and, when the motion
// is long enough, repeatability of the energy signal across cycles via its
// normalized autocorrelation peak. Insufficient data defaults to 1.0.
func (s *Scorer) accuracy(series *kinematics.Series) float64 {
	shape, ok := shapeConsistency(series)
	if !ok {
		return 1.0
	}
	if cycle, ok := s.cycleConsistency(series.EnergySignal()); ok {
		return clamp01((shape + cycle) / 2)
	}
	return clamp01(shape)
}

// shapeConsistency computes the inverse of the mean per-frame spread of
// keypoint distances around the body center. The second return is false when
// no frame carries keypoints.
func shapeConsistency(series *kinematics.Series) (float64, bool) {
	var spreads []float64
	for i := 0; i < series.FrameCount(); i++ {
		var xs, ys, dists []float64
		for _, joint := range series.Joints {
			if p := joint.Position[i]; p.Valid {
				xs = append(xs, p.X)
				ys = append(ys, p.Y)
			}
		}
		if len(xs) == 0 {
			continue
		}
		cx, cy := stat.Mean(xs, nil), stat.Mean(ys, nil)
		for k := range xs {
			dists = append(dists, math.Hypot(xs[k]-cx, ys[k]-cy))
		}
		spreads = append(spreads, stat.StdDev(dists, nil))
	}
	if len(spreads) == 0 {
		return 0, false
	}
	// StdDev of a single distance is NaN; treat those frames as zero spread.
	avg := 0.0
	for _, sp := range spreads {
		if !math.IsNaN(sp) {
			avg += sp
		}
	}
	avg /= float64(len(spreads))
	return 1.0 / (1.0 + avg), true
}

// cycleConsistency estimates how repeatable the motion is across cycles from
// the peak of the mean-removed energy signal's normalized autocorrelation.
// The second return is false when the signal is too short or carries no
// variance to correlate.
func (s *Scorer) cycleConsistency(energy []float64) (float64, bool) {
	if len(energy) < s.minCycleSamples {
		return 0, false
	}

	centered := make([]float64, len(energy))
	mean := stat.Mean(energy, nil)
	for i, e := range energy {
		centered[i] = e - mean
	}

	corr := autocorrelation(centered)
	if corr[0] <= 0 {
		return 0, false // flat signal, nothing to correlate
	}

	peak := 0.0
	for lag := minCycleLag; lag <= len(energy)/2; lag++ {
		if v := corr[lag] / corr[0]; v > peak {
			peak = v
		}
	}
	return clamp01(peak), true
}

// autocorrelation computes the raw autocorrelation of x for lags
// [0, len(x)) via FFT, zero-padded to avoid circular wrap-around.
func autocorrelation(x []float64) []float64 {
	size := nextPow2(2 * len(x))
	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = c * cmplx.Conj(c)
	}
	inverse := fft.IFFT(spectrum)

	corr := make([]float64, len(x))
	for i := range corr {
		corr[i] = real(inverse[i])
	}
	return corr
}

// form scores postural quality from detection confidence: the mean reported
// keypoint confidence across the motion. Confidence-free input is judged by
// the steadiness of the body's inter-joint distances instead, and only when
// that carries no evidence either does the score fall back to neutral-high.
func (s *Scorer) form(series *kinematics.Series) float64 {
	sum := 0.0
	count := 0
	for _, joint := range series.Joints {
		for _, c := range joint.Confidence {
			if c.Valid {
				sum += c.Value
				count++
			}
		}
	}
	if count > 0 {
		return clamp01(sum / float64(count))
	}
	if stability, ok := boneStability(series); ok {
		return stability
	}
	return neutralForm
}

// boneStability scores posture from geometry: the relative variation of each
// inter-joint distance across frames, averaged over joint pairs. A held body
// shape keeps those distances steady; collapsing posture does not. The second
// return is false when no joint pair co-occurs in at least two frames.
func boneStability(series *kinematics.Series) (float64, bool) {
	var variations []float64
	for j := 0; j < len(series.Joints); j++ {
		for k := j + 1; k < len(series.Joints); k++ {
			var dists []float64
			for i := 0; i < series.FrameCount(); i++ {
				pj, pk := series.Joints[j].Position[i], series.Joints[k].Position[i]
				if !pj.Valid || !pk.Valid {
					continue
				}
				dx, dy, dz := pj.X-pk.X, pj.Y-pk.Y, pj.Z-pk.Z
				dists = append(dists, math.Sqrt(dx*dx+dy*dy+dz*dz))
			}
			if len(dists) < 2 {
				continue
			}
			mean, std := stat.MeanStdDev(dists, nil)
			if mean <= 0 {
				continue
			}
			variations = append(variations, std/mean)
		}
	}
	if len(variations) == 0 {
		return 0, false
	}
	return clamp01(1.0 / (1.0 + stat.Mean(variations, nil)*formJitterScale)), true
}

func nextPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
