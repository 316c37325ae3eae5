// Package kinematics converts raw motion capture into per-joint time series
// of position, velocity, acceleration, and jerk.
//
// Missing keypoints never interpolate: a gap in the position series
// propagates as absent samples through every derived series, so downstream
// scoring is not biased by missing detections. Zero or negative time deltas
// are treated as zero-length steps and skipped rather than divided by.
package kinematics

import (
	"math"

	"github.com/stepflow/stepflow/internal/domain/model"
)

// Sample is one optionally-present vector sample. Valid is false where the
// value is undefined: a missing detection, or a derivative whose finite
// difference could not be formed.
type Sample struct {
	Valid   bool
	X, Y, Z float64
}

// Magnitude returns the Euclidean norm of the sample, or 0 when absent.
func (s Sample) Magnitude() float64 {
	if !s.Valid {
		return 0
	}
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// ScalarSample is one optionally-present scalar sample.
type ScalarSample struct {
	Valid bool
	Value float64
}

// JointSeries holds the kinematic series of a single joint, aligned to the
// motion's frame timestamps. All slices share the frame count as their
// length; a derivative at index i is formed from samples at i and i-1, so
// velocity/acceleration/jerk are never valid before index 1/2/3. Confidence
// carries the detector's per-frame confidence where reported.
type JointSeries struct {
	Position     []Sample
	Velocity     []Sample
	Acceleration []Sample
	Jerk         []Sample
	Confidence   []ScalarSample
}

// Series is the preprocessed form of a motion: one JointSeries per joint
// index present in at least one frame, plus the shared timestamp axis.
type Series struct {
	Timestamps []float64
	Joints     []JointSeries
}

// FrameCount returns the number of frames in the underlying motion.
func (s *Series) FrameCount() int {
	return len(s.Timestamps)
}

// JointCount returns the number of joint indices seen across all frames.
func (s *Series) JointCount() int {
	return len(s.Joints)
}

// Compute preprocesses a motion into per-joint kinematic series. A motion
// with zero frames yields an empty series; a single frame yields positions
// with all derivatives absent.
func Compute(m model.Motion) *Series {
	n := len(m.Frames)
	s := &Series{Timestamps: make([]float64, n)}
	jointCount := 0
	for i, f := range m.Frames {
		s.Timestamps[i] = f.Timestamp
		if len(f.Keypoints) > jointCount {
			jointCount = len(f.Keypoints)
		}
	}

	s.Joints = make([]JointSeries, jointCount)
	for j := range s.Joints {
		pos := make([]Sample, n)
		conf := make([]ScalarSample, n)
		for i, f := range m.Frames {
			if j >= len(f.Keypoints) {
				continue // joint absent in this frame
			}
			kp := f.Keypoints[j]
			pos[i] = Sample{Valid: true, X: kp.X, Y: kp.Y, Z: kp.Depth()}
			if kp.Confidence != nil {
				conf[i] = ScalarSample{Valid: true, Value: *kp.Confidence}
			}
		}
		vel := differentiate(pos, s.Timestamps)
		acc := differentiate(vel, s.Timestamps)
		s.Joints[j] = JointSeries{
			Position:     pos,
			Velocity:     vel,
			Acceleration: acc,
			Jerk:         differentiate(acc, s.Timestamps),
			Confidence:   conf,
		}
	}
	return s
}

// differentiate forms the backward finite difference of a sample series.
// The result at index i is defined only when both endpoints are present and
// the time delta is strictly positive.
func differentiate(values []Sample, ts []float64) []Sample {
	out := make([]Sample, len(values))
	for i := 1; i < len(values); i++ {
		if !values[i].Valid || !values[i-1].Valid {
			continue
		}
		dt := ts[i] - ts[i-1]
		if dt <= 0 {
			continue
		}
		out[i] = Sample{
			Valid: true,
			X:     (values[i].X - values[i-1].X) / dt,
			Y:     (values[i].Y - values[i-1].Y) / dt,
			Z:     (values[i].Z - values[i-1].Z) / dt,
		}
	}
	return out
}

// EnergySignal aggregates velocity magnitudes across joints into one
// movement-energy value per frame. Frames with no computable velocity
// contribute zero, keeping the signal aligned to the timestamp axis.
func (s *Series) EnergySignal() []float64 {
	energy := make([]float64, s.FrameCount())
	for _, joint := range s.Joints {
		for i, v := range joint.Velocity {
			energy[i] += v.Magnitude()
		}
	}
	return energy
}

// Speeds collects every valid per-joint velocity magnitude across the
// motion, in frame-then-joint order.
func (s *Series) Speeds() []float64 {
	var speeds []float64
	for _, joint := range s.Joints {
		for _, v := range joint.Velocity {
			if v.Valid {
				speeds = append(speeds, v.Magnitude())
			}
		}
	}
	return speeds
}

// JerkMagnitudes collects every valid per-joint jerk magnitude across the
// motion, in frame-then-joint order.
func (s *Series) JerkMagnitudes() []float64 {
	var jerks []float64
	for _, joint := range s.Joints {
		for _, j := range joint.Jerk {
			if j.Valid {
				jerks = append(jerks, j.Magnitude())
			}
		}
	}
	return jerks
}
