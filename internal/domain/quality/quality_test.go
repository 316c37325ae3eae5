package quality_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/stepflow/stepflow/internal/domain/kinematics"
	"github.com/stepflow/stepflow/internal/domain/model"
	"github.com/stepflow/stepflow/internal/domain/quality"
)

func singleJointMotion(dt float64, xs []float64) model.Motion {
	frames := make([]model.Frame, len(xs))
	for i, x := range xs {
		frames[i] = model.Frame{
			Timestamp: float64(i) * dt,
			Keypoints: []model.Keypoint{{X: x, Y: 0}},
		}
	}
	return model.Motion{Frames: frames}
}

func confidentMotion(confidences ...float64) model.Motion {
	frames := make([]model.Frame, len(confidences))
	for i := range confidences {
		c := confidences[i]
		frames[i] = model.Frame{
			Timestamp: float64(i) * 0.1,
			Keypoints: []model.Keypoint{{X: 0.5, Y: 0.5, Confidence: &c}},
		}
	}
	return model.Motion{Frames: frames}
}

func TestScore_Degenerate(t *testing.T) {
	Convey("Given an empty motion", t, func() {
		s := quality.NewScorer()
		metrics := s.Score(kinematics.Compute(model.Motion{Frames: []model.Frame{}}))

		Convey("Then every sub-score is its documented neutral default", func() {
			So(metrics.SmoothnessScore, ShouldEqual, 1.0)
			So(metrics.AccuracyScore, ShouldEqual, 1.0)
			So(metrics.EnergyScore, ShouldEqual, 0.5)
			So(metrics.FormScore, ShouldEqual, 0.8)
		})
	})

	Convey("Given a single-frame motion with a confident keypoint", t, func() {
		s := quality.NewScorer()
		metrics := s.Score(kinematics.Compute(confidentMotion(0.9)))

		Convey("Then derivative-dependent scores take their no-data defaults", func() {
			So(metrics.SmoothnessScore, ShouldEqual, 1.0)
			So(metrics.AccuracyScore, ShouldEqual, 1.0)
			So(metrics.EnergyScore, ShouldEqual, 0.5)
		})

		Convey("And form follows the reported confidence", func() {
			So(metrics.FormScore, ShouldAlmostEqual, 0.9, 1e-9)
		})
	})
}

func TestScore_Bounds(t *testing.T) {
	Convey("Given wildly varying motions", t, func() {
		s := quality.NewScorer()
		motions := []model.Motion{
			singleJointMotion(1.0/30, []float64{0, 10, -10, 30, -30, 100}),
			singleJointMotion(1.0/30, []float64{0, 0.001, 0.002, 0.003}),
			singleJointMotion(1.0, []float64{0, 1000, -1000, 1000}),
		}

		Convey("Then every sub-score stays in [0,1]", func() {
			for _, m := range motions {
				metrics := s.Score(kinematics.Compute(m))
				for _, v := range []float64{
					metrics.SmoothnessScore,
					metrics.AccuracyScore,
					metrics.EnergyScore,
					metrics.FormScore,
				} {
					So(v, ShouldBeBetweenOrEqual, 0, 1)
				}
			}
		})
	})
}

func TestSmoothness(t *testing.T) {
	Convey("Given a constant-velocity motion", t, func() {
		s := quality.NewScorer()
		xs := make([]float64, 20)
		for i := range xs {
			xs[i] = float64(i) * 0.1
		}
		smooth := s.Score(kinematics.Compute(singleJointMotion(1.0/30, xs)))

		Convey("Then zero jerk scores perfect smoothness", func() {
			So(smooth.SmoothnessScore, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("And a jerky motion with identical endpoints scores strictly lower", func() {
			jerky := make([]float64, 20)
			for i := range jerky {
				jerky[i] = float64(i) * 0.1
				if i%2 == 1 {
					jerky[i] += 0.5 // abrupt frame-to-frame jumps
				}
			}
			jerky[0] = xs[0]
			jerky[len(jerky)-1] = xs[len(xs)-1]
			jerkyMetrics := s.Score(kinematics.Compute(singleJointMotion(1.0/30, jerky)))
			So(jerkyMetrics.SmoothnessScore, ShouldBeLessThan, smooth.SmoothnessScore)
		})
	})

	Convey("Given two motions with increasing jerk", t, func() {
		s := quality.NewScorer()
		withJumps := func(amplitude float64) model.Motion {
			xs := make([]float64, 20)
			for i := range xs {
				if i%2 == 1 {
					xs[i] = amplitude
				}
			}
			return singleJointMotion(1.0/30, xs)
		}

		Convey("Then higher mean jerk never increases smoothness", func() {
			small := s.Score(kinematics.Compute(withJumps(0.1))).SmoothnessScore
			large := s.Score(kinematics.Compute(withJumps(1.0))).SmoothnessScore
			So(large, ShouldBeLessThan, small)
		})
	})
}

func TestEnergy(t *testing.T) {
	Convey("Given a motion at a known constant speed", t, func() {
		s := quality.NewScorer()

		atSpeed := func(speed float64) model.MovementMetrics {
			xs := make([]float64, 10)
			for i := range xs {
				xs[i] = float64(i) * speed * 0.1 // dt=0.1
			}
			return s.Score(kinematics.Compute(singleJointMotion(0.1, xs)))
		}

		Convey("Then mean speed is scaled against the reference range", func() {
			So(atSpeed(5).EnergyScore, ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("And the score saturates instead of growing unbounded", func() {
			So(atSpeed(50).EnergyScore, ShouldEqual, 1.0)
		})
	})
}

func TestAccuracy(t *testing.T) {
	Convey("Given a rigid two-joint body translating across frames", t, func() {
		s := quality.NewScorer()
		frames := make([]model.Frame, 8)
		for i := range frames {
			off := float64(i) * 0.05
			frames[i] = model.Frame{
				Timestamp: float64(i) * 0.1,
				Keypoints: []model.Keypoint{
					{X: off, Y: 0},
					{X: off + 0.4, Y: 0},
				},
			}
		}
		metrics := s.Score(kinematics.Compute(model.Motion{Frames: frames}))

		Convey("Then a stable body shape scores full consistency", func() {
			So(metrics.AccuracyScore, ShouldAlmostEqual, 1.0, 1e-9)
		})
	})

	Convey("Given a long periodic motion", t, func() {
		s := quality.NewScorer()
		xs := make([]float64, 64)
		x := 0.0
		for i := 1; i < len(xs); i++ {
			speed := 0.5
			if i%8 == 0 {
				speed = 5.0 // one sharp move per cycle
			}
			x += speed / 30
			xs[i] = x
		}
		metrics := s.Score(kinematics.Compute(singleJointMotion(1.0/30, xs)))

		Convey("Then cycle repeatability keeps accuracy high", func() {
			So(metrics.AccuracyScore, ShouldBeGreaterThan, 0.8)
			So(metrics.AccuracyScore, ShouldBeLessThanOrEqualTo, 1.0)
		})
	})
}

func TestForm(t *testing.T) {
	Convey("Given keypoints reporting confidence", t, func() {
		s := quality.NewScorer()
		metrics := s.Score(kinematics.Compute(confidentMotion(0.9, 0.8, 0.7)))

		Convey("Then form is the mean reported confidence", func() {
			So(metrics.FormScore, ShouldAlmostEqual, 0.8, 1e-9)
		})
	})

	Convey("Given no confidence data and a single joint", t, func() {
		s := quality.NewScorer()
		metrics := s.Score(kinematics.Compute(singleJointMotion(0.1, []float64{0, 1, 2})))

		Convey("Then form falls back to the neutral-high default", func() {
			So(metrics.FormScore, ShouldEqual, 0.8)
		})
	})

	Convey("Given confidence-free multi-joint motions", t, func() {
		s := quality.NewScorer()
		twoJoints := func(gap func(i int) float64) model.Motion {
			frames := make([]model.Frame, 8)
			for i := range frames {
				frames[i] = model.Frame{
					Timestamp: float64(i) * 0.1,
					Keypoints: []model.Keypoint{
						{X: 0.2, Y: 0.5},
						{X: 0.2 + gap(i), Y: 0.5},
					},
				}
			}
			return model.Motion{Frames: frames}
		}

		Convey("Then a held body shape scores full postural stability", func() {
			rigid := s.Score(kinematics.Compute(twoJoints(func(int) float64 { return 0.4 })))
			So(rigid.FormScore, ShouldAlmostEqual, 1.0, 1e-9)
		})

		Convey("And wobbling inter-joint distances score strictly lower", func() {
			wobble := s.Score(kinematics.Compute(twoJoints(func(i int) float64 {
				if i%2 == 0 {
					return 0.3
				}
				return 0.5
			})))
			So(wobble.FormScore, ShouldBeLessThan, 0.5)
			So(wobble.FormScore, ShouldBeGreaterThan, 0)
		})
	})
}

func TestScoreIndependence(t *testing.T) {
	Convey("Given a degenerate motion with empty keypoint lists", t, func() {
		s := quality.NewScorer()
		frames := []model.Frame{
			{Timestamp: 0, Keypoints: nil},
			{Timestamp: 0.1, Keypoints: nil},
		}
		metrics := s.Score(kinematics.Compute(model.Motion{Frames: frames}))

		Convey("Then every sub-score resolves to its own fallback without fault", func() {
			So(metrics.SmoothnessScore, ShouldEqual, 1.0)
			So(metrics.AccuracyScore, ShouldEqual, 1.0)
			So(metrics.EnergyScore, ShouldEqual, 0.5)
			So(metrics.FormScore, ShouldEqual, 0.8)
		})
	})
}
