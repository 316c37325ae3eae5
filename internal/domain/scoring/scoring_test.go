package scoring_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/stepflow/stepflow/internal/domain/model"
	"github.com/stepflow/stepflow/internal/domain/scoring"
)

func TestWeights(t *testing.T) {
	Convey("Given the default weights", t, func() {
		w := scoring.DefaultWeights()

		Convey("Then they form a valid policy", func() {
			So(w.Validate(), ShouldBeNil)
		})

		Convey("And they sum to one", func() {
			sum := w.Sync + w.OnBeat + w.Smoothness + w.Accuracy + w.Energy + w.Form
			So(sum, ShouldAlmostEqual, 1.0, 1e-12)
		})
	})

	Convey("Given an invalid weight set", t, func() {
		Convey("When a weight is negative", func() {
			w := scoring.DefaultWeights()
			w.Sync = -0.1
			w.OnBeat = 0.35

			So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
		})

		Convey("When the weights do not sum to one", func() {
			w := scoring.Weights{Sync: 0.5, Accuracy: 0.4}

			So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
		})
	})
}

func TestNewAggregator(t *testing.T) {
	Convey("Given aggregator options", t, func() {
		Convey("When valid weights are supplied", func() {
			w := scoring.Weights{Sync: 1}
			a := scoring.NewAggregator(scoring.WithWeights(w))

			So(a.Weights(), ShouldResemble, w)
		})

		Convey("When invalid weights are supplied", func() {
			a := scoring.NewAggregator(scoring.WithWeights(scoring.Weights{Sync: 2}))

			Convey("Then the defaults are kept", func() {
				So(a.Weights(), ShouldResemble, scoring.DefaultWeights())
			})
		})
	})
}

func TestOverall(t *testing.T) {
	Convey("Given the default aggregator", t, func() {
		a := scoring.NewAggregator()

		Convey("When every sub-score is perfect", func() {
			timing := model.TimingMetrics{SyncScore: 1, OnBeatPercentage: 100}
			movement := model.MovementMetrics{
				SmoothnessScore: 1,
				AccuracyScore:   1,
				EnergyScore:     1,
				FormScore:       1,
			}

			So(a.Overall(timing, movement), ShouldAlmostEqual, 100.0, 1e-9)
		})

		Convey("When every sub-score is zero", func() {
			So(a.Overall(model.TimingMetrics{}, model.MovementMetrics{}), ShouldEqual, 0)
		})

		Convey("When the metrics are the no-evidence defaults", func() {
			timing := model.TimingMetrics{SyncScore: 1, OnBeatPercentage: 0}
			movement := model.MovementMetrics{
				SmoothnessScore: 1,
				AccuracyScore:   1,
				EnergyScore:     0.5,
				FormScore:       0.8,
			}

			// 0.20 + 0 + 0.20 + 0.25 + 0.075 + 0.12 = 0.845
			So(a.Overall(timing, movement), ShouldAlmostEqual, 84.5, 1e-9)
		})

		Convey("When inputs exceed their nominal range", func() {
			timing := model.TimingMetrics{SyncScore: 5, OnBeatPercentage: 500}
			movement := model.MovementMetrics{
				SmoothnessScore: 5,
				AccuracyScore:   5,
				EnergyScore:     5,
				FormScore:       5,
			}

			Convey("Then the score is clamped to the scale", func() {
				So(a.Overall(timing, movement), ShouldEqual, 100)
			})
		})
	})

	Convey("Given a single-metric weighting policy", t, func() {
		a := scoring.NewAggregator(scoring.WithWeights(scoring.Weights{OnBeat: 1}))

		Convey("Then the on-beat percentage is normalized before weighting", func() {
			timing := model.TimingMetrics{OnBeatPercentage: 40}
			So(a.Overall(timing, model.MovementMetrics{}), ShouldAlmostEqual, 40.0, 1e-9)
		})
	})
}
