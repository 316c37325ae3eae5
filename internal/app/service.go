// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stepflow/stepflow/internal/domain/feedback"
	"github.com/stepflow/stepflow/internal/domain/kinematics"
	"github.com/stepflow/stepflow/internal/domain/model"
	"github.com/stepflow/stepflow/internal/domain/quality"
	"github.com/stepflow/stepflow/internal/domain/scoring"
	"github.com/stepflow/stepflow/internal/domain/timing"
	"github.com/stepflow/stepflow/pkg/logger"
	"github.com/stepflow/stepflow/pkg/metrics"
)

const nanosPerMilli = 1e6

// Service orchestrates the motion analysis pipeline: preprocess the motion,
// run the timing and quality analyzers over the kinematic series, aggregate
// the overall score, and generate feedback.
//
// The analysis path is a pure computation over its arguments; the only
// mutable state is the running counters behind the mutex, which makes the
// service safe for concurrent HTTP dispatch without further locking.
type Service struct {
	version string
	logger  logger.Logger

	timingOpts   []timing.Option
	qualityOpts  []quality.Option
	scoringOpts  []scoring.Option
	feedbackOpts []feedback.Option

	analyzer   *timing.Analyzer
	scorer     *quality.Scorer
	aggregator *scoring.Aggregator
	generator  *feedback.Generator

	started time.Time

	mu           sync.Mutex
	predictions  uint64
	rejected     uint64
	scoreSum     float64
	lastScore    float64
	latencySumMS float64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version string reported alongside stats.
func WithVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.version = version
		}
	}
}

// WithWeights sets the score aggregation weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.scoringOpts = append(s.scoringOpts, scoring.WithWeights(w))
	}
}

// WithMinBeatSpacing sets the minimum interval between detected beats.
func WithMinBeatSpacing(seconds float64) Option {
	return func(s *Service) {
		s.timingOpts = append(s.timingOpts, timing.WithMinBeatSpacing(seconds))
	}
}

// WithProminenceQuantile sets the adaptive beat-detection threshold quantile.
func WithProminenceQuantile(q float64) Option {
	return func(s *Service) {
		s.timingOpts = append(s.timingOpts, timing.WithProminenceQuantile(q))
	}
}

// WithOnBeatToleranceDiv sets the on-beat tolerance divisor.
func WithOnBeatToleranceDiv(div float64) Option {
	return func(s *Service) {
		s.timingOpts = append(s.timingOpts, timing.WithOnBeatToleranceDiv(div))
	}
}

// WithJerkScale sets the smoothness normalization scale.
func WithJerkScale(scale float64) Option {
	return func(s *Service) {
		s.qualityOpts = append(s.qualityOpts, quality.WithJerkScale(scale))
	}
}

// WithEnergyScale sets the energy normalization scale.
func WithEnergyScale(scale float64) Option {
	return func(s *Service) {
		s.qualityOpts = append(s.qualityOpts, quality.WithEnergyScale(scale))
	}
}

// WithHighPerformanceThreshold sets the bar for positive general feedback.
func WithHighPerformanceThreshold(v float64) Option {
	return func(s *Service) {
		s.feedbackOpts = append(s.feedbackOpts, feedback.WithHighPerformanceThreshold(v))
	}
}

// New constructs a Service with all pipeline components wired.
func New(opts ...Option) *Service {
	s := &Service{
		version: "1.0.0",
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.analyzer = timing.NewAnalyzer(s.timingOpts...)
	s.scorer = quality.NewScorer(s.qualityOpts...)
	s.aggregator = scoring.NewAggregator(s.scoringOpts...)
	s.generator = feedback.NewGenerator(s.feedbackOpts...)
	return s
}

// Predict analyzes one motion and returns the full assessment. Structurally
// invalid input (an absent frames field) is rejected before analysis;
// sparse-but-valid input always resolves to a fully-formed result.
func (s *Service) Predict(ctx context.Context, m model.Motion) (model.PredictionResult, error) {
	if err := m.Validate(); err != nil {
		s.recordRejection()
		metrics.RecordPredictionError()
		return model.PredictionResult{}, fmt.Errorf("invalid motion: %w", err)
	}

	start := time.Now()

	series := kinematics.Compute(m)
	bpm := m.BPM()
	timingMetrics, beats := s.analyzer.Analyze(series, bpm)
	movementMetrics := s.scorer.Score(series)
	overall := s.aggregator.Overall(timingMetrics, movementMetrics)
	items := s.generator.Generate(feedback.Input{
		Timing:   timingMetrics,
		Movement: movementMetrics,
		HasTempo: bpm > 0,
	})

	elapsedMS := float64(time.Since(start).Nanoseconds()) / nanosPerMilli

	result := model.PredictionResult{
		PredictionID:     uuid.NewString(),
		OverallScore:     overall,
		TimingMetrics:    timingMetrics,
		MovementMetrics:  movementMetrics,
		Feedback:         items,
		ProcessingTimeMS: elapsedMS,
	}

	s.recordPrediction(overall, elapsedMS)
	metrics.RecordPrediction(elapsedMS, overall, len(m.Frames), len(beats))
	for _, item := range items {
		metrics.RecordFeedbackItem(string(item.Category), string(item.Severity))
	}

	s.logger.Debug(ctx, "motion analyzed",
		logger.String("predictionID", result.PredictionID),
		logger.Int("frames", len(m.Frames)),
		logger.Int("beats", len(beats)),
		logger.Float64("bpm", bpm),
		logger.Float64("overallScore", overall),
		logger.Float64("processingMs", elapsedMS),
	)

	return result, nil
}

// Version returns the engine version string.
func (s *Service) Version() string {
	return s.version
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"version":       s.version,
		"uptimeSeconds": time.Since(s.started).Seconds(),
		"predictions":   s.predictions,
		"rejected":      s.rejected,
	}
	if s.predictions > 0 {
		stats["averageScore"] = s.scoreSum / float64(s.predictions)
		stats["lastScore"] = s.lastScore
		stats["averageLatencyMs"] = s.latencySumMS / float64(s.predictions)
	}
	return stats
}

func (s *Service) recordPrediction(score, latencyMS float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions++
	s.scoreSum += score
	s.lastScore = score
	s.latencySumMS += latencyMS
}

func (s *Service) recordRejection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected++
}
