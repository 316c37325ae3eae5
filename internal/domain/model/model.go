// Package model contains domain models passed between layers.
package model

// Keypoint is a single body-joint observation within a frame. Z and
// Confidence are optional; a nil Confidence means the detection is fully
// trusted. Values are immutable once decoded.
type Keypoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          *float64 `json:"z,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Depth returns the Z coordinate, or 0 when depth was not reported.
func (k Keypoint) Depth() float64 {
	if k.Z == nil {
		return 0
	}
	return *k.Z
}

// Frame is one time sample of motion capture. The index of a keypoint within
// Keypoints is its joint identity; the keypoint count may vary across frames.
type Frame struct {
	Timestamp float64    `json:"timestamp"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Motion is the analysis unit: an ordered capture of frames, optionally
// paired with the musical tempo of the backing track. Temporal order is the
// slice order; frames are never re-sorted by timestamp.
type Motion struct {
	Frames []Frame `json:"frames"`

	// AudioBPM is the music tempo; nil or <= 0 means no tempo reference.
	AudioBPM *float64 `json:"audio_bpm,omitempty"`

	// ReferenceMotion identifies a reference performance. Reserved for
	// comparison-based scoring; current scoring ignores it.
	ReferenceMotion string `json:"reference_motion,omitempty"`
}

// BPM returns the tempo reference, or 0 when absent or non-positive.
func (m Motion) BPM() float64 {
	if m.AudioBPM == nil || *m.AudioBPM <= 0 {
		return 0
	}
	return *m.AudioBPM
}

// Validate checks the structural contract. An absent (nil) frames field is
// invalid input; an empty frame list is degenerate-but-valid and analyzable.
func (m Motion) Validate() error {
	if m.Frames == nil {
		return ErrNoFrames
	}
	return nil
}

// TimingMetrics captures beat-alignment analysis results.
type TimingMetrics struct {
	AvgLagMS         float64 `json:"avg_lag_ms"`
	SyncScore        float64 `json:"sync_score"`
	OnBeatPercentage float64 `json:"on_beat_percentage"`
}

// MovementMetrics captures movement-quality sub-scores, each in [0,1].
type MovementMetrics struct {
	SmoothnessScore float64 `json:"smoothness_score"`
	AccuracyScore   float64 `json:"accuracy_score"`
	EnergyScore     float64 `json:"energy_score"`
	FormScore       float64 `json:"form_score"`
}

// Category classifies a feedback item.
type Category string

// Feedback categories.
const (
	CategoryTiming   Category = "timing"
	CategoryMovement Category = "movement"
	CategoryEnergy   Category = "energy"
	CategoryForm     Category = "form"
	CategoryGeneral  Category = "general"
)

// Severity ranks a feedback item.
type Severity string

// Feedback severities, least to most severe.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// FeedbackItem is one coaching message. Timestamp is set only when the
// feedback is tied to a specific moment in the motion.
type FeedbackItem struct {
	Category  Category `json:"category"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Timestamp *float64 `json:"timestamp,omitempty"`
}

// PredictionResult is the full assessment returned for one motion.
type PredictionResult struct {
	PredictionID     string          `json:"prediction_id,omitempty"`
	OverallScore     float64         `json:"overall_score"`
	TimingMetrics    TimingMetrics   `json:"timing_metrics"`
	MovementMetrics  MovementMetrics `json:"movement_metrics"`
	Feedback         []FeedbackItem  `json:"feedback"`
	ProcessingTimeMS float64         `json:"processing_time_ms"`
}
