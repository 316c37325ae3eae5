// Package feedback maps metric values to categorized, severity-ranked
// coaching messages through an ordered threshold rule table.
//
// At most one item is emitted per category per invocation; when several
// rules of a category trigger, the most severe wins, so the output never
// contradicts itself. Silence is valid: a category with no triggered rule
// emits nothing.
package feedback

import (
	"fmt"
	"sort"

	"github.com/stepflow/stepflow/internal/domain/model"
)

// Default feedback thresholds.
const (
	defaultSyncCritical       = 0.4
	defaultSyncWarning        = 0.7
	defaultSyncPraise         = 0.9
	defaultSmoothnessCritical = 0.3
	defaultSmoothnessWarning  = 0.6
	defaultAccuracyWarning    = 0.7
	defaultEnergyLow          = 0.5
	defaultEnergyHigh         = 0.9
	defaultFormWarning        = 0.7
	defaultHighPerformance    = 0.85
)

// Input bundles everything the rule table tests. HasTempo guards the timing
// rules: without a tempo reference the sync score is a neutral default and
// neither praise nor criticism about timing would be honest.
type Input struct {
	Timing   model.TimingMetrics
	Movement model.MovementMetrics
	HasTempo bool
}

// Thresholds hold the rule-table trigger levels.
type Thresholds struct {
	SyncCritical       float64
	SyncWarning        float64
	SyncPraise         float64
	SmoothnessCritical float64
	SmoothnessWarning  float64
	AccuracyWarning    float64
	EnergyLow          float64
	EnergyHigh         float64
	FormWarning        float64
	HighPerformance    float64
}

// DefaultThresholds returns the documented default trigger levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SyncCritical:       defaultSyncCritical,
		SyncWarning:        defaultSyncWarning,
		SyncPraise:         defaultSyncPraise,
		SmoothnessCritical: defaultSmoothnessCritical,
		SmoothnessWarning:  defaultSmoothnessWarning,
		AccuracyWarning:    defaultAccuracyWarning,
		EnergyLow:          defaultEnergyLow,
		EnergyHigh:         defaultEnergyHigh,
		FormWarning:        defaultFormWarning,
		HighPerformance:    defaultHighPerformance,
	}
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithThresholds replaces the default trigger levels.
func WithThresholds(t Thresholds) Option {
	return func(g *Generator) {
		g.thresholds = t
	}
}

// WithHighPerformanceThreshold sets only the bar for the positive catch-all.
func WithHighPerformanceThreshold(v float64) Option {
	return func(g *Generator) {
		if v > 0 && v <= 1 {
			g.thresholds.HighPerformance = v
		}
	}
}

// rule is one entry of the ordered table: a predicate over the input and the
// message template it emits when triggered.
type rule struct {
	category model.Category
	severity model.Severity
	when     func(t Thresholds, in Input) bool
	message  func(in Input) string
}

// Generator evaluates the rule table. Construction is cheap and Generate
// holds no state between calls.
type Generator struct {
	thresholds Thresholds
	rules      []rule
}

// NewGenerator creates a generator with configuration options applied over
// the default thresholds.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		thresholds: DefaultThresholds(),
		rules:      ruleTable(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ruleTable declares the ordered rules. Order within a category breaks
// severity ties; order across categories breaks severity ties in the output.
func ruleTable() []rule {
	return []rule{
		{
			category: model.CategoryTiming,
			severity: model.SeverityCritical,
			when: func(t Thresholds, in Input) bool {
				return in.HasTempo && in.Timing.SyncScore < t.SyncCritical
			},
			message: func(in Input) string {
				return fmt.Sprintf("You're way off the beat. Slow down and listen to the music; only %.1f%% of your moves landed on time.", in.Timing.OnBeatPercentage)
			},
		},
		{
			category: model.CategoryTiming,
			severity: model.SeverityWarning,
			when: func(t Thresholds, in Input) bool {
				return in.HasTempo && in.Timing.SyncScore < t.SyncWarning
			},
			message: func(in Input) string {
				return fmt.Sprintf("Your timing is off. Try to sync your movements with the beat; you're hitting %.1f%% of beats on time.", in.Timing.OnBeatPercentage)
			},
		},
		{
			category: model.CategoryTiming,
			severity: model.SeverityInfo,
			when: func(t Thresholds, in Input) bool {
				return in.HasTempo && in.Timing.SyncScore >= t.SyncPraise
			},
			message: func(in Input) string {
				return "Excellent timing! You're perfectly synced with the music."
			},
		},
		{
			category: model.CategoryMovement,
			severity: model.SeverityCritical,
			when: func(t Thresholds, in Input) bool {
				return in.Movement.SmoothnessScore < t.SmoothnessCritical
			},
			message: func(in Input) string {
				return "Your movements are very jerky. Ease off the speed and work on one smooth transition at a time."
			},
		},
		{
			category: model.CategoryMovement,
			severity: model.SeverityWarning,
			when: func(t Thresholds, in Input) bool {
				return in.Movement.SmoothnessScore < t.SmoothnessWarning
			},
			message: func(in Input) string {
				return "Your movements are a bit jerky. Focus on flowing smoothly between positions."
			},
		},
		{
			category: model.CategoryMovement,
			severity: model.SeverityWarning,
			when: func(t Thresholds, in Input) bool {
				return in.Movement.AccuracyScore < t.AccuracyWarning
			},
			message: func(in Input) string {
				return "Your movements are inconsistent. Try to replicate each move the same way every cycle."
			},
		},
		{
			category: model.CategoryEnergy,
			severity: model.SeverityInfo,
			when: func(t Thresholds, in Input) bool {
				return in.Movement.EnergyScore < t.EnergyLow
			},
			message: func(in Input) string {
				return "Put more energy into your movements! Go bigger and stronger."
			},
		},
		{
			category: model.CategoryEnergy,
			severity: model.SeverityInfo,
			when: func(t Thresholds, in Input) bool {
				return in.Movement.EnergyScore > t.EnergyHigh
			},
			message: func(in Input) string {
				return "Great energy! Keep up that intensity."
			},
		},
		{
			category: model.CategoryForm,
			severity: model.SeverityWarning,
			when: func(t Thresholds, in Input) bool {
				return in.Movement.FormScore < t.FormWarning
			},
			message: func(in Input) string {
				return "Pay attention to your posture and alignment. Keep your core engaged."
			},
		},
	}
}

// severityRank orders severities for most-severe-wins selection.
func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return 2
	case model.SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Generate evaluates the rule table against the metrics and returns the
// feedback list ordered most severe first. A positive general item is added
// when every sub-score clears the high-performance bar.
func (g *Generator) Generate(in Input) []model.FeedbackItem {
	type picked struct {
		item  model.FeedbackItem
		order int
	}
	best := make(map[model.Category]picked)
	for i, r := range g.rules {
		if !r.when(g.thresholds, in) {
			continue
		}
		current, ok := best[r.category]
		if ok && severityRank(current.item.Severity) >= severityRank(r.severity) {
			continue
		}
		best[r.category] = picked{
			item: model.FeedbackItem{
				Category: r.category,
				Message:  r.message(in),
				Severity: r.severity,
			},
			order: i,
		}
	}

	items := make([]picked, 0, len(best)+1)
	for _, p := range best {
		items = append(items, p)
	}
	if g.highPerformance(in) {
		items = append(items, picked{
			item: model.FeedbackItem{
				Category: model.CategoryGeneral,
				Message:  "Outstanding performance! All metrics look great.",
				Severity: model.SeverityInfo,
			},
			order: len(g.rules),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := severityRank(items[i].item.Severity), severityRank(items[j].item.Severity)
		if ri != rj {
			return ri > rj
		}
		return items[i].order < items[j].order
	})

	out := make([]model.FeedbackItem, len(items))
	for i, p := range items {
		out[i] = p.item
	}
	return out
}

// highPerformance reports whether every sub-score clears the praise bar.
func (g *Generator) highPerformance(in Input) bool {
	bar := g.thresholds.HighPerformance
	return in.Timing.SyncScore >= bar &&
		in.Movement.SmoothnessScore >= bar &&
		in.Movement.AccuracyScore >= bar &&
		in.Movement.EnergyScore >= bar &&
		in.Movement.FormScore >= bar
}
