// Package model defines the typed, immutable snapshots produced from an
// analysis payload: module and call graphs, tech stack, framework patterns,
// git analytics and database schema.
package model

// Level is a three-bucket complexity classification.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// Color returns the display color for the level.
func (l Level) Color() string {
	switch l {
	case Low:
		return "green"
	case Medium:
		return "orange"
	default:
		return "red"
	}
}

// Thresholds are the inclusive upper bounds of the low and medium buckets.
type Thresholds struct {
	Low    float64 `json:"low" yaml:"low"`
	Medium float64 `json:"medium" yaml:"medium"`
}

// NodeThresholds apply to individual modules and functions.
var NodeThresholds = Thresholds{Low: 5, Medium: 10}

// FolderThresholds apply to aggregated folder scores. They are coarser than
// NodeThresholds because a mean over many files drifts upward.
var FolderThresholds = Thresholds{Low: 8, Medium: 15}

// Classify maps a score onto a level. Every score maps to exactly one
// level; negative scores count as low.
func (t Thresholds) Classify(score float64) Level {
	switch {
	case score <= t.Low:
		return Low
	case score <= t.Medium:
		return Medium
	default:
		return High
	}
}
