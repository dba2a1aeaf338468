// Package compare diffs two reports: pillar score deltas and an issue set
// partition keyed by issue identifier.
package compare

import (
	"github.com/JakeFAU/sitepulse/internal/report"
	"github.com/JakeFAU/sitepulse/internal/scoring"
)

// trendThreshold is the smallest absolute delta reported as a change.
const trendThreshold = 0.5

// Deltas holds now - previous for each pillar and the overall score.
type Deltas struct {
	Performance   float64 `json:"performance"`
	Accessibility float64 `json:"accessibility"`
	SEO           float64 `json:"seo"`
	Security      float64 `json:"security"`
	UX            float64 `json:"ux"`
	Overall       float64 `json:"overall"`
}

// IssueDiff partitions issues by identity across two reports.
type IssueDiff struct {
	Added     []report.Issue `json:"added"`
	Resolved  []report.Issue `json:"resolved"`
	Unchanged []report.Issue `json:"unchanged"`
}

// Comparison is the full diff between a current and a previous report.
type Comparison struct {
	CurrentID  string    `json:"current_id,omitempty"`
	PreviousID string    `json:"previous_id,omitempty"`
	Deltas     Deltas    `json:"deltas"`
	Issues     IssueDiff `json:"issues"`
}

// Trend classifies a delta.
type Trend string

// Trend values.
const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Reports compares now against prev.
func Reports(now, prev report.Report) Comparison {
	return Comparison{
		CurrentID:  now.ID,
		PreviousID: prev.ID,
		Deltas:     ScoreDeltas(now.Scores, now.Overall, prev.Scores, prev.Overall),
		Issues:     Issues(now.Issues, prev.Issues),
	}
}

// ScoreDeltas returns per-pillar and overall differences rounded to one decimal.
func ScoreDeltas(now report.PillarScores, nowOverall float64, prev report.PillarScores, prevOverall float64) Deltas {
	return Deltas{
		Performance:   scoring.Round1(now.Performance - prev.Performance),
		Accessibility: scoring.Round1(now.Accessibility - prev.Accessibility),
		SEO:           scoring.Round1(now.SEO - prev.SEO),
		Security:      scoring.Round1(now.Security - prev.Security),
		UX:            scoring.Round1(now.UX - prev.UX),
		Overall:       scoring.Round1(nowOverall - prevOverall),
	}
}

// Issues partitions issues by ID. Added and unchanged keep the current order,
// resolved keeps the previous order. Unchanged issues carry their current content.
func Issues(now, prev []report.Issue) IssueDiff {
	prevIDs := make(map[string]struct{}, len(prev))
	for _, issue := range prev {
		prevIDs[issue.ID] = struct{}{}
	}
	nowIDs := make(map[string]struct{}, len(now))

	diff := IssueDiff{
		Added:     []report.Issue{},
		Resolved:  []report.Issue{},
		Unchanged: []report.Issue{},
	}
	for _, issue := range now {
		nowIDs[issue.ID] = struct{}{}
		if _, ok := prevIDs[issue.ID]; ok {
			diff.Unchanged = append(diff.Unchanged, issue)
		} else {
			diff.Added = append(diff.Added, issue)
		}
	}
	for _, issue := range prev {
		if _, ok := nowIDs[issue.ID]; !ok {
			diff.Resolved = append(diff.Resolved, issue)
		}
	}
	return diff
}

// TrendOf reports whether a delta is a meaningful improvement or regression.
func TrendOf(delta float64) Trend {
	switch {
	case delta > trendThreshold:
		return TrendUp
	case delta < -trendThreshold:
		return TrendDown
	default:
		return TrendFlat
	}
}
