// Package rules derives ranked, explainable issues from a metrics snapshot and
// its pillar scores.
package rules

import (
	"math"
	"sort"

	"github.com/JakeFAU/sitepulse/internal/report"
)

// maxGain bounds the projected score gain of a single issue.
const maxGain = 15

// Input is what every rule is evaluated against.
type Input struct {
	Metrics report.RawMetrics
	Scores  report.PillarScores
}

// Rule is one independent (predicate, builder) entry in the catalogue.
type Rule struct {
	ID       string
	Category report.Pillar
	// Test reports whether the rule fires. It must be total over any RawMetrics.
	Test  func(in Input) bool
	Build func(in Input) Finding
}

// Finding is the rule-specific part of an issue; the engine fills in identity
// and impact.
type Finding struct {
	Severity report.Severity
	Why      string
	Fix      string
	// Target is the score the pillar is projected to reach once fixed.
	Target float64
}

// Derive evaluates the default catalogue.
func Derive(metrics report.RawMetrics, scores report.PillarScores) []report.Issue {
	return Evaluate(Catalogue(), Input{Metrics: metrics, Scores: scores})
}

// Evaluate runs every rule once and ranks the fired issues by impact, then by
// estimated gain, both descending. Equal keys keep catalogue order.
func Evaluate(catalogue []Rule, in Input) []report.Issue {
	issues := make([]report.Issue, 0, len(catalogue))
	for _, rule := range catalogue {
		if !rule.Test(in) {
			continue
		}
		f := rule.Build(in)
		issues = append(issues, report.Issue{
			ID:           rule.ID,
			Category:     rule.Category,
			Severity:     f.Severity,
			Why:          f.Why,
			Fix:          f.Fix,
			ImpactScore:  f.Severity.Impact(),
			EstScoreGain: estimateGain(in.Scores.Get(rule.Category), f.Target),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].ImpactScore != issues[j].ImpactScore {
			return issues[i].ImpactScore > issues[j].ImpactScore
		}
		return issues[i].EstScoreGain > issues[j].EstScoreGain
	})
	return issues
}

func estimateGain(current, target float64) int {
	gain := int(math.Floor(target - current + 0.5))
	if gain < 0 {
		return 0
	}
	if gain > maxGain {
		return maxGain
	}
	return gain
}
