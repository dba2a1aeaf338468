package scoring

import (
	"strings"

	"github.com/JakeFAU/sitepulse/internal/report"
)

// Cap reasons recorded when a hard cap is applied after weighting.
const (
	CapMissingTitle       = "Missing title caps SEO"
	CapMissingDescription = "Missing meta description"
	CapNonHTTPS           = "Non-HTTPS URL"
)

// Overall weights per pillar.
var overallWeights = map[report.Pillar]float64{
	report.PillarPerformance:   0.30,
	report.PillarAccessibility: 0.20,
	report.PillarSEO:           0.20,
	report.PillarSecurity:      0.15,
	report.PillarUX:            0.15,
}

// Result is the output of Compute.
type Result struct {
	Scores  report.PillarScores
	Overall float64
	// Caps maps a pillar to the human-readable reason(s) it was capped.
	Caps map[report.Pillar]string
}

// Compute scores a metrics snapshot. Identical inputs always yield identical output.
func Compute(m report.RawMetrics) Result {
	caps := map[report.Pillar]string{}

	raw := report.PillarScores{
		Performance:   performance(m),
		Accessibility: accessibility(m),
		SEO:           seo(m, caps),
		Security:      security(m, caps),
		UX:            ux(m),
	}
	scores := report.PillarScores{
		Performance:   Round1(raw.Performance),
		Accessibility: Round1(raw.Accessibility),
		SEO:           Round1(raw.SEO),
		Security:      Round1(raw.Security),
		UX:            Round1(raw.UX),
	}

	entries := make([]weighted, 0, len(report.Pillars))
	for _, p := range report.Pillars {
		entries = append(entries, weighted{scores.Get(p), overallWeights[p]})
	}
	result := Result{
		Scores:  scores,
		Overall: Round1(Clamp(weightedAvg(entries...), 0, 100)),
	}
	if len(caps) > 0 {
		result.Caps = caps
	}
	return result
}

func performance(m report.RawMetrics) float64 {
	totalKB := float64(m.Size.TotalBytes) / 1024
	return Clamp(weightedAvg(
		weighted{LinearDecay(float64(m.Timing.TTFBMs), 200, 1500), 0.4},
		weighted{LinearDecay(totalKB, 300, 3000), 0.4},
		weighted{LinearDecay(float64(m.Counts.Requests), 15, 120), 0.2},
	), 0, 100)
}

func accessibility(m report.RawMetrics) float64 {
	a := m.Accessibility
	score := Clamp(a.AltCoverage, 0, 1) * 100
	score -= min(float64(a.OutlineIssues)*8, 60)
	if !a.HasLang {
		score -= 10
	}
	if a.H1Count == 0 {
		score -= 20
	}
	return Clamp(score, 0, 100)
}

func seo(m report.RawMetrics, caps map[report.Pillar]string) float64 {
	s := m.SEO
	title := BandedIdeal(float64(s.TitleChars), 55, 65, 10, 90)
	desc := 25.0
	if s.MetaDescriptionChars > 0 {
		desc = BandedIdeal(float64(s.MetaDescriptionChars), 120, 160, 30, 250)
	}
	score := weightedAvg(
		weighted{title, 0.4},
		weighted{desc, 0.4},
		weighted{presence(s.HasCanonical, 100, 40), 0.1},
		weighted{presence(s.H1Exists, 100, 30), 0.1},
	)

	var reasons []string
	if s.TitleChars == 0 {
		score = min(score, 40)
		reasons = append(reasons, CapMissingTitle)
	}
	if s.MetaDescriptionChars == 0 {
		score = min(score, 55)
		reasons = append(reasons, CapMissingDescription)
	}
	if len(reasons) > 0 {
		caps[report.PillarSEO] = strings.Join(reasons, "; ")
	}
	return Clamp(score, 0, 100)
}

func security(m report.RawMetrics, caps map[report.Pillar]string) float64 {
	s := m.Security
	headers := s.Headers.Count()
	score := float64(headers) / 4 * 100
	if headers == 0 && s.HTTPS {
		// Baseline credit for HTTPS without any defensive headers.
		score = 40
	}
	score -= min(float64(s.MixedContent)*5, 40)
	if !s.HTTPS {
		score = min(score, 30)
		caps[report.PillarSecurity] = CapNonHTTPS
	}
	if s.HTTPS && s.MixedContent > 0 {
		score = min(score, 70)
	}
	return Clamp(score, 0, 100)
}

func ux(m report.RawMetrics) float64 {
	u := m.UX
	return Clamp(weightedAvg(
		weighted{presence(u.HasViewport, 100, 30), 0.3},
		weighted{presence(u.HasFavicon, 100, 60), 0.1},
		weighted{Clamp(u.FontDisplayPercent, 0, 100), 0.3},
		weighted{LinearDecay(u.JSWeightKB, 150, 1500), 0.3},
	), 0, 100)
}
