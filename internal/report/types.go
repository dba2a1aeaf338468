// Package report defines the audit data model shared by the pipeline, the
// transport boundary, and the differ. Every type here round-trips through JSON
// without loss; it is the wire format exchanged with callers.
package report

import "time"

// SchemaVersion is the literal version stamped on every Report.
const SchemaVersion = 1

// Pillar names one of the five scored quality dimensions.
type Pillar string

// Pillar values used as Issue categories.
const (
	PillarPerformance   Pillar = "performance"
	PillarAccessibility Pillar = "accessibility"
	PillarSEO           Pillar = "seo"
	PillarSecurity      Pillar = "security"
	PillarUX            Pillar = "ux"
)

// Pillars lists every pillar in report order.
var Pillars = []Pillar{PillarPerformance, PillarAccessibility, PillarSEO, PillarSecurity, PillarUX}

// Severity grades an Issue.
type Severity string

// Severity values.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Impact returns the fixed impact weight for a severity.
func (s Severity) Impact() int {
	switch s {
	case SeverityHigh:
		return 9
	case SeverityMedium:
		return 6
	default:
		return 3
	}
}

// Timing holds request latency measurements.
type Timing struct {
	TTFBMs int64 `json:"ttfb_ms"`
}

// Size holds byte measurements for the page and per-asset estimates.
type Size struct {
	TotalBytes  int64 `json:"total_bytes"`
	ImagesBytes int64 `json:"images_bytes"`
	CSSBytes    int64 `json:"css_bytes"`
	JSBytes     int64 `json:"js_bytes"`
}

// Counts holds request-equivalent and per-tag counts.
type Counts struct {
	Requests    int `json:"requests"`
	Images      int `json:"img"`
	Scripts     int `json:"script"`
	Stylesheets int `json:"css"`
}

// AccessibilitySignals holds accessibility measurements.
type AccessibilitySignals struct {
	AltCoverage   float64 `json:"alt_coverage"`
	H1Count       int     `json:"h1_count"`
	OutlineIssues int     `json:"outline_issues"`
	Landmarks     int     `json:"landmarks"`
	HasLang       bool    `json:"has_lang"`
}

// SEOSignals holds search-engine measurements.
type SEOSignals struct {
	TitleChars           int  `json:"title_chars"`
	MetaDescriptionChars int  `json:"meta_description_chars"`
	HasCanonical         bool `json:"has_canonical"`
	H1Exists             bool `json:"h1_exists"`
}

// SecurityHeaders records which defensive response headers were present.
type SecurityHeaders struct {
	CSP         bool `json:"csp"`
	XFO         bool `json:"xfo"`
	Referrer    bool `json:"referrer"`
	Permissions bool `json:"permissions"`
}

// Count returns how many of the four headers are present.
func (h SecurityHeaders) Count() int {
	n := 0
	for _, present := range []bool{h.CSP, h.XFO, h.Referrer, h.Permissions} {
		if present {
			n++
		}
	}
	return n
}

// SecuritySignals holds transport security measurements.
type SecuritySignals struct {
	HTTPS        bool            `json:"https"`
	Headers      SecurityHeaders `json:"headers"`
	MixedContent int             `json:"mixed_content"`
}

// UXSignals holds user-experience measurements.
type UXSignals struct {
	HasViewport        bool    `json:"has_viewport"`
	HasFavicon         bool    `json:"has_favicon"`
	FontDisplayPercent float64 `json:"font_display_percent"`
	JSWeightKB         float64 `json:"js_weight_kb"`
}

// RawMetrics is the immutable snapshot of everything measured from one fetch.
type RawMetrics struct {
	Timing        Timing               `json:"timing"`
	Size          Size                 `json:"size"`
	Counts        Counts               `json:"counts"`
	Accessibility AccessibilitySignals `json:"accessibility"`
	SEO           SEOSignals           `json:"seo"`
	Security      SecuritySignals      `json:"security"`
	UX            UXSignals            `json:"ux"`
	PageTitle     string               `json:"page_title,omitempty"`
}

// PillarScores holds one 0-100 score per pillar.
type PillarScores struct {
	Performance   float64 `json:"performance"`
	Accessibility float64 `json:"accessibility"`
	SEO           float64 `json:"seo"`
	Security      float64 `json:"security"`
	UX            float64 `json:"ux"`
}

// Get returns the score for a pillar.
func (p PillarScores) Get(pillar Pillar) float64 {
	switch pillar {
	case PillarPerformance:
		return p.Performance
	case PillarAccessibility:
		return p.Accessibility
	case PillarSEO:
		return p.SEO
	case PillarSecurity:
		return p.Security
	case PillarUX:
		return p.UX
	default:
		return 0
	}
}

// Issue is one detected, explainable problem. ID is the identity used for
// cross-report diffing and fixes Category, Why, and Fix templates.
type Issue struct {
	ID           string   `json:"id"`
	Category     Pillar   `json:"category"`
	Severity     Severity `json:"severity"`
	Why          string   `json:"why"`
	Fix          string   `json:"fix"`
	ImpactScore  int      `json:"impact_score"`
	EstScoreGain int      `json:"est_score_gain"`
}

// Report is the immutable result of one audit.
type Report struct {
	ID            string            `json:"id"`
	Version       int               `json:"version"`
	URL           string            `json:"url"`
	FinalURL      string            `json:"final_url,omitempty"`
	PageTitle     string            `json:"page_title"`
	FetchedAt     time.Time         `json:"fetched_at"`
	Overall       float64           `json:"overall"`
	Scores        PillarScores      `json:"scores"`
	Caps          map[Pillar]string `json:"caps,omitempty"`
	Metrics       RawMetrics        `json:"metrics"`
	Issues        []Issue           `json:"issues"`
	Truncated     bool              `json:"truncated"`
	ContentSHA256 string            `json:"content_sha256,omitempty"`
	PreviousID    string            `json:"previous_id,omitempty"`
}

// IssueIDs returns the issue identifiers in report order.
func (r Report) IssueIDs() []string {
	ids := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		ids = append(ids, issue.ID)
	}
	return ids
}

// Clone returns a deep copy so holders of a stored Report cannot alias its
// slices or maps.
func (r Report) Clone() Report {
	cp := r
	if r.Issues != nil {
		cp.Issues = make([]Issue, len(r.Issues))
		copy(cp.Issues, r.Issues)
	}
	if r.Caps != nil {
		cp.Caps = make(map[Pillar]string, len(r.Caps))
		for k, v := range r.Caps {
			cp.Caps[k] = v
		}
	}
	return cp
}
