package rules

import (
	"fmt"

	"github.com/JakeFAU/sitepulse/internal/report"
)

func low(why, fix string, target float64) Finding {
	return Finding{Severity: report.SeverityLow, Why: why, Fix: fix, Target: target}
}

func medium(why, fix string, target float64) Finding {
	return Finding{Severity: report.SeverityMedium, Why: why, Fix: fix, Target: target}
}

func high(why, fix string, target float64) Finding {
	return Finding{Severity: report.SeverityHigh, Why: why, Fix: fix, Target: target}
}

func escalate(isHigh bool) report.Severity {
	if isHigh {
		return report.SeverityHigh
	}
	return report.SeverityMedium
}

func kb(bytes int64) float64 { return float64(bytes) / 1024 }

// Catalogue returns the ordered rule table. Soft optimisation hints come first,
// then hard defects; ranking happens after evaluation so order only breaks ties.
func Catalogue() []Rule {
	return []Rule{
		// SEO hints.
		{
			ID: "title-suboptimal-length", Category: report.PillarSEO,
			Test: func(in Input) bool {
				n := in.Metrics.SEO.TitleChars
				return n > 0 && (n < 30 || n > 70)
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("Title length %d chars is outside the broadly optimal 30-70 range (ideal 55-65).", in.Metrics.SEO.TitleChars),
					"Refine <title> to a concise descriptive phrase (55-65 chars sweet spot).",
					min(100, in.Scores.SEO+4))
			},
		},
		{
			ID: "meta-description-short", Category: report.PillarSEO,
			Test: func(in Input) bool {
				n := in.Metrics.SEO.MetaDescriptionChars
				return n > 0 && n < 100
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("Meta description only %d chars; may under-inform snippets (aim 120-160).", in.Metrics.SEO.MetaDescriptionChars),
					"Expand meta description to 120-160 characters with a compelling summary and keyword context.",
					min(100, in.Scores.SEO+3))
			},
		},
		{
			ID: "meta-description-long", Category: report.PillarSEO,
			Test: func(in Input) bool {
				n := in.Metrics.SEO.MetaDescriptionChars
				return n > 180 && n < 300
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("Meta description %d chars; may be truncated in search results.", in.Metrics.SEO.MetaDescriptionChars),
					"Trim description toward 160 chars while preserving key intent or call to action.",
					min(100, in.Scores.SEO+2))
			},
		},

		// Performance hints.
		{
			ID: "moderate-ttfb", Category: report.PillarPerformance,
			Test: func(in Input) bool {
				t := in.Metrics.Timing.TTFBMs
				return t > 600 && t <= 1200
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("TTFB %dms could be improved (ideal <200ms; warning >600ms).", in.Metrics.Timing.TTFBMs),
					"Introduce edge caching, preload critical data, or reduce server cold start.",
					min(100, in.Scores.Performance+5))
			},
		},
		{
			ID: "moderate-page-weight", Category: report.PillarPerformance,
			Test: func(in Input) bool {
				b := in.Metrics.Size.TotalBytes
				return b > 600_000 && b <= 2_000_000
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("Page weight %.0fKB could be slimmer (budget about 300KB of critical HTML).", kb(in.Metrics.Size.TotalBytes)),
					"Remove unused scripts and styles, enable compression, and defer non-critical assets.",
					min(100, in.Scores.Performance+6))
			},
		},
		{
			ID: "moderate-request-count", Category: report.PillarPerformance,
			Test: func(in Input) bool {
				r := in.Metrics.Counts.Requests
				return r > 40 && r <= 80
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("%d requests; consider bundling or lazy loading to reduce overhead.", in.Metrics.Counts.Requests),
					"Consolidate assets, inline tiny critical CSS, and defer analytics until idle.",
					min(100, in.Scores.Performance+4))
			},
		},

		// Accessibility hints.
		{
			ID: "partial-alt-coverage", Category: report.PillarAccessibility,
			Test: func(in Input) bool {
				a := in.Metrics.Accessibility.AltCoverage
				return a >= 0.6 && a < 0.9
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("%.0f%% of images have alt text; aim for 100%% (decoratives empty).", in.Metrics.Accessibility.AltCoverage*100),
					`Provide alt for informative images; use alt="" for decorative ones.`,
					min(100, in.Scores.Accessibility+4))
			},
		},

		// UX hints.
		{
			ID: "high-js-weight", Category: report.PillarUX,
			Test: func(in Input) bool {
				js := in.Metrics.UX.JSWeightKB
				return js > 300 && js <= 900
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("JS payload %.0fKB; can affect interactivity and memory on low-end devices.", in.Metrics.UX.JSWeightKB),
					"Remove unused libraries, enable tree-shaking, and defer non-critical scripts.",
					min(100, in.Scores.UX+5))
			},
		},
		{
			ID: "no-font-display", Category: report.PillarUX,
			Test: func(in Input) bool {
				return in.Metrics.UX.FontDisplayPercent == 0 && in.Metrics.UX.JSWeightKB < 15_000
			},
			Build: func(in Input) Finding {
				return low(
					"No @font-face uses font-display; may cause invisible text while fonts load.",
					"Add font-display: swap (or optional) to custom font declarations or Google Fonts URLs.",
					min(100, in.Scores.UX+4))
			},
		},

		// SEO defects.
		{
			ID: "missing-title", Category: report.PillarSEO,
			Test: func(in Input) bool { return in.Metrics.SEO.TitleChars == 0 },
			Build: func(in Input) Finding {
				return high(
					"Document has no <title>; search engines and users rely on it for context.",
					"Add a concise, descriptive <title> (55-65 characters ideal).",
					max(70, in.Scores.SEO+25))
			},
		},
		{
			ID: "missing-meta-description", Category: report.PillarSEO,
			Test: func(in Input) bool { return in.Metrics.SEO.MetaDescriptionChars == 0 },
			Build: func(in Input) Finding {
				return high(
					"No meta description found; reduces click-through rate and snippet quality.",
					`Add <meta name="description" content="..."> (120-160 chars).`,
					max(75, in.Scores.SEO+20))
			},
		},

		// Accessibility defects.
		{
			ID: "duplicate-h1", Category: report.PillarAccessibility,
			Test: func(in Input) bool { return in.Metrics.Accessibility.H1Count > 1 },
			Build: func(in Input) Finding {
				return medium(
					fmt.Sprintf("Found %d <h1> elements; multiple H1s can confuse assistive tech.", in.Metrics.Accessibility.H1Count),
					"Use a single <h1> for the page topic; downgrade others to <h2> or <h3>.",
					in.Scores.Accessibility+8)
			},
		},
		{
			ID: "no-h1", Category: report.PillarAccessibility,
			Test: func(in Input) bool { return in.Metrics.Accessibility.H1Count == 0 },
			Build: func(in Input) Finding {
				return medium(
					"No <h1> heading; screen readers rely on a primary heading for orientation.",
					"Add a single <h1> summarizing the page purpose.",
					in.Scores.Accessibility+12)
			},
		},
		{
			ID: "low-alt-coverage", Category: report.PillarAccessibility,
			Test: func(in Input) bool { return in.Metrics.Accessibility.AltCoverage < 0.6 },
			Build: func(in Input) Finding {
				alt := in.Metrics.Accessibility.AltCoverage
				return Finding{
					Severity: escalate(alt < 0.3),
					Why:      fmt.Sprintf("Only %.0f%% of images have alt text.", alt*100),
					Fix:      `Add descriptive alt text to informative images; mark decorative images with empty alt="".`,
					Target:   in.Scores.Accessibility + 15,
				}
			},
		},
		{
			ID: "outline-issues", Category: report.PillarAccessibility,
			Test: func(in Input) bool { return in.Metrics.Accessibility.OutlineIssues > 2 },
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("%d heading outline irregularities (skipped levels or extra H1).", in.Metrics.Accessibility.OutlineIssues),
					"Ensure heading levels increase by one without skipping (for example h2 after h1).",
					in.Scores.Accessibility+5)
			},
		},
		{
			ID: "missing-lang", Category: report.PillarAccessibility,
			Test: func(in Input) bool { return !in.Metrics.Accessibility.HasLang },
			Build: func(in Input) Finding {
				return medium(
					"<html> lang attribute missing; assistive tech cannot determine language.",
					`Add <html lang="en"> (or the appropriate language code).`,
					in.Scores.Accessibility+6)
			},
		},

		// Performance defects.
		{
			ID: "large-page-weight", Category: report.PillarPerformance,
			Test: func(in Input) bool { return in.Metrics.Size.TotalBytes > 2_000_000 },
			Build: func(in Input) Finding {
				b := in.Metrics.Size.TotalBytes
				return Finding{
					Severity: escalate(b > 4_000_000),
					Why:      fmt.Sprintf("HTML size %.0fKB exceeds recommended budget (300KB ideal).", kb(b)),
					Fix:      "Defer non-critical scripts, compress assets, and remove unused markup.",
					Target:   in.Scores.Performance + 18,
				}
			},
		},
		{
			ID: "slow-ttfb", Category: report.PillarPerformance,
			Test: func(in Input) bool { return in.Metrics.Timing.TTFBMs > 1200 },
			Build: func(in Input) Finding {
				t := in.Metrics.Timing.TTFBMs
				return Finding{
					Severity: escalate(t > 2000),
					Why:      fmt.Sprintf("TTFB %dms is high; indicates server or network latency.", t),
					Fix:      "Enable caching or a CDN, optimize server rendering, and reduce cold start overhead.",
					Target:   in.Scores.Performance + 12,
				}
			},
		},
		{
			ID: "many-requests", Category: report.PillarPerformance,
			Test: func(in Input) bool { return in.Metrics.Counts.Requests > 80 },
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("%d requests; high connection overhead can delay rendering.", in.Metrics.Counts.Requests),
					"Combine files, leverage HTTP/2 multiplexing, and code-split only essentials.",
					in.Scores.Performance+6)
			},
		},

		// UX defects.
		{
			ID: "missing-viewport", Category: report.PillarUX,
			Test: func(in Input) bool { return !in.Metrics.UX.HasViewport },
			Build: func(in Input) Finding {
				return high(
					"Responsive viewport meta missing; mobile layout may be broken.",
					`Add <meta name="viewport" content="width=device-width,initial-scale=1">.`,
					in.Scores.UX+20)
			},
		},
		{
			ID: "no-favicon", Category: report.PillarUX,
			Test: func(in Input) bool { return !in.Metrics.UX.HasFavicon },
			Build: func(in Input) Finding {
				return low(
					"No favicon detected; reduces recognizability in tabs and history.",
					`Add <link rel="icon" href="/favicon.ico" sizes="any">.`,
					in.Scores.UX+4)
			},
		},
		{
			ID: "low-font-display-adoption", Category: report.PillarUX,
			Test: func(in Input) bool {
				p := in.Metrics.UX.FontDisplayPercent
				return p > 0 && p < 40
			},
			Build: func(in Input) Finding {
				return low(
					fmt.Sprintf("Only %.0f%% of font declarations provide font-display for faster text render.", in.Metrics.UX.FontDisplayPercent),
					"Add font-display: swap (or optional) to @font-face or use &display=swap on Google Fonts URLs.",
					in.Scores.UX+5)
			},
		},

		// Security defects.
		{
			ID: "insecure-transport", Category: report.PillarSecurity,
			Test: func(in Input) bool {
				s := in.Metrics.Security
				return !s.HTTPS && s.Headers.Count() == 0
			},
			Build: func(in Input) Finding {
				return high(
					"Page is served over plain HTTP without any defensive headers.",
					"Serve the page over HTTPS and redirect http:// requests to it.",
					max(45, in.Scores.Security+15))
			},
		},
		{
			ID: "mixed-content", Category: report.PillarSecurity,
			Test: func(in Input) bool { return in.Metrics.Security.MixedContent > 0 },
			Build: func(in Input) Finding {
				return medium(
					fmt.Sprintf("%d insecure http:// sub-resources loaded on an HTTPS page.", in.Metrics.Security.MixedContent),
					"Serve resources over HTTPS or remove them to avoid security warnings.",
					in.Scores.Security+10)
			},
		},
		{
			ID: "missing-csp", Category: report.PillarSecurity,
			Test: func(in Input) bool { return !in.Metrics.Security.Headers.CSP },
			Build: func(in Input) Finding {
				return medium(
					"No Content-Security-Policy header; increases XSS risk.",
					"Add a CSP header (start with default-src 'self'; object-src 'none'; frame-ancestors 'none').",
					in.Scores.Security+8)
			},
		},
		{
			ID: "missing-referrer-policy", Category: report.PillarSecurity,
			Test: func(in Input) bool { return !in.Metrics.Security.Headers.Referrer },
			Build: func(in Input) Finding {
				return low(
					"No Referrer-Policy header; may leak full URLs to third parties.",
					"Add Referrer-Policy: strict-origin-when-cross-origin.",
					in.Scores.Security+4)
			},
		},
		{
			ID: "missing-xfo", Category: report.PillarSecurity,
			Test: func(in Input) bool { return !in.Metrics.Security.Headers.XFO },
			Build: func(in Input) Finding {
				return low(
					"No X-Frame-Options header; clickjacking protection absent.",
					"Add X-Frame-Options: DENY (or use frame-ancestors in CSP).",
					in.Scores.Security+3)
			},
		},
		{
			ID: "missing-permissions-policy", Category: report.PillarSecurity,
			Test: func(in Input) bool { return !in.Metrics.Security.Headers.Permissions },
			Build: func(in Input) Finding {
				return low(
					"No Permissions-Policy header; cannot restrict usage of powerful APIs.",
					"Add a Permissions-Policy header limiting features (for example geolocation=()).",
					in.Scores.Security+3)
			},
		},
	}
}
