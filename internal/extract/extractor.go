// Package extract walks a parsed HTML document exactly once and derives the
// structural and content signals that feed scoring.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/JakeFAU/sitepulse/internal/report"
)

var (
	fontFaceRule     = regexp.MustCompile(`(?i)@font-face`)
	fontDisplayRule  = regexp.MustCompile(`(?i)font-display\s*:\s*(swap|optional|fallback)`)
	fontDisplayParam = regexp.MustCompile(`(?i)[?&]display=(swap|optional|fallback)`)
	insecureRef      = regexp.MustCompile(`(?i)^\s*http://`)
)

const googleFontsHost = "fonts.googleapis.com"

// walkContext carries the running counters of one traversal. It is discarded
// once the immutable RawMetrics has been produced.
type walkContext struct {
	secure bool

	title                string
	titleChars           int
	metaDescriptionChars int
	hasCanonical         bool
	hasViewport          bool
	hasFavicon           bool
	hasLang              bool

	h1Count  int
	headings []int

	imgTotal   int
	imgWithAlt int
	landmarks  int
	mixed      int

	fontTotal int
	fontHits  int

	scripts           int
	stylesheets       int
	inlineScriptBytes int64
}

// Extract parses htmlText and returns its RawMetrics. pageURL decides whether
// the page is secure for mixed-content checks. Time-to-first-byte and the
// security header flags are left zero for the aggregator to fill.
func Extract(htmlText, pageURL string) (report.RawMetrics, error) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return report.RawMetrics{}, fmt.Errorf("parse html: %w", err)
	}
	ctx := &walkContext{secure: strings.HasPrefix(strings.ToLower(pageURL), "https:")}
	ctx.walk(doc)
	return ctx.metrics(int64(len(htmlText))), nil
}

func (c *walkContext) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		c.visitElement(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

func (c *walkContext) visitElement(n *html.Node) {
	switch n.DataAtom {
	case atom.Html:
		if strings.TrimSpace(attr(n, "lang")) != "" {
			c.hasLang = true
		}
	case atom.Title:
		if n.Namespace == "" && c.title == "" {
			if text := strings.TrimSpace(textContent(n)); text != "" {
				c.title = text
				c.titleChars = utf8.RuneCountInString(text)
			}
		}
	case atom.Meta:
		c.visitMeta(n)
	case atom.Link:
		c.visitLink(n)
	case atom.Img:
		c.imgTotal++
		if strings.TrimSpace(attr(n, "alt")) != "" {
			c.imgWithAlt++
		}
		c.checkMixed(attr(n, "src"))
	case atom.Script:
		c.scripts++
		if src := attr(n, "src"); src != "" {
			c.checkMixed(src)
		} else {
			c.inlineScriptBytes += int64(len(textContent(n)))
		}
	case atom.Style:
		css := textContent(n)
		faces := len(fontFaceRule.FindAllStringIndex(css, -1))
		if faces > 0 {
			displays := len(fontDisplayRule.FindAllStringIndex(css, -1))
			c.fontTotal += faces
			c.fontHits += min(displays, faces)
		}
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		if level == 1 {
			c.h1Count++
		}
		c.headings = append(c.headings, level)
	case atom.Header, atom.Nav, atom.Main, atom.Footer:
		c.landmarks++
	}
}

func (c *walkContext) visitMeta(n *html.Node) {
	switch strings.ToLower(strings.TrimSpace(attr(n, "name"))) {
	case "description":
		c.metaDescriptionChars = utf8.RuneCountInString(strings.TrimSpace(attr(n, "content")))
	case "viewport":
		c.hasViewport = true
	}
}

func (c *walkContext) visitLink(n *html.Node) {
	rel := strings.ToLower(attr(n, "rel"))
	tokens := strings.Fields(rel)
	href := attr(n, "href")

	if hasToken(tokens, "canonical") {
		c.hasCanonical = true
	}
	if strings.Contains(rel, "icon") {
		c.hasFavicon = true
	}
	isStylesheet := hasToken(tokens, "stylesheet")
	if isStylesheet {
		c.stylesheets++
	}
	as := strings.ToLower(attr(n, "as"))
	isStylePreload := hasToken(tokens, "preload") && as == "style"
	isFontPreload := hasToken(tokens, "preload") && (as == "font" || as == "style")
	// Only links that load the font CSS count; preconnect and dns-prefetch hints do not.
	isGoogleFont := (isStylesheet || isStylePreload) &&
		strings.Contains(strings.ToLower(href), googleFontsHost)
	if isGoogleFont {
		c.fontTotal++
		if fontDisplayParam.MatchString(href) {
			c.fontHits++
		}
	}
	if isStylesheet || isGoogleFont || isFontPreload {
		c.checkMixed(href)
	}
}

func (c *walkContext) checkMixed(ref string) {
	if c.secure && insecureRef.MatchString(ref) {
		c.mixed++
	}
}

func (c *walkContext) metrics(totalBytes int64) report.RawMetrics {
	outline := 0
	prev := 0
	for _, level := range c.headings {
		if prev != 0 && level > prev+1 {
			outline++
		}
		prev = level
	}
	// Extra primary headings also count, independent of skipped levels.
	if c.h1Count > 1 {
		outline += c.h1Count - 1
	}

	altCoverage := 1.0
	if c.imgTotal > 0 {
		altCoverage = float64(c.imgWithAlt) / float64(c.imgTotal)
	}
	fontPercent := 0.0
	if c.fontTotal > 0 {
		fontPercent = float64(c.fontHits) / float64(c.fontTotal) * 100
	}

	return report.RawMetrics{
		Size: report.Size{
			TotalBytes: totalBytes,
			JSBytes:    c.inlineScriptBytes,
		},
		Counts: report.Counts{
			Requests:    1 + c.scripts + c.stylesheets + c.imgTotal,
			Images:      c.imgTotal,
			Scripts:     c.scripts,
			Stylesheets: c.stylesheets,
		},
		Accessibility: report.AccessibilitySignals{
			AltCoverage:   clamp(altCoverage, 0, 1),
			H1Count:       c.h1Count,
			OutlineIssues: outline,
			Landmarks:     c.landmarks,
			HasLang:       c.hasLang,
		},
		SEO: report.SEOSignals{
			TitleChars:           c.titleChars,
			MetaDescriptionChars: c.metaDescriptionChars,
			HasCanonical:         c.hasCanonical,
			H1Exists:             c.h1Count > 0,
		},
		Security: report.SecuritySignals{
			HTTPS:        c.secure,
			MixedContent: c.mixed,
		},
		UX: report.UXSignals{
			HasViewport:        c.hasViewport,
			HasFavicon:         c.hasFavicon,
			FontDisplayPercent: clamp(fontPercent, 0, 100),
			JSWeightKB:         float64(c.inlineScriptBytes) / 1024,
		},
		PageTitle: c.title,
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
