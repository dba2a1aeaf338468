package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html lang="en">
<head>
  <title>  Example Title  </title>
  <meta name="description" content="A short description of the page.">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <link rel="canonical" href="https://example.com/">
  <link rel="shortcut icon" href="/favicon.ico">
  <link rel="stylesheet" href="/site.css">
  <link rel="stylesheet" href="http://cdn.example.com/legacy.css">
  <link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Inter&display=swap">
  <style>
    @font-face { font-family: A; src: url(a.woff2); font-display: swap; }
    @font-face { font-family: B; src: url(b.woff2); }
  </style>
  <script src="http://cdn.example.com/app.js"></script>
  <script>var x = "héllo";</script>
</head>
<body>
  <header><nav>menu</nav></header>
  <main>
    <h1>Primary</h1>
    <h3>Skipped a level</h3>
    <h2>Back up</h2>
    <h1>Second primary</h1>
    <img src="/a.png" alt="A">
    <img src="http://insecure.example.com/b.png" alt="  ">
    <img src="/c.png">
    <img src="/d.png" alt="D">
  </main>
  <footer>bye</footer>
</body>
</html>`

func TestExtractSamplePage(t *testing.T) {
	t.Parallel()

	m, err := Extract(samplePage, "https://example.com/")
	require.NoError(t, err)

	require.Equal(t, "Example Title", m.PageTitle)
	require.Equal(t, 13, m.SEO.TitleChars)
	require.Equal(t, len("A short description of the page."), m.SEO.MetaDescriptionChars)
	require.True(t, m.SEO.HasCanonical)
	require.True(t, m.SEO.H1Exists)

	require.Equal(t, 2, m.Accessibility.H1Count)
	// h1 -> h3 skips a level, plus one extra h1.
	require.Equal(t, 2, m.Accessibility.OutlineIssues)
	require.InDelta(t, 0.5, m.Accessibility.AltCoverage, 1e-9)
	require.Equal(t, 4, m.Accessibility.Landmarks)
	require.True(t, m.Accessibility.HasLang)

	require.True(t, m.UX.HasViewport)
	require.True(t, m.UX.HasFavicon)
	// Three font declarations (two @font-face, one Google Fonts link), two with display.
	require.InDelta(t, 200.0/3.0, m.UX.FontDisplayPercent, 1e-9)

	inline := int64(len(`var x = "héllo";`))
	require.Equal(t, inline, m.Size.JSBytes)
	require.InDelta(t, float64(inline)/1024, m.UX.JSWeightKB, 1e-9)

	require.Equal(t, 4, m.Counts.Images)
	require.Equal(t, 2, m.Counts.Scripts)
	require.Equal(t, 3, m.Counts.Stylesheets)
	require.Equal(t, 1+2+3+4, m.Counts.Requests)

	require.True(t, m.Security.HTTPS)
	require.Equal(t, 3, m.Security.MixedContent)
	require.Equal(t, int64(len(samplePage)), m.Size.TotalBytes)

	require.Zero(t, m.Timing.TTFBMs)
	require.Zero(t, m.Security.Headers.Count())
}

func TestExtractInsecurePageHasNoMixedContent(t *testing.T) {
	t.Parallel()

	m, err := Extract(samplePage, "http://example.com/")
	require.NoError(t, err)
	require.False(t, m.Security.HTTPS)
	require.Zero(t, m.Security.MixedContent)
}

func TestExtractEmptyDocumentDefaults(t *testing.T) {
	t.Parallel()

	m, err := Extract("", "https://example.com/")
	require.NoError(t, err)

	require.Equal(t, 1.0, m.Accessibility.AltCoverage)
	require.Zero(t, m.UX.FontDisplayPercent)
	require.Zero(t, m.SEO.TitleChars)
	require.False(t, m.SEO.H1Exists)
	require.Equal(t, 1, m.Counts.Requests)
	require.Empty(t, m.PageTitle)
}

func TestExtractFirstNonEmptyTitleWins(t *testing.T) {
	t.Parallel()

	m, err := Extract(`<title>   </title><title>Second</title><title>Third</title>`, "https://example.com/")
	require.NoError(t, err)
	require.Equal(t, "Second", m.PageTitle)
	require.Equal(t, 6, m.SEO.TitleChars)
}

func TestExtractIgnoresSVGTitle(t *testing.T) {
	t.Parallel()

	m, err := Extract(`<html><body><svg><title>Icon</title></svg></body></html>`, "https://example.com/")
	require.NoError(t, err)
	require.Zero(t, m.SEO.TitleChars)
}

func TestExtractOutlineIssues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "clean outline", body: "<h1>a</h1><h2>b</h2><h3>c</h3><h2>d</h2>", want: 0},
		{name: "two h1 no skips", body: "<h1>a</h1><h2>b</h2><h1>c</h1>", want: 1},
		{name: "skip from h2 to h5", body: "<h1>a</h1><h2>b</h2><h5>c</h5>", want: 1},
		{name: "first heading deep", body: "<h4>a</h4><h5>b</h5>", want: 0},
		{name: "three h1 with skip", body: "<h1>a</h1><h3>b</h3><h1>c</h1><h1>d</h1>", want: 3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Extract("<html><body>"+tt.body+"</body></html>", "https://example.com/")
			require.NoError(t, err)
			require.Equal(t, tt.want, m.Accessibility.OutlineIssues)
		})
	}
}

func TestExtractTruncatedHTMLIsStillValid(t *testing.T) {
	t.Parallel()

	page := "<html lang=\"en\"><head><title>Cut off</title></head><body><h1>Big</h1>" +
		strings.Repeat("<p>filler</p>", 100) + "<img src=\"/x.png\" al"
	m, err := Extract(page, "https://example.com/")
	require.NoError(t, err)
	require.Equal(t, "Cut off", m.PageTitle)
	require.Equal(t, 1, m.Accessibility.H1Count)
}

func TestExtractFontDisplayNoFonts(t *testing.T) {
	t.Parallel()

	m, err := Extract(`<style>body { color: red; }</style>`, "https://example.com/")
	require.NoError(t, err)
	require.Zero(t, m.UX.FontDisplayPercent)
}

func TestExtractFontDisplayCountsOnlyFontStylesheets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head string
		want float64
	}{
		{
			name: "preconnect hints ignored",
			head: `<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="dns-prefetch" href="https://fonts.googleapis.com">
<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Roboto&display=swap">`,
			want: 100,
		},
		{
			name: "stylesheet without display",
			head: `<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Roboto">`,
			want: 0,
		},
		{
			name: "style preload counts",
			head: `<link rel="preload" as="style" href="https://fonts.googleapis.com/css2?family=Roboto&display=swap">
<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Lato">`,
			want: 50,
		},
		{
			name: "hints only",
			head: `<link rel="preconnect" href="https://fonts.googleapis.com/css2?family=Roboto">`,
			want: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Extract("<html><head>"+tt.head+"</head></html>", "https://example.com/")
			require.NoError(t, err)
			require.InDelta(t, tt.want, m.UX.FontDisplayPercent, 1e-9)
		})
	}
}
