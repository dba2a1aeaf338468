package audit

import (
	"testing"
	"time"

	"github.com/JakeFAU/sitepulse/internal/report"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	parsed := report.RawMetrics{
		Size:      report.Size{TotalBytes: 10_000},
		PageTitle: "Home",
	}
	fetched := FetchResult{
		TTFB: 250 * time.Millisecond,
		Headers: map[string]string{
			"content-security-policy": "default-src 'self'",
			"x-frame-options":         "DENY",
			"referrer-policy":         "  ",
			"content-length":          "4000",
		},
	}

	got := Aggregate(parsed, fetched)
	if got.Timing.TTFBMs != 250 {
		t.Fatalf("ttfb = %d, want 250", got.Timing.TTFBMs)
	}
	want := report.SecurityHeaders{CSP: true, XFO: true}
	if got.Security.Headers != want {
		t.Fatalf("headers = %+v, want %+v", got.Security.Headers, want)
	}
	if got.Size.TotalBytes != 4000 {
		t.Fatalf("total bytes = %d, want network size 4000", got.Size.TotalBytes)
	}
	if got.PageTitle != "Home" {
		t.Fatalf("page title lost: %q", got.PageTitle)
	}
	if parsed.Timing.TTFBMs != 0 || parsed.Size.TotalBytes != 10_000 {
		t.Fatal("input metrics were mutated")
	}
}

func TestAggregateContentLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		parsed int64
		header string
		want   int64
	}{
		{name: "larger declared size ignored", parsed: 1000, header: "5000", want: 1000},
		{name: "zero declared size ignored", parsed: 1000, header: "0", want: 1000},
		{name: "garbage ignored", parsed: 1000, header: "abc", want: 1000},
		{name: "empty body keeps zero", parsed: 0, header: "500", want: 0},
		{name: "compressed size preferred", parsed: 1000, header: " 300 ", want: 300},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Aggregate(
				report.RawMetrics{Size: report.Size{TotalBytes: tt.parsed}},
				FetchResult{Headers: map[string]string{"content-length": tt.header}},
			)
			if got.Size.TotalBytes != tt.want {
				t.Fatalf("total bytes = %d, want %d", got.Size.TotalBytes, tt.want)
			}
		})
	}
}
