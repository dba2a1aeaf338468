package audit

import (
	"strconv"
	"strings"

	"github.com/JakeFAU/sitepulse/internal/report"
)

// Aggregate merges extractor output with fetch-level signals. The input is
// passed by value and returned modified; the caller's copy is never touched.
func Aggregate(parsed report.RawMetrics, fetched FetchResult) report.RawMetrics {
	metrics := parsed
	metrics.Timing.TTFBMs = fetched.TTFB.Milliseconds()

	h := fetched.Headers
	metrics.Security.Headers = report.SecurityHeaders{
		CSP:         headerPresent(h, "content-security-policy"),
		XFO:         headerPresent(h, "x-frame-options"),
		Referrer:    headerPresent(h, "referrer-policy"),
		Permissions: headerPresent(h, "permissions-policy"),
	}

	// Prefer the network-declared (compressed) size when it is smaller.
	if cl, err := strconv.ParseInt(strings.TrimSpace(h["content-length"]), 10, 64); err == nil {
		if cl > 0 && metrics.Size.TotalBytes > 0 && cl < metrics.Size.TotalBytes {
			metrics.Size.TotalBytes = cl
		}
	}
	return metrics
}

func headerPresent(headers map[string]string, name string) bool {
	return strings.TrimSpace(headers[name]) != ""
}
