// Package collyfetcher implements audit.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/sitepulse/internal/audit"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	// Timeout applies when a request carries none.
	Timeout time.Duration
	// MaxHTMLBytes caps the captured body; larger pages are truncated.
	MaxHTMLBytes int
	// AllowPrivateNetworks disables the dial-time address guard (tests only).
	AllowPrivateNetworks bool
}

// Fetcher implements audit.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponseHeaders(colly.ResponseHeadersCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// fetchState collects what the hooks observe during one visit.
type fetchState struct {
	mu       sync.Mutex
	start    time.Time
	ttfb     time.Duration
	result   audit.FetchResult
	rejected error
	fetchErr error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = audit.DefaultTimeout
	}
	if cfg.MaxHTMLBytes <= 0 {
		cfg.MaxHTMLBytes = audit.DefaultMaxHTMLBytes
	}

	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
	)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	// The limit applies to the decoded body. One extra byte tells a body that exactly fills the cap from one that overflows it.
	c.MaxBodySize = cfg.MaxHTMLBytes + 1
	c.ParseHTTPErrorResponse = true
	// Deadlines come from the per-fetch context.
	c.SetRequestTimeout(0)
	c.WithTransport(&decodingTransport{base: newHTTPTransport(!cfg.AllowPrivateNetworks)})

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly. The request is bound to ctx,
// so a deadline or cancellation aborts the in-flight transfer.
func (f *Fetcher) Fetch(ctx context.Context, request audit.FetchRequest) (audit.FetchResult, error) {
	timeout := request.Timeout
	if timeout <= 0 {
		timeout = f.cfg.Timeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state := &fetchState{}
	collector := f.buildCollector(fetchCtx, state)

	if err := f.runCollector(fetchCtx, collector, request.URL, state); err != nil {
		return audit.FetchResult{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	result := state.result
	result.URL = request.URL
	return result, nil
}

func (f *Fetcher) buildCollector(ctx context.Context, state *fetchState) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	f.configureCollectorHooks(collector, state)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, state *fetchState) {
	hooks.OnRequest(func(_ *colly.Request) {
		state.mu.Lock()
		state.start = time.Now()
		state.mu.Unlock()
	})

	hooks.OnResponseHeaders(func(r *colly.Response) {
		state.mu.Lock()
		defer state.mu.Unlock()
		state.ttfb = time.Since(state.start)
		if err := checkResponseHeaders(r.StatusCode, r.Headers); err != nil {
			state.rejected = err
			r.Request.Abort()
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		state.mu.Lock()
		defer state.mu.Unlock()
		body := r.Body
		truncated := false
		if len(body) > f.cfg.MaxHTMLBytes {
			body = body[:f.cfg.MaxHTMLBytes]
			truncated = true
		}
		finalURL := ""
		if r.Request != nil && r.Request.URL != nil {
			finalURL = r.Request.URL.String()
		}
		state.result = audit.FetchResult{
			FinalURL:   finalURL,
			StatusCode: r.StatusCode,
			Headers:    lowerHeaders(r.Headers),
			TTFB:       state.ttfb,
			HTML:       strings.ToValidUTF8(string(body), "\uFFFD"),
			Truncated:  truncated,
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		state.mu.Lock()
		defer state.mu.Unlock()
		state.fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, state *fetchState) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	var visitErr error
	select {
	case <-ctx.Done():
		return classify(ctx.Err())
	case visitErr = <-done:
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.rejected != nil {
		return state.rejected
	}
	if visitErr == nil {
		visitErr = state.fetchErr
	}
	if visitErr != nil {
		return classify(fmt.Errorf("colly visit failed: %w", visitErr))
	}
	return nil
}

// checkResponseHeaders rejects error statuses and non-HTML bodies before the
// body is downloaded.
func checkResponseHeaders(status int, headers *http.Header) error {
	if status >= http.StatusBadRequest {
		return audit.HTTPStatusError(status)
	}
	contentType := ""
	if headers != nil {
		contentType = strings.TrimSpace(headers.Get("Content-Type"))
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		return audit.NonHTMLError(contentType)
	}
	return nil
}

func classify(err error) error {
	var blocked *blockedAddressError
	if errors.As(err, &blocked) {
		return audit.BlockedHostError(blocked.host)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return audit.TimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return audit.TimeoutError(err)
	}
	return audit.NetworkError(err)
}

func lowerHeaders(headers *http.Header) map[string]string {
	out := map[string]string{}
	if headers == nil {
		return out
	}
	for key, values := range *headers {
		out[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	return out
}
