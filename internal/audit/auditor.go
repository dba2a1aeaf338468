package audit

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitepulse/internal/extract"
	"github.com/JakeFAU/sitepulse/internal/metrics"
	"github.com/JakeFAU/sitepulse/internal/report"
	"github.com/JakeFAU/sitepulse/internal/rules"
	"github.com/JakeFAU/sitepulse/internal/scoring"
)

const tracerName = "github.com/JakeFAU/sitepulse/internal/audit"

// Config controls Auditor behavior.
type Config struct {
	// Timeout bounds the page fetch. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Auditor runs the pipeline for one URL at a time. It holds no mutable state,
// so a single Auditor may serve any number of concurrent Run calls.
type Auditor struct {
	fetcher    Fetcher
	normalizer *Normalizer
	idGen      IDGenerator
	clock      Clock
	hasher     Hasher
	cfg        Config
	logger     *zap.Logger
	tracer     trace.Tracer
}

// New constructs an Auditor.
func New(
	fetcher Fetcher,
	normalizer *Normalizer,
	idGen IDGenerator,
	clock Clock,
	hasher Hasher,
	cfg Config,
	logger *zap.Logger,
) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = &Normalizer{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	metrics.Init()
	return &Auditor{
		fetcher:    fetcher,
		normalizer: normalizer,
		idGen:      idGen,
		clock:      clock,
		hasher:     hasher,
		cfg:        cfg,
		logger:     logger.Named("audit"),
		tracer:     otel.Tracer(tracerName),
	}
}

// Run audits rawURL and returns a new Report. Every failure is an *Error.
func (a *Auditor) Run(ctx context.Context, rawURL string, opts Options) (report.Report, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "audit.Run")
	defer span.End()

	rep, err := a.run(ctx, rawURL, opts)
	if err != nil {
		ae := AsError(err)
		span.RecordError(ae)
		span.SetStatus(codes.Error, string(ae.Code))
		metrics.ObserveAudit(string(ae.Code), time.Since(start))
		a.logger.Info("audit failed",
			zap.String("url", rawURL),
			zap.String("code", string(ae.Code)),
			zap.Error(ae),
		)
		return report.Report{}, ae
	}

	ids := rep.IssueIDs()
	metrics.ObserveAudit(metrics.OutcomeSuccess, time.Since(start))
	metrics.ObserveIssues(ids)
	span.SetAttributes(
		attribute.String("audit.report_id", rep.ID),
		attribute.Float64("audit.overall", rep.Overall),
		attribute.Int("audit.issues", len(ids)),
	)
	a.logger.Info("audit completed",
		zap.String("url", rep.URL),
		zap.String("report_id", rep.ID),
		zap.Float64("overall", rep.Overall),
		zap.Int("issues", len(ids)),
		zap.Duration("duration", time.Since(start)),
	)
	return rep, nil
}

func (a *Auditor) run(ctx context.Context, rawURL string, opts Options) (report.Report, error) {
	canonical, err := a.normalizer.Normalize(rawURL)
	if err != nil {
		return report.Report{}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("audit.url", canonical))
	a.logger.Debug("normalized url", zap.String("url", canonical))

	fetched, err := a.fetch(ctx, canonical)
	if err != nil {
		return report.Report{}, err
	}
	metrics.ObserveFetch(len(fetched.HTML), fetched.Truncated)
	if fetched.Truncated {
		a.logger.Warn("html truncated at byte cap",
			zap.String("url", canonical),
			zap.Int("bytes", len(fetched.HTML)),
		)
	}

	parsed, err := extract.Extract(fetched.HTML, canonical)
	if err != nil {
		return report.Report{}, InternalError("parsing the page", err)
	}
	raw := Aggregate(parsed, fetched)
	scored := scoring.Compute(raw)
	issues := rules.Derive(raw, scored.Scores)
	a.logger.Debug("scored page",
		zap.String("url", canonical),
		zap.Float64("overall", scored.Overall),
		zap.Int("issues", len(issues)),
	)

	id, err := a.idGen.NewID()
	if err != nil {
		return report.Report{}, InternalError("generating the report id", err)
	}
	digest := ""
	if a.hasher != nil {
		if digest, err = a.hasher.Hash([]byte(fetched.HTML)); err != nil {
			return report.Report{}, InternalError("hashing the page", err)
		}
	}
	finalURL := fetched.FinalURL
	if finalURL == "" {
		finalURL = canonical
	}

	return report.Report{
		ID:            id,
		Version:       report.SchemaVersion,
		URL:           canonical,
		FinalURL:      finalURL,
		PageTitle:     displayTitle(raw.PageTitle, canonical),
		FetchedAt:     a.clock.Now().UTC(),
		Overall:       scored.Overall,
		Scores:        scored.Scores,
		Caps:          scored.Caps,
		Metrics:       raw,
		Issues:        issues,
		Truncated:     fetched.Truncated,
		ContentSHA256: digest,
		PreviousID:    strings.TrimSpace(opts.PreviousID),
	}, nil
}

func (a *Auditor) fetch(ctx context.Context, canonical string) (FetchResult, error) {
	ctx, span := a.tracer.Start(ctx, "audit.Fetch", trace.WithAttributes(attribute.String("http.url", canonical)))
	defer span.End()

	fetched, err := a.fetcher.Fetch(ctx, FetchRequest{URL: canonical, Timeout: a.cfg.Timeout})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return FetchResult{}, AsError(err)
	}
	span.SetAttributes(
		attribute.Int("http.status_code", fetched.StatusCode),
		attribute.Int("audit.html_bytes", len(fetched.HTML)),
		attribute.Bool("audit.truncated", fetched.Truncated),
	)
	return fetched, nil
}

// displayTitle falls back to the hostname without a leading "www." when the
// page has no title.
func displayTitle(title, canonical string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	u, err := url.Parse(canonical)
	if err != nil {
		return canonical
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
