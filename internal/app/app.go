// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitepulse/internal/api"
	"github.com/JakeFAU/sitepulse/internal/audit"
	"github.com/JakeFAU/sitepulse/internal/clock/system"
	"github.com/JakeFAU/sitepulse/internal/config"
	collyfetcher "github.com/JakeFAU/sitepulse/internal/fetcher/colly"
	"github.com/JakeFAU/sitepulse/internal/hash/sha256"
	"github.com/JakeFAU/sitepulse/internal/id/uuid"
	"github.com/JakeFAU/sitepulse/internal/policy/ratelimit"
	publisherMemory "github.com/JakeFAU/sitepulse/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/sitepulse/internal/publisher/pubsub"
	storageMemory "github.com/JakeFAU/sitepulse/internal/storage/memory"
	"github.com/JakeFAU/sitepulse/internal/telemetry"
)

// ClosablePublisher is a publisher holding a connection that must be released.
type ClosablePublisher interface {
	audit.Publisher
	Close() error
}

// PubSubFactory dials the Pub/Sub publisher. Tests replace it.
var PubSubFactory = func(ctx context.Context, projectID, topic string) (ClosablePublisher, error) {
	return pubsubpublisher.New(ctx, projectID, topic)
}

// App holds the shared, long-lived services for one process: the audit
// pipeline and the collaborators the transport boundary needs.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	tracing   *sdktrace.TracerProvider
	auditor   *audit.Auditor
	store     *storageMemory.ReportStore
	throttle  *ratelimit.Limiter
	publisher audit.Publisher
	closer    func() error
}

// New creates and initializes an App from cfg. It fails fast if a configured
// backend cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("initializing application services")

	tp, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		tracing: tp,
		store:   storageMemory.NewReportStore(cfg.Store.TTL, cfg.Store.Capacity),
		throttle: ratelimit.New(ratelimit.Config{
			Capacity:        cfg.RateLimit.Capacity,
			RefillPerSecond: cfg.RateLimit.RefillPerSecond,
			IdleTTL:         cfg.RateLimit.IdleTTL,
		}),
	}

	switch cfg.Publisher.Backend {
	case config.PublisherPubSub:
		logger.Info("using pubsub publisher", zap.String("topic", cfg.Publisher.Topic))
		pub, err := PubSubFactory(ctx, cfg.Publisher.ProjectID, cfg.Publisher.Topic)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		a.publisher = pub
		a.closer = pub.Close
	case config.PublisherMemory:
		logger.Info("using in-memory publisher")
		a.publisher = publisherMemory.New()
	case config.PublisherNone, "":
		logger.Debug("audit notifications disabled")
	default:
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("unknown publisher backend: %s", cfg.Publisher.Backend)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:            cfg.Audit.UserAgent,
		Timeout:              cfg.Audit.Timeout,
		MaxHTMLBytes:         cfg.Audit.MaxHTMLBytes,
		AllowPrivateNetworks: cfg.Audit.AllowPrivateNetworks,
	})
	a.auditor = audit.New(
		fetcher,
		audit.NewNormalizer(cfg.Audit.BlockedDomains, cfg.Audit.AllowPrivateNetworks),
		uuid.NewUUIDGenerator(),
		system.New(),
		sha256.New(),
		audit.Config{Timeout: cfg.Audit.Timeout},
		logger,
	)

	logger.Debug("application services initialized")
	return a, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Auditor returns the audit pipeline.
func (a *App) Auditor() *audit.Auditor {
	return a.auditor
}

// Store returns the report cache.
func (a *App) Store() *storageMemory.ReportStore {
	return a.store
}

// Publisher returns the configured publisher, or nil when notifications are disabled.
func (a *App) Publisher() audit.Publisher {
	return a.publisher
}

// Server builds the HTTP transport over the App's services.
func (a *App) Server() *api.Server {
	return api.NewServer(a.auditor, a.store, a.throttle, a.publisher, a.cfg, a.logger)
}

// Close shuts down the publisher and flushes the tracer provider.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.closer != nil {
		if err := a.closer(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}
