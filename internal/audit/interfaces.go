package audit

import (
	"context"
	"time"

	"github.com/JakeFAU/sitepulse/internal/report"
)

// Fetcher retrieves a page and returns its body plus response metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResult, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces report IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// ReportStore is the short-lived report cache. Implementations must be safe
// for concurrent use and must never mutate a stored report.
type ReportStore interface {
	Put(ctx context.Context, id string, r report.Report) error
	Get(ctx context.Context, id string) (report.Report, bool, error)
}

// Throttle admits or rejects work per client key.
type Throttle interface {
	TakeToken(clientKey string) (allowed bool, remaining int)
}

// Publisher pushes audit notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
