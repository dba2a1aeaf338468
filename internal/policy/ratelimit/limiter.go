// Package ratelimit implements the per-client token bucket that throttles audit requests.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Defaults: a burst of 8 audits refilled at one token every two seconds.
const (
	DefaultCapacity        = 8
	DefaultRefillPerSecond = 0.5
	DefaultIdleTTL         = 10 * time.Minute
)

// Config holds rate limiter configuration.
type Config struct {
	Capacity        int
	RefillPerSecond float64
	// IdleTTL is how long an untouched bucket is kept before it is swept.
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages one token bucket per client key.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.RefillPerSecond <= 0 {
		cfg.RefillPerSecond = DefaultRefillPerSecond
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(cfg.RefillPerSecond),
		burst:   cfg.Capacity,
		idleTTL: cfg.IdleTTL,
		now:     time.Now,
	}
}

// TakeToken consumes one token for clientKey if available and reports how
// many whole tokens remain afterwards.
func (l *Limiter) TakeToken(clientKey string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweepLocked(now)

	b, ok := l.buckets[clientKey]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[clientKey] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	remaining := int(math.Floor(b.limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}

// Len returns the number of tracked client buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) maybeSweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}
