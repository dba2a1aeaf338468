// Package memory provides the short-lived in-process report cache.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JakeFAU/sitepulse/internal/report"
)

// Defaults mirror the service configuration.
const (
	DefaultTTL      = 10 * time.Minute
	DefaultCapacity = 400
)

type entry struct {
	report   report.Report
	storedAt time.Time
}

// ReportStore keeps reports for a fixed TTL and evicts the oldest entry when
// full. Reports are copied on the way in and out, so callers can never mutate
// a stored report.
type ReportStore struct {
	mu       sync.RWMutex
	entries  map[string]entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewReportStore constructs a ReportStore. Non-positive values fall back to the defaults.
func NewReportStore(ttl time.Duration, capacity int) *ReportStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ReportStore{
		entries:  make(map[string]entry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// Put stores a copy of r under id.
func (s *ReportStore) Put(_ context.Context, id string, r report.Report) error {
	if id == "" {
		return errors.New("report id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if _, exists := s.entries[id]; !exists && len(s.entries) >= s.capacity {
		s.purgeExpiredLocked(now)
		if len(s.entries) >= s.capacity {
			s.evictOldestLocked()
		}
	}
	s.entries[id] = entry{report: r.Clone(), storedAt: now}
	return nil
}

// Get returns a copy of the report stored under id. Expired entries are
// reported absent and dropped.
func (s *ReportStore) Get(_ context.Context, id string) (report.Report, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return report.Report{}, false, nil
	}
	if s.expired(e, s.now()) {
		s.mu.Lock()
		if current, still := s.entries[id]; still && s.expired(current, s.now()) {
			delete(s.entries, id)
		}
		s.mu.Unlock()
		return report.Report{}, false, nil
	}
	return e.report.Clone(), true, nil
}

// Len returns the number of entries held, including expired ones not yet purged.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *ReportStore) expired(e entry, now time.Time) bool {
	return now.Sub(e.storedAt) > s.ttl
}

func (s *ReportStore) purgeExpiredLocked(now time.Time) {
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
		}
	}
}

func (s *ReportStore) evictOldestLocked() {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, e := range s.entries {
		if oldestID == "" || e.storedAt.Before(oldestAt) {
			oldestID, oldestAt = id, e.storedAt
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
	}
}
