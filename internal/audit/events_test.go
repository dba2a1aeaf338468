package audit

import (
	"testing"
	"time"

	"github.com/JakeFAU/sitepulse/internal/report"
)

func TestNewCompletedEvent(t *testing.T) {
	t.Parallel()

	fetched := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rep := report.Report{
		ID:         "r2",
		URL:        "https://example.com/",
		Overall:    71.4,
		Scores:     report.PillarScores{SEO: 100},
		Issues:     []report.Issue{{ID: "missing-csp"}, {ID: "no-h1"}},
		PreviousID: "r1",
		FetchedAt:  fetched,
	}

	ev := NewCompletedEvent(rep)
	if ev.Type != EventAuditCompleted || ev.EventType() != EventAuditCompleted {
		t.Fatalf("unexpected event type %q", ev.Type)
	}
	if ev.ReportID != "r2" || ev.PreviousID != "r1" || ev.URL != rep.URL {
		t.Fatalf("identity fields not copied: %+v", ev)
	}
	if ev.Overall != 71.4 || ev.Scores.SEO != 100 || !ev.FetchedAt.Equal(fetched) {
		t.Fatalf("score fields not copied: %+v", ev)
	}
	if len(ev.IssueIDs) != 2 || ev.IssueIDs[0] != "missing-csp" || ev.IssueIDs[1] != "no-h1" {
		t.Fatalf("unexpected issue ids %v", ev.IssueIDs)
	}
}
