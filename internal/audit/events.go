package audit

import (
	"time"

	"github.com/JakeFAU/sitepulse/internal/report"
)

// EventAuditCompleted is the type of the notification published after a
// successful audit.
const EventAuditCompleted = "audit.completed"

// CompletedEvent is the notification payload for a finished audit. It carries
// scores and issue identifiers only, never page content.
type CompletedEvent struct {
	Type       string              `json:"type"`
	ReportID   string              `json:"report_id"`
	URL        string              `json:"url"`
	Overall    float64             `json:"overall"`
	Scores     report.PillarScores `json:"scores"`
	IssueIDs   []string            `json:"issue_ids"`
	PreviousID string              `json:"previous_id,omitempty"`
	FetchedAt  time.Time           `json:"fetched_at"`
}

// NewCompletedEvent summarizes r.
func NewCompletedEvent(r report.Report) CompletedEvent {
	return CompletedEvent{
		Type:       EventAuditCompleted,
		ReportID:   r.ID,
		URL:        r.URL,
		Overall:    r.Overall,
		Scores:     r.Scores,
		IssueIDs:   r.IssueIDs(),
		PreviousID: r.PreviousID,
		FetchedAt:  r.FetchedAt,
	}
}

// EventType implements the attribute hook used by publishers.
func (CompletedEvent) EventType() string {
	return EventAuditCompleted
}
