package complaint

import "time"

// AuditEventType classifies an audit trail event.
type AuditEventType string

const (
	EventCreated         AuditEventType = "created"
	EventIntakeStarted   AuditEventType = "intake_started"
	EventReconciled      AuditEventType = "reconciled"
	EventReconcileFailed AuditEventType = "reconcile_failed"
	EventTransition      AuditEventType = "state_transition"
	EventDeleted         AuditEventType = "deleted"
)

// AuditEntry is one event in a record's audit trail.
type AuditEntry struct {
	ID          int64          `json:"id"`
	ComplaintID string         `json:"complaint_id"`
	Event       AuditEventType `json:"event"`
	Summary     string         `json:"summary"`
	Details     string         `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
