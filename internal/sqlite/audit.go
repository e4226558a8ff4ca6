package sqlite

import (
	"context"
	"fmt"

	"github.com/capalabs/capaflow/internal/domain/complaint"
)

// AuditRepository implements complaint.AuditRepository for SQLite.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log appends an audit event.
func (r *AuditRepository) Log(ctx context.Context, entry *complaint.AuditEntry) error {
	query := `
		INSERT INTO audit_log (complaint_id, event_type, summary, details)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ComplaintID,
		entry.Event,
		entry.Summary,
		entry.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}

// ListForComplaint returns recent audit events for a record, newest first.
func (r *AuditRepository) ListForComplaint(ctx context.Context, complaintID string, limit int) ([]complaint.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, complaint_id, event_type, summary, COALESCE(details, ''), created_at
		FROM audit_log
		WHERE complaint_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, complaintID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var entries []complaint.AuditEntry
	for rows.Next() {
		var e complaint.AuditEntry
		err := rows.Scan(&e.ID, &e.ComplaintID, &e.Event, &e.Summary, &e.Details, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return entries, nil
}
