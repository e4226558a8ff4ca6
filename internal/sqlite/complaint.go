package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/capalabs/capaflow/internal/domain/complaint"
	"github.com/capalabs/capaflow/internal/repository"
)

// ComplaintRepository implements complaint.Repository for SQLite.
type ComplaintRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewComplaintRepository creates a new ComplaintRepository.
func NewComplaintRepository(db *DB, logger *slog.Logger) *ComplaintRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComplaintRepository{db: db, logger: logger}
}

// Create stores a new record.
func (r *ComplaintRepository) Create(ctx context.Context, c *complaint.Complaint) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize complaint: %w", err)
	}

	query := `
		INSERT INTO complaints (
			id, state, category, site_name, date_of_issue,
			description, last_summary, document, rev
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	`
	_, err = r.db.ExecContext(ctx, query,
		c.Complaint.ID,
		c.Status.State,
		c.Complaint.Category,
		c.Complaint.Customer.SiteName,
		c.Complaint.DateOfIssue,
		c.Complaint.Description,
		lastSummary(c),
		string(doc),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create complaint: duplicate id %s", c.Complaint.ID)
		}
		return fmt.Errorf("failed to create complaint: %w", err)
	}

	return nil
}

// Get retrieves a record by ID.
func (r *ComplaintRepository) Get(ctx context.Context, id string) (*complaint.Complaint, error) {
	var doc string
	err := r.db.QueryRowContext(ctx,
		`SELECT document FROM complaints WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}

	var c complaint.Complaint
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("%w: complaint %s: %v", repository.ErrCorrupt, id, err)
	}

	return &c, nil
}

// Update replaces a stored record wholesale and bumps its revision.
func (r *ComplaintRepository) Update(ctx context.Context, c *complaint.Complaint) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize complaint: %w", err)
	}

	query := `
		UPDATE complaints
		SET state = ?, category = ?, site_name = ?, date_of_issue = ?,
		    description = ?, last_summary = ?, document = ?,
		    rev = rev + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		c.Status.State,
		c.Complaint.Category,
		c.Complaint.Customer.SiteName,
		c.Complaint.DateOfIssue,
		c.Complaint.Description,
		lastSummary(c),
		string(doc),
		c.Complaint.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update complaint: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a record.
func (r *ComplaintRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM complaints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete complaint: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns dashboard rows matching the given options, newest first.
// Rows whose extracted columns cannot be scanned are skipped with a log so
// one corrupt row does not take down the whole dashboard.
func (r *ComplaintRepository) List(ctx context.Context, opts complaint.ListOptions) ([]complaint.Ref, error) {
	query := `
		SELECT id, state, category, site_name, date_of_issue,
		       COALESCE(last_summary, ''), rev, created_at, updated_at
		FROM complaints
	`

	var args []interface{}
	var conditions []string

	if len(opts.States) > 0 {
		placeholders := make([]string, len(opts.States))
		for i, state := range opts.States {
			placeholders[i] = "?"
			args = append(args, state)
		}
		conditions = append(conditions, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}
	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, opts.Category)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	var refs []complaint.Ref
	for rows.Next() {
		ref, err := scanRef(rows)
		if err != nil {
			r.logger.Warn("skipping unreadable complaint row", "error", err)
			continue
		}
		refs = append(refs, ref)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint rows: %w", err)
	}

	return refs, nil
}

func scanRef(rows *sql.Rows) (complaint.Ref, error) {
	var ref complaint.Ref
	err := rows.Scan(
		&ref.ID,
		&ref.State,
		&ref.Category,
		&ref.SiteName,
		&ref.DateOfIssue,
		&ref.LastSummary,
		&ref.Rev,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	)
	if err != nil {
		return complaint.Ref{}, fmt.Errorf("failed to scan complaint ref: %w", err)
	}
	return ref, nil
}

// lastSummary extracts the most recent assistant summary for listing and
// search indexing.
func lastSummary(c *complaint.Complaint) string {
	for i := len(c.History) - 1; i >= 0; i-- {
		if m, ok := c.History[i].(complaint.AssistantMessage); ok {
			return m.Summary
		}
	}
	return ""
}
