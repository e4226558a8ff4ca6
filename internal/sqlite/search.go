package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/capalabs/capaflow/internal/domain/complaint"
)

// SearchRepository implements complaint.SearchRepository for SQLite FTS5.
type SearchRepository struct {
	db *DB
}

// NewSearchRepository creates a new SearchRepository.
func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Search performs a full-text search over complaint descriptions and
// latest summaries.
func (r *SearchRepository) Search(ctx context.Context, query string, opts complaint.SearchOptions) ([]complaint.SearchResult, error) {
	sqlQuery := `
		SELECT
			c.id, c.state, c.category, c.site_name, c.date_of_issue,
			COALESCE(c.last_summary, ''), c.rev, c.created_at, c.updated_at,
			bm25(complaints_fts) AS rank,
			snippet(complaints_fts, 0, '<b>', '</b>', '…', 12) AS snip
		FROM complaints_fts
		JOIN complaints c ON c.rowid = complaints_fts.rowid
		WHERE complaints_fts MATCH ?
	`

	args := []interface{}{query}
	var conditions []string

	if len(opts.States) > 0 {
		placeholders := make([]string, len(opts.States))
		for i, state := range opts.States {
			placeholders[i] = "?"
			args = append(args, state)
		}
		conditions = append(conditions, fmt.Sprintf("c.state IN (%s)", strings.Join(placeholders, ",")))
	}

	if len(conditions) > 0 {
		sqlQuery += " AND " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY rank"

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	sqlQuery += " LIMIT ?"
	args = append(args, limit)

	if opts.Offset > 0 {
		sqlQuery += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search complaints: %w", err)
	}
	defer rows.Close()

	var results []complaint.SearchResult
	for rows.Next() {
		var res complaint.SearchResult
		err := rows.Scan(
			&res.Ref.ID,
			&res.Ref.State,
			&res.Ref.Category,
			&res.Ref.SiteName,
			&res.Ref.DateOfIssue,
			&res.Ref.LastSummary,
			&res.Ref.Rev,
			&res.Ref.CreatedAt,
			&res.Ref.UpdatedAt,
			&res.Rank,
			&res.Snippet,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search rows: %w", err)
	}

	return results, nil
}
