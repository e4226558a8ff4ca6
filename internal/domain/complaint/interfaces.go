package complaint

import "context"

// Repository provides persistence for complaint records. Writes are always
// whole-record replacement; the store never mutates a record in place.
type Repository interface {
	Create(ctx context.Context, c *Complaint) error
	Get(ctx context.Context, id string) (*Complaint, error)
	Update(ctx context.Context, c *Complaint) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]Ref, error)
}

// AuditRepository records audit trail events.
type AuditRepository interface {
	Log(ctx context.Context, entry *AuditEntry) error
	ListForComplaint(ctx context.Context, complaintID string, limit int) ([]AuditEntry, error)
}

// SearchRepository performs full-text search over records.
type SearchRepository interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}

// Assistant is the conversation session adapter boundary. StartIntake sends
// the fixed greeting turn with no prior context; SendTurn replays the prior
// history together with the record's non-history state and the new user
// text, returning one raw reply. Both fail with ErrBackend when the backend
// call throws or returns empty text.
type Assistant interface {
	StartIntake(ctx context.Context) (string, error)
	SendTurn(ctx context.Context, history History, doc Document, userText string) (string, error)
}

// ListOptions filters dashboard listings.
type ListOptions struct {
	States   []State
	Category string
	Limit    int
	Offset   int
}

// SearchOptions filters full-text search.
type SearchOptions struct {
	States []State
	Limit  int
	Offset int
}
