package complaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/capalabs/capaflow/internal/protocol"
	"github.com/capalabs/capaflow/internal/repository"
)

// Service drives the complaint lifecycle: form intake, conversational
// intake, and the reconciliation of assistant replies into record state.
type Service struct {
	complaints Repository
	audits     AuditRepository
	search     SearchRepository
	assistant  Assistant
	logger     *slog.Logger
}

// NewService creates a new complaint service.
func NewService(
	complaints Repository,
	audits AuditRepository,
	search SearchRepository,
	assistant Assistant,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		complaints: complaints,
		audits:     audits,
		search:     search,
		assistant:  assistant,
		logger:     logger,
	}
}

// FormRequest describes a minimal form-based record creation.
type FormRequest struct {
	Category          string
	SubCategory       string
	ProductSKU        string
	LotBatch          string
	SiteName          string
	SiteCode          string
	Region            string
	Country           string
	DateOfIssue       string
	SafetyImpact      string
	OperationalImpact string
	Description       string
}

// TransitionRequest describes an operator-requested state change.
type TransitionRequest struct {
	ID      string
	ToState State
	Owner   *string
}

// CreateFromForm creates a record from a form submission: fields from the
// form, empty history.
func (s *Service) CreateFromForm(ctx context.Context, req FormRequest) (*Complaint, error) {
	if strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.Category) == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	doc := NewDocument(NewComplaintID(now), now)
	doc.Complaint.Category = optional(req.Category)
	doc.Complaint.SubCategory = optional(req.SubCategory)
	doc.Complaint.ProductSKU = optional(req.ProductSKU)
	doc.Complaint.LotBatch = optional(req.LotBatch)
	doc.Complaint.DateOfIssue = optional(req.DateOfIssue)
	doc.Complaint.SafetyImpact = optional(req.SafetyImpact)
	doc.Complaint.OperationalImpact = optional(req.OperationalImpact)
	doc.Complaint.Description = optional(req.Description)
	doc.Complaint.Customer.SiteName = optional(req.SiteName)
	doc.Complaint.Customer.SiteCode = optional(req.SiteCode)
	doc.Complaint.Customer.Region = optional(req.Region)
	doc.Complaint.Customer.Country = optional(req.Country)

	c := &Complaint{Document: doc, History: History{}}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating complaint: %w", err)
	}

	s.auditLog(ctx, c.Complaint.ID, EventCreated, "complaint created from form", "")
	return c, nil
}

// StartIntake opens a conversational intake session: it sends the fixed
// greeting turn and seeds a new record whose history holds the single
// assistant greeting.
func (s *Service) StartIntake(ctx context.Context) (*Complaint, error) {
	raw, err := s.assistant.StartIntake(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting intake: %w", err)
	}

	reply := protocol.Parse(raw)
	s.logParse(reply, "intake greeting")

	now := time.Now()
	doc := NewDocument(NewComplaintID(now), now)
	desc := "Initial intake via assistant."
	doc.Complaint.Description = &desc

	c := &Complaint{
		Document: doc,
		History:  History{NewAssistantMessage(reply.Summary, reply.RecordData, reply.ToolIntent)},
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating complaint: %w", err)
	}

	s.auditLog(ctx, c.Complaint.ID, EventIntakeStarted, "assistant intake session started", "")
	return c, nil
}

// Reconcile merges a new user turn and the resulting assistant reply into
// the next record state.
//
// The user message is appended and published immediately (optimistic
// update) before the backend call resolves. On success the next record is
// built from the prior record, not the optimistic branch: its history gains
// exactly two entries, the user message and the parsed assistant message.
// On failure the optimistic update is rolled back by republishing the prior
// record unchanged.
func (s *Service) Reconcile(ctx context.Context, id, userText string) (*Complaint, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrInvalidInput
	}

	prior, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	userMsg := NewUserMessage(userText)
	optimistic := &Complaint{
		Document: prior.Document,
		History:  prior.History.appendCopy(userMsg),
	}
	if err := s.complaints.Update(ctx, optimistic); err != nil {
		return nil, fmt.Errorf("publishing optimistic update: %w", err)
	}

	// The optimistic message is excluded from the outgoing context; the new
	// text travels as the turn payload.
	raw, sendErr := s.assistant.SendTurn(ctx, prior.History, prior.Document, userText)
	if sendErr != nil {
		if rbErr := s.complaints.Update(ctx, prior); rbErr != nil {
			s.logger.Error("rollback after backend failure failed",
				"complaint_id", id, "error", rbErr)
		}
		s.auditLog(ctx, id, EventReconcileFailed, "backend call failed", sendErr.Error())
		return nil, fmt.Errorf("sending turn: %w", sendErr)
	}

	reply := protocol.Parse(raw)
	s.logParse(reply, id)
	assistantMsg := NewAssistantMessage(reply.Summary, reply.RecordData, reply.ToolIntent)

	next := &Complaint{
		Document: prior.Document,
		History:  prior.History.appendCopy(userMsg, assistantMsg),
	}
	if doc, ok := s.documentFrom(reply.RecordData); ok {
		// The record identifier is the store key; whatever the backend
		// returned there, the prior identity wins.
		doc.Complaint.ID = prior.Complaint.ID
		next.Document = doc
	}

	if err := s.complaints.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("storing reconciled record: %w", err)
	}

	s.auditLog(ctx, id, EventReconciled, "assistant turn reconciled", string(reply.Err))
	return next, nil
}

// Transition applies a validated operator state change.
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (*Complaint, error) {
	if req.ID == "" {
		return nil, ErrInvalidInput
	}

	current, err := s.get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(current.Status.State, req.ToState); err != nil {
		return nil, err
	}

	next := &Complaint{Document: current.Document, History: current.History}
	next.Status.State = req.ToState
	if req.Owner != nil {
		next.Status.Owner = req.Owner
	}

	if err := s.complaints.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("transitioning complaint: %w", err)
	}

	s.auditLog(ctx, req.ID, EventTransition,
		fmt.Sprintf("state %s -> %s", current.Status.State, req.ToState), "")
	return next, nil
}

// Get returns a record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Complaint, error) {
	return s.get(ctx, id)
}

// List returns dashboard rows.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Ref, error) {
	return s.complaints.List(ctx, opts)
}

// Delete removes a record from the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.complaints.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrComplaintNotFound
		}
		return fmt.Errorf("deleting complaint: %w", err)
	}
	s.auditLog(ctx, id, EventDeleted, "complaint deleted", "")
	return nil
}

// Search runs full-text search over records.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	if s.search == nil {
		return nil, fmt.Errorf("search repository not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}
	return s.search.Search(ctx, query, opts)
}

// AuditTrail returns recent audit events for a record.
func (s *Service) AuditTrail(ctx context.Context, id string, limit int) ([]AuditEntry, error) {
	if s.audits == nil {
		return nil, nil
	}
	return s.audits.ListForComplaint(ctx, id, limit)
}

func (s *Service) get(ctx context.Context, id string) (*Complaint, error) {
	c, err := s.complaints.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("loading complaint: %w", err)
	}
	return c, nil
}

// documentFrom decodes a parsed record payload into a document. Payloads
// that carry the error marker, fail to decode, or are missing the intake
// section are rejected; the caller then keeps the prior document unchanged.
func (s *Service) documentFrom(data json.RawMessage) (Document, bool) {
	if len(data) == 0 {
		return Document{}, false
	}
	if protocol.HasErrorMarker(data) {
		return Document{}, false
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Document{}, false
	}
	if _, ok := probe["complaint"]; !ok {
		s.logger.Warn("record payload missing intake section, keeping prior document")
		return Document{}, false
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("record payload does not match document schema", "error", err)
		return Document{}, false
	}
	return doc, true
}

func (s *Service) logParse(reply protocol.Reply, context string) {
	switch reply.Err {
	case protocol.KindMalformedRecordJSON:
		s.logger.Error("failed to parse record JSON from reply", "complaint", context)
	case protocol.KindMalformedToolIntentJSON:
		s.logger.Warn("failed to parse tool intent JSON from reply", "complaint", context)
	case protocol.KindUnstructuredReply:
		s.logger.Debug("unstructured reply, using full text as summary", "complaint", context)
	}
}

func (s *Service) auditLog(ctx context.Context, complaintID string, event AuditEventType, summary, details string) {
	if s.audits == nil {
		return
	}
	err := s.audits.Log(ctx, &AuditEntry{
		ComplaintID: complaintID,
		Event:       event,
		Summary:     summary,
		Details:     details,
	})
	if err != nil {
		s.logger.Warn("audit log write failed", "complaint_id", complaintID, "error", err)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
