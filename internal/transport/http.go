// Package transport exposes the complaint dashboard and chat API over HTTP.
package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/capalabs/capaflow/internal/domain/complaint"
	"github.com/capalabs/capaflow/internal/markdown"
)

// Server wires HTTP handlers over the complaint service.
type Server struct {
	complaints *complaint.Service
	logger     *slog.Logger
}

// NewRouter creates the HTTP router. mcpHandler, when non-nil, is mounted
// at /mcp.
func NewRouter(complaints *complaint.Service, mcpHandler http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{complaints: complaints, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", srv.handleHealth)

	r.Route("/api/complaints", func(r chi.Router) {
		r.Get("/", srv.handleList)
		r.Post("/", srv.handleCreate)
		r.Post("/intake", srv.handleIntake)
		r.Get("/search", srv.handleSearch)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", srv.handleGet)
			r.Delete("/", srv.handleDelete)
			r.Post("/messages", srv.handleMessage)
			r.Post("/transition", srv.handleTransition)
			r.Get("/audit", srv.handleAudit)
		})
	})

	if mcpHandler != nil {
		r.Mount("/mcp", mcpHandler)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	opts := complaint.ListOptions{
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}
	for _, raw := range r.URL.Query()["state"] {
		state, err := complaint.ParseState(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "unknown state: "+raw)
			return
		}
		opts.States = append(opts.States, state)
	}

	refs, err := s.complaints.List(r.Context(), opts)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if refs == nil {
		refs = []complaint.Ref{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"complaints": refs})
}

// CreateRequest is a form-based record creation payload.
type CreateRequest struct {
	Category          string `json:"category"`
	SubCategory       string `json:"sub_category"`
	ProductSKU        string `json:"product_sku"`
	LotBatch          string `json:"lot_batch"`
	SiteName          string `json:"site_name"`
	SiteCode          string `json:"site_code"`
	Region            string `json:"region"`
	Country           string `json:"country"`
	DateOfIssue       string `json:"date_of_issue"`
	SafetyImpact      string `json:"safety_impact"`
	OperationalImpact string `json:"operational_impact"`
	Description       string `json:"description"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.complaints.CreateFromForm(r.Context(), complaint.FormRequest{
		Category:          req.Category,
		SubCategory:       req.SubCategory,
		ProductSKU:        req.ProductSKU,
		LotBatch:          req.LotBatch,
		SiteName:          req.SiteName,
		SiteCode:          req.SiteCode,
		Region:            req.Region,
		Country:           req.Country,
		DateOfIssue:       req.DateOfIssue,
		SafetyImpact:      req.SafetyImpact,
		OperationalImpact: req.OperationalImpact,
		Description:       req.Description,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, detailResponse(c))
}

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	c, err := s.complaints.StartIntake(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, detailResponse(c))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.complaints.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detailResponse(c))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.complaints.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MessageRequest carries one user turn.
type MessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.complaints.Reconcile(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		if errors.Is(err, complaint.ErrBackend) {
			// The turn was rolled back; echo the text so the client can
			// repopulate the input for a retry.
			s.writeJSON(w, http.StatusBadGateway, map[string]any{
				"error": "assistant backend failure, your message was not recorded",
				"text":  req.Text,
			})
			return
		}
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detailResponse(c))
}

// TransitionRequest carries an operator state change.
type TransitionRequest struct {
	ToState string  `json:"to_state"`
	Owner   *string `json:"owner,omitempty"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := complaint.ParseState(req.ToState)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown state: "+req.ToState)
		return
	}

	c, err := s.complaints.Transition(r.Context(), complaint.TransitionRequest{
		ID:      chi.URLParam(r, "id"),
		ToState: state,
		Owner:   req.Owner,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detailResponse(c))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	results, err := s.complaints.Search(r.Context(), query, complaint.SearchOptions{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if results == nil {
		results = []complaint.SearchResult{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := s.complaints.AuditTrail(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if entries == nil {
		entries = []complaint.AuditEntry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"audit": entries})
}

// DetailResponse is a full record plus its rendered chat transcript.
type DetailResponse struct {
	Record   *complaint.Complaint `json:"record"`
	Messages []MessageView        `json:"messages"`
}

// MessageView is one transcript entry. Assistant summaries additionally
// carry rendered HTML for display.
type MessageView struct {
	ID          string           `json:"id"`
	Sender      complaint.Sender `json:"sender"`
	Text        string           `json:"text,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	SummaryHTML string           `json:"summary_html,omitempty"`
	RecordData  json.RawMessage  `json:"record_data,omitempty"`
	ToolIntent  json.RawMessage  `json:"tool_intent,omitempty"`
}

func detailResponse(c *complaint.Complaint) DetailResponse {
	views := make([]MessageView, 0, len(c.History))
	for _, msg := range c.History {
		switch m := msg.(type) {
		case complaint.UserMessage:
			views = append(views, MessageView{ID: m.ID, Sender: m.Sender, Text: m.Text})
		case complaint.AssistantMessage:
			views = append(views, MessageView{
				ID:          m.ID,
				Sender:      m.Sender,
				Summary:     m.Summary,
				SummaryHTML: markdown.Render(m.Summary),
				RecordData:  m.RecordData,
				ToolIntent:  m.ToolIntent,
			})
		}
	}
	return DetailResponse{Record: c, Messages: views}
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, complaint.ErrComplaintNotFound):
		s.writeError(w, http.StatusNotFound, "complaint not found")
	case errors.Is(err, complaint.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, complaint.ErrUnknownState):
		s.writeError(w, http.StatusBadRequest, "unknown state")
	case errors.Is(err, complaint.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, "invalid state transition")
	case errors.Is(err, complaint.ErrBackend):
		s.writeError(w, http.StatusBadGateway, "assistant backend failure")
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
