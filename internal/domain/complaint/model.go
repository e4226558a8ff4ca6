package complaint

import (
	"encoding/json"
	"time"
)

// Customer identifies the reporting customer and site.
type Customer struct {
	Name     *string `json:"name"`
	Contact  *string `json:"contact"`
	SiteName *string `json:"site_name"`
	SiteCode *string `json:"site_code"`
	Region   *string `json:"region"`
	Country  *string `json:"country"`
}

// Intake holds the identification and intake fields of a complaint.
type Intake struct {
	ID                string            `json:"id"`
	CreatedAt         string            `json:"created_at"`
	Channel           string            `json:"channel"`
	ReportedByRole    string            `json:"reported_by_role"`
	Customer          Customer          `json:"customer"`
	Category          *string           `json:"category"`
	SubCategory       *string           `json:"sub_category"`
	ProductSKU        *string           `json:"product_sku"`
	LotBatch          *string           `json:"lot_batch"`
	QuantityAffected  *float64          `json:"quantity_affected"`
	DateOfIssue       *string           `json:"date_of_issue"`
	SafetyImpact      *string           `json:"safety_impact"`
	OperationalImpact *string           `json:"operational_impact"`
	Description       *string           `json:"description_user"`
	Attachments       []json.RawMessage `json:"attachments"`
	Labels            []string          `json:"labels"`
}

// SLA holds the response-time targets attached at triage.
type SLA struct {
	AckHours    int `json:"ack_hours"`
	RCADays     int `json:"rca_days"`
	ClosureDays int `json:"closure_days"`
}

// Triage holds severity classification and routing fields.
type Triage struct {
	Severity          *string         `json:"severity"`
	Priority          *string         `json:"priority"`
	InitialHypotheses []string        `json:"initial_hypotheses"`
	RequiredFunctions []string        `json:"required_functions"`
	SLA               SLA             `json:"sla"`
	RoutingSuggestion json.RawMessage `json:"routing_suggestion"`
}

// Investigation tracks evidence gathering.
type Investigation struct {
	DataRequests    []string `json:"data_requests"`
	EvidenceSummary *string  `json:"evidence_summary"`
	MissingInfo     []string `json:"missing_info"`
}

// RCA holds the root-cause-analysis chain.
type RCA struct {
	Method              *string         `json:"method"`
	WhyChain            []string        `json:"why_chain"`
	Fishbone            json.RawMessage `json:"fishbone"`
	RootCauseCandidates []string        `json:"root_cause_candidates"`
	ValidatedRootCause  *string         `json:"validated_root_cause"`
}

// CAPA holds corrective and preventive actions.
type CAPA struct {
	CorrectiveActions []json.RawMessage `json:"corrective_actions"`
	PreventiveActions []json.RawMessage `json:"preventive_actions"`
	RiskAssessment    json.RawMessage   `json:"risk_assessment"`
}

// Sustenance holds the post-CAPA monitoring plan.
type Sustenance struct {
	MonitoringPlan      json.RawMessage   `json:"monitoring_plan"`
	EffectivenessChecks []json.RawMessage `json:"effectiveness_checks"`
}

// Status is the display-facing lifecycle position of the record.
type Status struct {
	State          State   `json:"state"`
	NextBestAction *string `json:"next_best_action"`
	Owner          *string `json:"owner"`
	DueNext        *string `json:"due_next"`
}

// Audit holds references and explainability notes for the record.
type Audit struct {
	References         map[string]json.RawMessage `json:"references"`
	Redactions         []string                   `json:"redactions"`
	ExplainabilityNote *string                    `json:"explainability_note"`
}

// Document is the non-history portion of a complaint record. Every section
// is wholesale-replaceable by a reconciliation step; there is no partial
// in-place mutation.
type Document struct {
	Complaint     Intake        `json:"complaint"`
	Triage        Triage        `json:"triage"`
	Investigation Investigation `json:"investigation"`
	RCA           RCA           `json:"rca"`
	CAPA          CAPA          `json:"capa"`
	Sustenance    Sustenance    `json:"sustenance"`
	Status        Status        `json:"status"`
	Audit         Audit         `json:"audit"`
}

// Complaint is the full lifecycle record: the document tree plus the
// append-only conversation history.
type Complaint struct {
	Document
	History History `json:"history"`
}

// Ref is a lightweight dashboard row for a complaint.
type Ref struct {
	ID          string    `json:"id"`
	State       State     `json:"state"`
	Category    *string   `json:"category,omitempty"`
	SiteName    *string   `json:"site_name,omitempty"`
	DateOfIssue *string   `json:"date_of_issue,omitempty"`
	LastSummary string    `json:"last_summary,omitempty"`
	Rev         int64     `json:"rev"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SearchResult is a full-text search hit.
type SearchResult struct {
	Ref     Ref     `json:"record"`
	Rank    float64 `json:"rank"`
	Snippet string  `json:"snippet,omitempty"`
}

// NewDocument returns the skeleton document used to seed a brand-new record.
func NewDocument(id string, now time.Time) Document {
	nextAction := "Capture initial complaint details to enable triage."
	return Document{
		Complaint: Intake{
			ID:             id,
			CreatedAt:      now.UTC().Format(time.RFC3339),
			Channel:        "text",
			ReportedByRole: "Rep",
			Attachments:    []json.RawMessage{},
			Labels:         []string{},
		},
		Triage: Triage{
			InitialHypotheses: []string{},
			RequiredFunctions: []string{},
			SLA:               SLA{AckHours: 4, RCADays: 7, ClosureDays: 30},
		},
		Investigation: Investigation{
			DataRequests: []string{},
			MissingInfo:  []string{},
		},
		RCA: RCA{
			WhyChain:            []string{},
			RootCauseCandidates: []string{},
		},
		CAPA: CAPA{
			CorrectiveActions: []json.RawMessage{},
			PreventiveActions: []json.RawMessage{},
		},
		Sustenance: Sustenance{
			EffectivenessChecks: []json.RawMessage{},
		},
		Status: Status{
			State:          StateNew,
			NextBestAction: &nextAction,
		},
		Audit: Audit{
			References: map[string]json.RawMessage{},
			Redactions: []string{},
		},
	}
}
