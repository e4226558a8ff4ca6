package complaint_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/capalabs/capaflow/internal/domain/complaint"
	"github.com/capalabs/capaflow/internal/repository"
	"github.com/capalabs/capaflow/internal/repository/mocks"
)

type serviceFixture struct {
	complaints *mocks.ComplaintRepository
	audits     *mocks.AuditRepository
	assistant  *mocks.Assistant
	svc        *complaint.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		complaints: &mocks.ComplaintRepository{},
		audits:     &mocks.AuditRepository{},
		assistant:  &mocks.Assistant{},
	}
	f.svc = complaint.NewService(f.complaints, f.audits, nil, f.assistant, nil)
	return f
}

func priorComplaint(t *testing.T) *complaint.Complaint {
	t.Helper()
	doc := complaint.NewDocument("CMP-100", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	return &complaint.Complaint{
		Document: doc,
		History: complaint.History{
			complaint.NewAssistantMessage("Welcome.", nil, nil),
		},
	}
}

const reconciledReply = "### SUMMARY\nCategory set to ^^Product^^.\n### RECORD DATA\n```json\n" +
	`{"complaint": {"id": "CMP-WRONG", "category": "Product", "attachments": [], "labels": []}, "status": {"state": "Acknowledged"}}` +
	"\n```\n"

func TestReconcile_AppendsExactlyTwoMessages(t *testing.T) {
	f := newServiceFixture(t)
	prior := priorComplaint(t)

	var updates []*complaint.Complaint
	f.complaints.On("Get", mock.Anything, "CMP-100").Return(prior, nil)
	f.complaints.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		updates = append(updates, args.Get(1).(*complaint.Complaint))
	}).Return(nil)
	f.assistant.On("SendTurn", mock.Anything, prior.History, prior.Document, "It was lot DL-204.").
		Return(reconciledReply, nil)
	f.audits.On("Log", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Reconcile(context.Background(), "CMP-100", "It was lot DL-204.")
	require.NoError(t, err)

	// First publish is the optimistic user-only append.
	require.Len(t, updates, 2)
	require.Len(t, updates[0].History, 2)
	user, ok := updates[0].History[1].(complaint.UserMessage)
	require.True(t, ok)
	require.Equal(t, "It was lot DL-204.", user.Text)

	// Final record gains exactly the user message and the assistant message,
	// built from the prior history, never from the optimistic branch.
	require.Len(t, got.History, 3)
	require.Equal(t, prior.History[0], got.History[0])
	require.Equal(t, user, got.History[1])
	assistant, ok := got.History[2].(complaint.AssistantMessage)
	require.True(t, ok)
	require.Equal(t, "Category set to ^^Product^^.", assistant.Summary)

	// Prior history slice is untouched by the appends.
	require.Len(t, prior.History, 1)
}

func TestReconcile_AdoptsRecordDataButPinsID(t *testing.T) {
	f := newServiceFixture(t)
	prior := priorComplaint(t)

	f.complaints.On("Get", mock.Anything, "CMP-100").Return(prior, nil)
	f.complaints.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.assistant.On("SendTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(reconciledReply, nil)
	f.audits.On("Log", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Reconcile(context.Background(), "CMP-100", "It was lot DL-204.")
	require.NoError(t, err)

	// The backend tried to rename the record; the stored identity wins.
	require.Equal(t, "CMP-100", got.Complaint.ID)
	require.Equal(t, complaint.StateAcknowledged, got.Status.State)
	require.NotNil(t, got.Complaint.Category)
	require.Equal(t, "Product", *got.Complaint.Category)
}

func TestReconcile_BackendFailureRollsBack(t *testing.T) {
	f := newServiceFixture(t)
	prior := priorComplaint(t)

	var updates []*complaint.Complaint
	f.complaints.On("Get", mock.Anything, "CMP-100").Return(prior, nil)
	f.complaints.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		updates = append(updates, args.Get(1).(*complaint.Complaint))
	}).Return(nil)
	backendErr := errors.New("model overloaded")
	f.assistant.On("SendTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", backendErr)

	var logged []*complaint.AuditEntry
	f.audits.On("Log", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged = append(logged, args.Get(1).(*complaint.AuditEntry))
	}).Return(nil)

	_, err := f.svc.Reconcile(context.Background(), "CMP-100", "hello")
	require.ErrorIs(t, err, backendErr)

	// Optimistic publish, then republish of the prior record unchanged.
	require.Len(t, updates, 2)
	require.Len(t, updates[0].History, 2)
	require.Same(t, prior, updates[1])

	require.Len(t, logged, 1)
	require.Equal(t, complaint.EventReconcileFailed, logged[0].Event)
}

func TestReconcile_ErrorDocumentKeepsPriorDocument(t *testing.T) {
	f := newServiceFixture(t)
	prior := priorComplaint(t)

	raw := "### SUMMARY\nCould not update the record.\n### RECORD DATA\n```json\nbroken\n```\n"
	f.complaints.On("Get", mock.Anything, "CMP-100").Return(prior, nil)
	f.complaints.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.assistant.On("SendTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(raw, nil)
	f.audits.On("Log", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Reconcile(context.Background(), "CMP-100", "update the site")
	require.NoError(t, err)

	// Document untouched; the sentinel payload still lands in the history.
	require.Equal(t, prior.Document, got.Document)
	require.Len(t, got.History, 3)
	assistant := got.History[2].(complaint.AssistantMessage)
	var probe map[string]string
	require.NoError(t, json.Unmarshal(assistant.RecordData, &probe))
	require.Equal(t, "Failed to parse record JSON", probe["error"])
}

func TestReconcile_RejectsBlankUserText(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Reconcile(context.Background(), "CMP-100", "   \n ")
	require.ErrorIs(t, err, complaint.ErrInvalidInput)
	f.complaints.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestReconcile_NotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.complaints.On("Get", mock.Anything, "CMP-404").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Reconcile(context.Background(), "CMP-404", "hello")
	require.ErrorIs(t, err, complaint.ErrComplaintNotFound)
}

func TestStartIntake_SeedsGreetingHistory(t *testing.T) {
	f := newServiceFixture(t)

	var created *complaint.Complaint
	f.assistant.On("StartIntake", mock.Anything).Return("### SUMMARY\nWelcome.", nil)
	f.complaints.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*complaint.Complaint)
	}).Return(nil)
	f.audits.On("Log", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.StartIntake(context.Background())
	require.NoError(t, err)
	require.Same(t, created, got)

	require.Len(t, got.History, 1)
	msg := got.History[0].(complaint.AssistantMessage)
	require.Equal(t, "Welcome.", msg.Summary)
	require.Nil(t, msg.RecordData)
	require.Nil(t, msg.ToolIntent)

	require.Equal(t, complaint.StateNew, got.Status.State)
	require.NotNil(t, got.Complaint.Description)
	require.Equal(t, "Initial intake via assistant.", *got.Complaint.Description)
}

func TestStartIntake_BackendFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.assistant.On("StartIntake", mock.Anything).Return("", complaint.ErrBackend)

	_, err := f.svc.StartIntake(context.Background())
	require.ErrorIs(t, err, complaint.ErrBackend)
	f.complaints.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateFromForm(t *testing.T) {
	f := newServiceFixture(t)

	var created *complaint.Complaint
	f.complaints.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*complaint.Complaint)
	}).Return(nil)
	f.audits.On("Log", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.CreateFromForm(context.Background(), complaint.FormRequest{
		Category:    "Product",
		Description: "Detonator lot DL-204 misfires.",
		SiteName:    "Plant 7",
	})
	require.NoError(t, err)
	require.Same(t, created, got)

	require.NotEmpty(t, got.Complaint.ID)
	require.Equal(t, "Product", *got.Complaint.Category)
	require.Equal(t, "Plant 7", *got.Complaint.Customer.SiteName)
	require.Nil(t, got.Complaint.LotBatch)
	require.Empty(t, got.History)
}

func TestCreateFromForm_RequiresDescriptionAndCategory(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateFromForm(context.Background(), complaint.FormRequest{Category: "Product"})
	require.ErrorIs(t, err, complaint.ErrInvalidInput)

	_, err = f.svc.CreateFromForm(context.Background(), complaint.FormRequest{Description: "broken"})
	require.ErrorIs(t, err, complaint.ErrInvalidInput)
}

func TestTransition(t *testing.T) {
	f := newServiceFixture(t)
	prior := priorComplaint(t)

	f.complaints.On("Get", mock.Anything, "CMP-100").Return(prior, nil)
	f.complaints.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.audits.On("Log", mock.Anything, mock.Anything).Return(nil)

	owner := "quality.lead"
	got, err := f.svc.Transition(context.Background(), complaint.TransitionRequest{
		ID:      "CMP-100",
		ToState: complaint.StateAcknowledged,
		Owner:   &owner,
	})
	require.NoError(t, err)
	require.Equal(t, complaint.StateAcknowledged, got.Status.State)
	require.Equal(t, &owner, got.Status.Owner)
}

func TestTransition_Invalid(t *testing.T) {
	f := newServiceFixture(t)
	prior := priorComplaint(t) // state New

	f.complaints.On("Get", mock.Anything, "CMP-100").Return(prior, nil)

	_, err := f.svc.Transition(context.Background(), complaint.TransitionRequest{
		ID:      "CMP-100",
		ToState: complaint.StateClosed,
	})
	require.ErrorIs(t, err, complaint.ErrInvalidTransition)
	f.complaints.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDelete_NotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.complaints.On("Delete", mock.Anything, "CMP-404").Return(repository.ErrNotFound)

	err := f.svc.Delete(context.Background(), "CMP-404")
	require.ErrorIs(t, err, complaint.ErrComplaintNotFound)
}
