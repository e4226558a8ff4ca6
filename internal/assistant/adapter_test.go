package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capalabs/capaflow/internal/domain/complaint"
)

// recordingBackend captures the session reconstruction inputs of one call.
type recordingBackend struct {
	system string
	prior  []Turn
	text   string

	reply string
	err   error
}

func (b *recordingBackend) SendTurn(ctx context.Context, systemInstruction string, prior []Turn, text string) (string, error) {
	b.system = systemInstruction
	b.prior = prior
	b.text = text
	return b.reply, b.err
}

func TestStartIntake_GreetingHasNoHistory(t *testing.T) {
	backend := &recordingBackend{reply: "### SUMMARY\nWelcome."}
	a := NewAdapter(backend, "", nil)

	raw, err := a.StartIntake(context.Background())
	require.NoError(t, err)
	require.Equal(t, "### SUMMARY\nWelcome.", raw)

	require.Equal(t, greetingMessage, backend.text)
	require.Empty(t, backend.prior)
	require.Equal(t, DefaultSystemInstruction, backend.system)
}

func TestSendTurn_ReplaysHistoryInOrder(t *testing.T) {
	backend := &recordingBackend{reply: "### SUMMARY\nNoted."}
	a := NewAdapter(backend, "custom instruction", nil)

	history := complaint.History{
		complaint.NewAssistantMessage("Welcome.",
			[]byte(`{"complaint": {}}`), []byte(`{"tool_intent": {}}`)),
		complaint.NewUserMessage("My detonators misfire."),
		complaint.NewAssistantMessage("Lot recorded.", nil, nil),
	}
	doc := complaint.Document{}

	_, err := a.SendTurn(context.Background(), history, doc, "site is Plant 7")
	require.NoError(t, err)

	require.Equal(t, "custom instruction", backend.system)
	require.Equal(t, []Turn{
		{Role: RoleModel, Text: "Welcome."},
		{Role: RoleUser, Text: "My detonators misfire."},
		{Role: RoleModel, Text: "Lot recorded."},
	}, backend.prior)
}

func TestSendTurn_EmbedsContextDocumentAndUserText(t *testing.T) {
	backend := &recordingBackend{reply: "ok"}
	a := NewAdapter(backend, "", nil)

	doc := complaint.Document{}
	doc.Complaint.ID = "CMP-7"

	_, err := a.SendTurn(context.Background(), nil, doc, "the lot is DL-204")
	require.NoError(t, err)

	require.Contains(t, backend.text, "THIS IS THE CURRENT RECORD DATA")
	require.Contains(t, backend.text, `"id": "CMP-7"`)
	require.Contains(t, backend.text, `"the lot is DL-204"`)
}

func TestSendTurn_BackendErrorMapsToErrBackend(t *testing.T) {
	backend := &recordingBackend{err: errors.New("deadline exceeded")}
	a := NewAdapter(backend, "", nil)

	_, err := a.SendTurn(context.Background(), nil, complaint.Document{}, "hello")
	require.ErrorIs(t, err, complaint.ErrBackend)
	require.Contains(t, err.Error(), "deadline exceeded")
}

func TestEmptyRepliesAreBackendFailures(t *testing.T) {
	backend := &recordingBackend{reply: "   \n"}
	a := NewAdapter(backend, "", nil)

	_, err := a.StartIntake(context.Background())
	require.ErrorIs(t, err, complaint.ErrBackend)

	_, err = a.SendTurn(context.Background(), nil, complaint.Document{}, "hello")
	require.ErrorIs(t, err, complaint.ErrBackend)
}
