// Package assistant adapts local chat history into the ordered exchange
// format the generative backend expects, and surfaces backend failures
// uniformly as complaint.ErrBackend.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/capalabs/capaflow/internal/domain/complaint"
)

// Adapter implements complaint.Assistant. It is stateless between calls: a
// new backend session is constructed per turn from the supplied history, so
// message ordering within that history is the sole source of conversational
// continuity.
type Adapter struct {
	backend Backend
	system  string
	logger  *slog.Logger
}

// NewAdapter creates an adapter. The system instruction is fixed for the
// process lifetime; an empty value selects DefaultSystemInstruction.
func NewAdapter(backend Backend, systemInstruction string, logger *slog.Logger) *Adapter {
	if systemInstruction == "" {
		systemInstruction = DefaultSystemInstruction
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{backend: backend, system: systemInstruction, logger: logger}
}

// StartIntake sends the fixed greeting turn with no prior history and no
// context document, used only to seed a brand-new record.
func (a *Adapter) StartIntake(ctx context.Context) (string, error) {
	raw, err := a.backend.SendTurn(ctx, a.system, nil, greetingMessage)
	if err != nil {
		a.logger.Error("backend greeting call failed", "error", err)
		return "", fmt.Errorf("%w: %v", complaint.ErrBackend, err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty reply", complaint.ErrBackend)
	}
	return raw, nil
}

// SendTurn replays the prior history, embeds the record's non-history state
// as the context document, and sends the new user text as the turn payload.
func (a *Adapter) SendTurn(ctx context.Context, history complaint.History, doc complaint.Document, userText string) (string, error) {
	prompt, err := turnPrompt(doc, userText)
	if err != nil {
		return "", fmt.Errorf("%w: %v", complaint.ErrBackend, err)
	}

	raw, err := a.backend.SendTurn(ctx, a.system, priorTurns(history), prompt)
	if err != nil {
		a.logger.Error("backend turn call failed", "error", err)
		return "", fmt.Errorf("%w: %v", complaint.ErrBackend, err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty reply", complaint.ErrBackend)
	}
	return raw, nil
}

// priorTurns maps stored messages onto backend roles. Assistant messages
// contribute only their summary text; structured payloads are never
// replayed. The backend reconstructs structured context from the explicit
// context document instead.
func priorTurns(history complaint.History) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, msg := range history {
		switch m := msg.(type) {
		case complaint.UserMessage:
			turns = append(turns, Turn{Role: RoleUser, Text: m.Text})
		case complaint.AssistantMessage:
			turns = append(turns, Turn{Role: RoleModel, Text: m.Summary})
		}
	}
	return turns
}
