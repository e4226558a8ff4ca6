package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Turn roles in the exchange list replayed to the backend.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one entry of the ordered exchange list a session is rebuilt from.
type Turn struct {
	Role string
	Text string
}

// Backend is the text-completion collaborator: it constructs a stateless
// session from the system instruction and prior exchanges, sends one turn,
// and returns the raw reply text.
type Backend interface {
	SendTurn(ctx context.Context, systemInstruction string, prior []Turn, text string) (string, error)
}

// DefaultModel is the generation model used for complaint turns.
const DefaultModel = "gemini-2.5-pro"

// GeminiBackend implements Backend on the Gemini API. A fresh chat session
// is created per call from the supplied history; no state is held between
// turns.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini backend.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiBackend{client: client, model: model}, nil
}

// SendTurn rebuilds a chat session from prior exchanges and sends one turn.
func (b *GeminiBackend) SendTurn(ctx context.Context, systemInstruction string, prior []Turn, text string) (string, error) {
	history := make([]*genai.Content, 0, len(prior))
	for _, t := range prior {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(t.Text, role))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	chat, err := b.client.Chats.Create(ctx, b.model, cfg, history)
	if err != nil {
		return "", fmt.Errorf("creating chat session: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}

	return resp.Text(), nil
}
