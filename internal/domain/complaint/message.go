package complaint

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Sender discriminates the two message variants.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single entry in a complaint's conversation history. Messages
// are immutable once appended; the only exception is an optimistic user
// message that is retracted when the backend call fails.
type Message interface {
	MessageID() string
	MessageSender() Sender
}

// UserMessage is a raw user utterance.
type UserMessage struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

func (m UserMessage) MessageID() string     { return m.ID }
func (m UserMessage) MessageSender() Sender { return m.Sender }

// AssistantMessage is a parsed backend reply: the human-readable summary
// plus the optional structured payloads extracted from it. A non-nil
// RecordData does not prove a successful parse; a payload carrying an
// "error" key signals a substituted sentinel document.
type AssistantMessage struct {
	ID         string          `json:"id"`
	Sender     Sender          `json:"sender"`
	Summary    string          `json:"summary"`
	RecordData json.RawMessage `json:"record_data,omitempty"`
	ToolIntent json.RawMessage `json:"tool_intent,omitempty"`
}

func (m AssistantMessage) MessageID() string     { return m.ID }
func (m AssistantMessage) MessageSender() Sender { return m.Sender }

// NewUserMessage builds a user message with a fresh identifier.
func NewUserMessage(text string) UserMessage {
	return UserMessage{ID: uuid.NewString(), Sender: SenderUser, Text: text}
}

// NewAssistantMessage builds an assistant message with a fresh identifier.
func NewAssistantMessage(summary string, recordData, toolIntent json.RawMessage) AssistantMessage {
	return AssistantMessage{
		ID:         uuid.NewString(),
		Sender:     SenderAssistant,
		Summary:    summary,
		RecordData: recordData,
		ToolIntent: toolIntent,
	}
}

// History is the ordered message sequence of a record. It is append-only
// within a session; ordering is the sole source of conversational
// continuity replayed to the backend.
type History []Message

// UnmarshalJSON decodes the polymorphic message list, discriminating each
// element by its sender tag.
func (h *History) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(History, 0, len(raw))
	for i, item := range raw {
		var tag struct {
			Sender Sender `json:"sender"`
		}
		if err := json.Unmarshal(item, &tag); err != nil {
			return fmt.Errorf("decoding message %d: %w", i, err)
		}

		switch tag.Sender {
		case SenderUser:
			var msg UserMessage
			if err := json.Unmarshal(item, &msg); err != nil {
				return fmt.Errorf("decoding user message %d: %w", i, err)
			}
			out = append(out, msg)
		case SenderAssistant:
			var msg AssistantMessage
			if err := json.Unmarshal(item, &msg); err != nil {
				return fmt.Errorf("decoding assistant message %d: %w", i, err)
			}
			out = append(out, msg)
		default:
			return fmt.Errorf("decoding message %d: unknown sender %q", i, tag.Sender)
		}
	}

	*h = out
	return nil
}

// appendCopy returns a new history slice with msgs appended, leaving the
// receiver's backing array untouched so prior record snapshots stay intact.
func (h History) appendCopy(msgs ...Message) History {
	out := make(History, 0, len(h)+len(msgs))
	out = append(out, h...)
	out = append(out, msgs...)
	return out
}
