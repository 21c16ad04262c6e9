package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	RolePlayer = "player" // the user's character
	RoleNPC    = "npc"    // the subject speaking in the scene
	RoleSystem = "system" // engine directives, never shown as dialogue
)

// Message is a single entry in a chat-phase transcript.
type Message struct {
	Sender       string   `json:"sender"`
	Role         string   `json:"role"`
	Text         string   `json:"text"`
	DebugPrompt  string   `json:"debug_prompt,omitempty"` // prompt that produced an NPC reply
	Alternatives []string `json:"alternatives,omitempty"` // earlier generations kept for swiping
}

// IsSystem reports whether the message is an engine directive.
func (m Message) IsSystem() bool {
	return m.Role == RoleSystem
}

// Line renders the message as a "Sender: text" transcript line.
func (m Message) Line() string {
	return m.Sender + ": " + m.Text
}

// Clone returns a copy that does not share the alternatives slice.
func (m Message) Clone() Message {
	m.Alternatives = append([]string(nil), m.Alternatives...)
	return m
}

// CloneAll copies a transcript.
func CloneAll(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// ChatRequest is a player message sent to the stage-engine api.
type ChatRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

// ChatResponse is returned by the chat endpoints.
type ChatResponse struct {
	SessionID    uuid.UUID `json:"session_id,omitempty"`
	Message      *Message  `json:"message,omitempty"`
	MessageCount int       `json:"message_count"`
}

func (cr *ChatRequest) Validate() error {
	if strings.TrimSpace(cr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// StripSpeakerPrefix removes a leading "Name:" from text when it names the
// given speaker.
func StripSpeakerPrefix(text, speaker string) string {
	trimmed := strings.TrimSpace(text)
	if speaker == "" {
		return trimmed
	}
	prefix := speaker + ":"
	if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return strings.TrimSpace(trimmed[len(prefix):])
	}
	return trimmed
}
