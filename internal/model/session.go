package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      = MessageRole("user")
	MessageRoleAssistant = MessageRole("assistant")
)

// DefaultSessionName is the placeholder name a session keeps until the first
// exchange derives a real one (or the user renames it).
const DefaultSessionName = "New Chat"

type Message struct {
	Role    MessageRole
	Content string
	// Model is the display name of the model that produced an assistant
	// message. Empty for user messages. Never sent to the remote API.
	Model string
}

// Session is one independent conversation thread.
type Session struct {
	ID        uuid.UUID
	Name      string
	Messages  []Message
	CreatedAt time.Time
}
