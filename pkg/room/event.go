// Package room implements the real-time conversation layer: a hub of
// per-conversation broadcast rooms with bounded subscriber queues, the
// serialized turn pipeline, and the websocket endpoint.
package room

import (
	"encoding/json"
	"time"

	"github.com/balai/budget-middleware/pkg/chat"
)

// Kind tags an event variant
type Kind int

const (
	// KindUserText is a persisted user message echoed to the room
	KindUserText Kind = iota
	// KindAssistantText is a persisted assistant reply
	KindAssistantText
	// KindAssistantError is a transient assistant failure notice.
	// It is broadcast but never persisted as conversation history.
	KindAssistantError
)

// Event is one broadcast to a conversation room
type Event struct {
	Kind      Kind
	Message   string
	MessageID int64
	Timestamp time.Time
}

// UserText builds the event for a persisted user message
func UserText(msg *chat.Message) Event {
	return Event{
		Kind:      KindUserText,
		Message:   msg.Content,
		MessageID: msg.ID,
		Timestamp: msg.CreatedAt,
	}
}

// AssistantText builds the event for a persisted assistant reply
func AssistantText(msg *chat.Message) Event {
	return Event{
		Kind:      KindAssistantText,
		Message:   msg.Content,
		MessageID: msg.ID,
		Timestamp: msg.CreatedAt,
	}
}

// AssistantError builds the transient failure event
func AssistantError(text string) Event {
	return Event{
		Kind:      KindAssistantError,
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
}

type wireEvent struct {
	Message   string `json:"message"`
	Role      string `json:"role"`
	MessageID int64  `json:"message_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     bool   `json:"error"`
}

// MarshalJSON serializes the event in the wire shape
// {message, role, message_id, timestamp, error}.
func (e Event) MarshalJSON() ([]byte, error) {
	wire := wireEvent{
		Message:   e.Message,
		MessageID: e.MessageID,
	}
	if !e.Timestamp.IsZero() {
		wire.Timestamp = e.Timestamp.Format(time.RFC3339Nano)
	}

	switch e.Kind {
	case KindUserText:
		wire.Role = string(chat.RoleUser)
	case KindAssistantText:
		wire.Role = string(chat.RoleAssistant)
	case KindAssistantError:
		wire.Role = string(chat.RoleAssistant)
		wire.Error = true
	}

	return json.Marshal(wire)
}
