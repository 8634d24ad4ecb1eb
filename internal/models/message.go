package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText        MessageType = "text"
	MessagePhoto       MessageType = "photo"
	MessageCallback    MessageType = "callback_query"
	MessageLocation    MessageType = "location"
	MessageInteractive MessageType = "interactive"
)

// IncomingMessage is the transport-independent form of one inbound
// chat message.
type IncomingMessage struct {
	MessageID       string      `json:"message_id"`
	SenderID        string      `json:"sender_id"`
	SenderUsername  string      `json:"sender_username,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
	Type            MessageType `json:"type"`
	Content         string      `json:"content,omitempty"`
	MediaRef        string      `json:"media_ref,omitempty"`
	CallbackPayload string      `json:"callback_payload,omitempty"`
}

// InlineButton is one quick-reply button attached to an outgoing
// message. Payload is echoed back as CallbackPayload when pressed.
type InlineButton struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// OutgoingMessage is the transport-independent form of one outbound
// chat message. Buttons is a keyboard layout: rows of buttons.
type OutgoingMessage struct {
	Type      MessageType      `json:"type"`
	Text      string           `json:"text,omitempty"`
	PhotoURL  string           `json:"photo_url,omitempty"`
	Buttons   [][]InlineButton `json:"buttons,omitempty"`
	ParseMode string           `json:"parse_mode,omitempty"` // render hint: "HTML" or "Markdown"
}

// StoredMessage is one persisted conversation turn.
type StoredMessage struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	UserID      uuid.UUID   `json:"user_id" db:"user_id"`
	Direction   string      `json:"direction" db:"direction"` // "inbound" or "outbound"
	Content     string      `json:"content" db:"content"`
	MessageType MessageType `json:"message_type" db:"message_type"`
	ExternalID  string      `json:"external_id,omitempty" db:"external_id"`
	Intent      Intent      `json:"intent,omitempty" db:"intent"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// TextMessage is shorthand for a plain text reply.
func TextMessage(text string) OutgoingMessage {
	return OutgoingMessage{Type: MessageText, Text: text}
}
