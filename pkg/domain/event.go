package domain

import "time"

// Content kinds reported by transports. Answers declaring a content type
// compare against these strings.
const (
	KindText     = "text"
	KindLocation = "location"
	KindPhoto    = "photo"
	KindContact  = "contact"
)

// Location is a shared geographic point.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserProfile describes the sender, when the transport knows it.
type UserProfile struct {
	ID           string `json:"id"`
	IsBot        bool   `json:"is_bot,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Event is one inbound message for a conversation.
type Event struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id,omitempty"`
	ChatType       string `json:"chat_type,omitempty"`
	Kind           string `json:"kind"`
	Text           string `json:"text,omitempty"`

	// Choice is the index of a pressed rendered option, nil for typed input.
	Choice *int `json:"choice,omitempty"`

	Location   *Location    `json:"location,omitempty"`
	User       *UserProfile `json:"user,omitempty"`
	ReceivedAt time.Time    `json:"received_at"`
}

// HasChoice reports whether the event comes from pressing a rendered option.
func (e Event) HasChoice() bool {
	return e.Choice != nil
}

// AuditKind classifies the event for the message log.
// Pressed choices are "variant", typed text is "plain", anything else keeps its kind.
func (e Event) AuditKind() string {
	switch {
	case e.HasChoice():
		return NodeTypeVariant
	case e.Kind == KindText:
		return NodeTypePlain
	default:
		return e.Kind
	}
}

// AuditRecord is an append-only copy of an inbound event.
type AuditRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Kind           string    `json:"kind"`
	Text           string    `json:"text,omitempty"`
	Choice         *int      `json:"choice,omitempty"`
	Location       *Location `json:"location,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// NewAuditRecord copies the auditable fields of an event.
func NewAuditRecord(e Event) AuditRecord {
	return AuditRecord{
		ID:             e.MessageID,
		ConversationID: e.ConversationID,
		Kind:           e.AuditKind(),
		Text:           e.Text,
		Choice:         e.Choice,
		Location:       e.Location,
		ReceivedAt:     e.ReceivedAt,
	}
}
