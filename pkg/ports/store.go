package ports

import (
	"context"

	"github.com/aretw0/colloquy/pkg/domain"
)

// SessionStore defines the interface for persisting conversation sessions.
// Upsert must be atomic per conversation ID.
type SessionStore interface {
	// Get retrieves the session of a conversation.
	// Returns domain.ErrSessionNotFound if the conversation was never seen.
	Get(ctx context.Context, conversationID string) (*domain.Session, error)

	// Upsert creates or replaces the session keyed by its ConversationID.
	Upsert(ctx context.Context, session *domain.Session) error

	// Delete removes the session of a conversation.
	Delete(ctx context.Context, conversationID string) error

	// List returns the IDs of all stored conversations.
	List(ctx context.Context) ([]string, error)
}
