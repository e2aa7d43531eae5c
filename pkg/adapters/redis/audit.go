package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/google/uuid"
)

// The message log is a list per conversation plus a set of seen message ids.
// Users and chats are hashes keyed by id, written once.

func (s *Store) messagesKey(conversationID string) string {
	return s.prefix + "messages:" + conversationID
}

func (s *Store) seenKey(conversationID string) string {
	return s.prefix + "messages:" + conversationID + ":seen"
}

func (s *Store) usersKey() string {
	return s.prefix + "users"
}

func (s *Store) chatsKey() string {
	return s.prefix + "chats"
}

// Record appends an inbound message. Duplicate deliveries of the same message are ignored.
func (s *Store) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	added, err := s.client.SAdd(ctx, s.seenKey(rec.ConversationID), rec.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to record message %s: %w", rec.ID, err)
	}
	if added == 0 {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, s.messagesKey(rec.ConversationID), data).Err(); err != nil {
		return fmt.Errorf("failed to record message %s: %w", rec.ID, err)
	}
	return nil
}

// Messages returns the logged messages of a conversation, oldest first.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]domain.AuditRecord, error) {
	vals, err := s.client.LRange(ctx, s.messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	out := make([]domain.AuditRecord, 0, len(vals))
	for _, v := range vals {
		var rec domain.AuditRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

type chatRecord struct {
	Type      string    `json:"type,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Register stores the user profile and the chat of a conversation unless they already exist.
func (s *Store) Register(ctx context.Context, ev domain.Event) error {
	chat := chatRecord{Type: ev.ChatType, CreatedAt: time.Now().UTC()}

	pipe := s.client.TxPipeline()
	if u := ev.User; u != nil && u.ID != "" {
		profile, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}
		pipe.HSetNX(ctx, s.usersKey(), u.ID, profile)
		chat.UserID = u.ID
	}
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}
	pipe.HSetNX(ctx, s.chatsKey(), ev.ConversationID, data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register chat %s: %w", ev.ConversationID, err)
	}
	return nil
}
