package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/google/uuid"
)

// AuditLog keeps inbound event records and registered users in memory.
// It implements ports.AuditLog and ports.Registrar.
type AuditLog struct {
	mu         sync.RWMutex
	records    []domain.AuditRecord
	registered map[string]domain.Event
}

// NewAuditLog creates an empty in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{
		registered: make(map[string]domain.Event),
	}
}

// Record appends a record. Records without an ID get a random one.
func (a *AuditLog) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

// Register remembers the first event of a conversation. Later calls are ignored.
func (a *AuditLog) Register(ctx context.Context, ev domain.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.registered[ev.ConversationID]; !ok {
		a.registered[ev.ConversationID] = ev
	}
	return nil
}

// Records returns a snapshot of every record of a conversation, oldest first.
// An empty conversationID returns all records.
func (a *AuditLog) Records(conversationID string) []domain.AuditRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]domain.AuditRecord, 0, len(a.records))
	for _, r := range a.records {
		if conversationID == "" || r.ConversationID == conversationID {
			out = append(out, r)
		}
	}
	return out
}

// Registered reports whether a conversation went through first-seen bookkeeping.
func (a *AuditLog) Registered(conversationID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.registered[conversationID]
	return ok
}
