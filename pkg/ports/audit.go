package ports

import (
	"context"

	"github.com/aretw0/colloquy/pkg/domain"
)

// AuditLog accepts append-only records of inbound events.
// The controller treats it as fire-and-forget: errors are logged, never returned.
type AuditLog interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}

// Registrar performs first-seen bookkeeping (user and chat rows) for a new conversation.
type Registrar interface {
	Register(ctx context.Context, ev domain.Event) error
}
