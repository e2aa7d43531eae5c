package ports

import (
	"context"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Sender delivers render requests to the chat platform.
// It is responsible for turning external choices into links and internal
// choices into the in-band selector the transport echoes back.
type Sender interface {
	Send(ctx context.Context, req domain.RenderRequest) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req domain.RenderRequest) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, req domain.RenderRequest) error {
	return f(ctx, req)
}
