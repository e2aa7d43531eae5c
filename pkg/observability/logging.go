package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/colloquy/pkg/domain"
)

// LoggingHooks logs node entries and recoveries at Info and the rest at Debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_enter",
				"conversation_id", e.ConversationID,
				"node_id", e.NodeID,
				"type", e.NodeType,
				"reset", e.Reset,
			)
		},
		OnNoMatch: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "no_match",
				"conversation_id", e.ConversationID,
				"node_id", e.NodeID,
			)
		},
		OnRecover: func(ctx context.Context, e *domain.TurnEvent) {
			logger.WarnContext(ctx, "recovered",
				"conversation_id", e.ConversationID,
				"from", e.From,
				"to", e.To,
				"err", e.Err,
			)
		},
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn",
				"conversation_id", e.ConversationID,
				"outcome", e.Outcome,
				"from", e.From,
				"to", e.To,
				"duration", e.Duration,
			)
		},
	}
}
