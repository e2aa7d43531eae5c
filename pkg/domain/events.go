package domain

import (
	"context"
	"time"
)

// Outcome names how a turn ended.
type Outcome string

const (
	OutcomeStarted    Outcome = "started"
	OutcomeAdvanced   Outcome = "advanced"
	OutcomeReprompted Outcome = "reprompted"
	OutcomeRecovered  Outcome = "recovered"
	OutcomeIgnored    Outcome = "ignored"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
}

// NodeEvent is emitted when a conversation enters a node.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	Reset    bool   `json:"reset,omitempty"`
}

// TurnEvent is emitted once per handled turn.
type TurnEvent struct {
	EventBase
	From     string        `json:"from,omitempty"`
	To       string        `json:"to,omitempty"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNoMatch   func(context.Context, *NodeEvent)
	OnRecover   func(context.Context, *TurnEvent)
	OnTurn      func(context.Context, *TurnEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNoMatch:   chainNode(h.OnNoMatch, other.OnNoMatch),
		OnRecover:   chainTurn(h.OnRecover, other.OnRecover),
		OnTurn:      chainTurn(h.OnTurn, other.OnTurn),
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainTurn(a, b func(context.Context, *TurnEvent)) func(context.Context, *TurnEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *TurnEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
