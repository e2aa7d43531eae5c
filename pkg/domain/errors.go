package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a conversation has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// ConfigError reports a vocabulary that cannot drive the current turn:
// missing prompt, unknown node type, no misunderstood phrase, bad field shape.
type ConfigError struct {
	Node   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("config error: %s", e.Reason)
	}
	return fmt.Sprintf("config error in node %q: %s", e.Node, e.Reason)
}

// NotFoundError reports a node name absent from the vocabulary.
type NotFoundError struct {
	Node string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %q not found", e.Node)
}

// IsRecoverable reports whether err belongs to the configuration-shape class
// that a turn recovers from by returning to the default node.
func IsRecoverable(err error) bool {
	var cfgErr *ConfigError
	var nfErr *NotFoundError
	return errors.As(err, &cfgErr) || errors.As(err, &nfErr)
}
