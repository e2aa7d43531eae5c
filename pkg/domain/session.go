package domain

import "time"

// Tags maps a tag name to the number of times it was collected.
type Tags map[string]int

// Add increments every named tag by one.
func (t Tags) Add(names ...string) {
	for _, name := range names {
		t[name]++
	}
}

// Clone returns an independent copy.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Complete returns a mapping with exactly one entry per universe tag.
// Tags outside the universe, e.g. left over from an older vocabulary, are dropped.
func (t Tags) Complete(universe []string) Tags {
	out := make(Tags, len(universe))
	for _, name := range universe {
		out[name] = t[name]
	}
	return out
}

// Session is the persisted state of one conversation.
type Session struct {
	ConversationID string    `json:"conversation_id"`
	CurrentNode    string    `json:"current_node,omitempty"`
	Tags           Tags      `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSession creates an unstarted session.
func NewSession(conversationID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ConversationID: conversationID,
		Tags:           make(Tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Started reports whether the conversation is at some node.
func (s *Session) Started() bool {
	return s != nil && s.CurrentNode != ""
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	if s.Tags != nil {
		next.Tags = s.Tags.Clone()
	} else {
		next.Tags = make(Tags)
	}
	return &next
}
