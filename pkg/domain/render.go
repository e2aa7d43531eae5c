package domain

// Choice is one rendered option.
// For internal choices Target is the opaque selector the transport echoes back
// (the index in the rendered list). For external ones it is the URL.
type Choice struct {
	DisplayName string `json:"display_name"`
	External    bool   `json:"external,omitempty"`
	Target      string `json:"target"`
}

// RenderRequest asks the transport to show something to the user.
type RenderRequest struct {
	ConversationID string   `json:"conversation_id"`
	Node           string   `json:"node,omitempty"`
	Text           string   `json:"text"`
	Photo          string   `json:"photo,omitempty"`
	Choices        []Choice `json:"choices,omitempty"`
}
