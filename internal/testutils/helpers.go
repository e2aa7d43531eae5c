// Package testutils holds fixtures shared by tests across packages.
package testutils

import (
	"strings"
	"testing"

	"github.com/aretw0/colloquy/internal/vocab"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/stretchr/testify/require"
)

// PetsVocabulary exercises every answer rule: choices, words, content type,
// visibility conditions, tags, resets and external links.
const PetsVocabulary = `
default: begin
wrong: Sorry?
nodes:
  begin:
    type: variant
    q: Cats or dogs?
    a:
      - name: Secret
        goto: secret
        if: likes_cats > 0
      - name: Cats
        goto: cats
        words: [cat, kitten]
        tags: likes_cats
      - name: Dogs
        goto: dogs
        words: dog
        tags: [likes_dogs, pets]
      - name: Site
        goto: https://example.com
  cats:
    q: Meow. Where are you?
    wrong: Send a location please.
    a:
      - type: location
        goto: shelter
        tags: pets
      - words: back
        goto: begin
  dogs:
    q: Woof.
    reset: true
    a:
      words: "*"
      goto: begin
  shelter:
    type: location
    q: A shelter is near.
    a:
      - name: Broken
        goto: nowhere
      - name: Again
        goto: begin
  secret:
    q: You found the secret.
    a:
      words: "*"
      goto: begin
`

// MustDecode decodes a YAML vocabulary or fails the test.
func MustDecode(t testing.TB, src string) *domain.Vocabulary {
	t.Helper()
	v, err := vocab.Decode(strings.NewReader(src))
	require.NoError(t, err, "Failed to decode vocabulary")
	return v
}

// Text builds a free-text event.
func Text(conversationID, text string) domain.Event {
	return domain.Event{ConversationID: conversationID, Kind: domain.KindText, Text: text}
}

// Choice builds an event for a pressed rendered choice.
func Choice(conversationID string, index int) domain.Event {
	return domain.Event{ConversationID: conversationID, Kind: domain.KindText, Choice: &index}
}

// Location builds a shared-location event.
func Location(conversationID string, lat, lon float64) domain.Event {
	return domain.Event{
		ConversationID: conversationID,
		Kind:           domain.KindLocation,
		Location:       &domain.Location{Latitude: lat, Longitude: lon},
	}
}
