package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestAuditLog(t *testing.T) {
	ctx := context.Background()
	log := memory.NewAuditLog()
	idx := 0

	require.NoError(t, log.Record(ctx, domain.NewAuditRecord(domain.Event{ConversationID: "a", Kind: domain.KindText, Text: "hi"})))
	require.NoError(t, log.Record(ctx, domain.NewAuditRecord(domain.Event{ConversationID: "b", Kind: domain.KindText, Choice: &idx})))

	recs := log.Records("a")
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].ID, "Missing IDs are generated")
	assert.Equal(t, "plain", recs[0].Kind)
	assert.False(t, recs[0].ReceivedAt.IsZero())
	assert.Len(t, log.Records(""), 2)

	require.NoError(t, log.Register(ctx, domain.Event{ConversationID: "a", Text: "first"}))
	require.NoError(t, log.Register(ctx, domain.Event{ConversationID: "a", Text: "second"}))
	assert.True(t, log.Registered("a"))
	assert.False(t, log.Registered("b"))
}
