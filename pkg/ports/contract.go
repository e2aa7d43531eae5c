package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	conversationID := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Upsert and Get", func(t *testing.T) {
		s := domain.NewSession(conversationID)
		s.CurrentNode = "begin"
		s.Tags.Add("cats", "cats", "dogs")

		require.NoError(t, store.Upsert(ctx, s), "Upsert should not return error")

		loaded, err := store.Get(ctx, conversationID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, conversationID, loaded.ConversationID)
		assert.Equal(t, "begin", loaded.CurrentNode)
		assert.Equal(t, 2, loaded.Tags["cats"])
		assert.Equal(t, 1, loaded.Tags["dogs"])
	})

	t.Run("Upsert Replaces", func(t *testing.T) {
		s := domain.NewSession(conversationID)
		s.CurrentNode = "ask_name"

		require.NoError(t, store.Upsert(ctx, s))

		loaded, err := store.Get(ctx, conversationID)
		require.NoError(t, err)
		assert.Equal(t, "ask_name", loaded.CurrentNode)
		assert.Empty(t, loaded.Tags, "Tags should be replaced, not merged")
		assert.NotNil(t, loaded.Tags, "Tags should never be nil after Get")
	})

	t.Run("Get Is Isolated", func(t *testing.T) {
		loaded, err := store.Get(ctx, conversationID)
		require.NoError(t, err)
		loaded.Tags.Add("mutated")
		loaded.CurrentNode = "mutated"

		again, err := store.Get(ctx, conversationID)
		require.NoError(t, err)
		assert.Equal(t, "ask_name", again.CurrentNode)
		assert.Zero(t, again.Tags["mutated"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		require.NoError(t, store.Upsert(ctx, domain.NewSession(id1)))
		require.NoError(t, store.Upsert(ctx, domain.NewSession(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, conversationID), "Delete should not return error")

		_, err := store.Get(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Get after Delete should return ErrSessionNotFound")
	})
}
