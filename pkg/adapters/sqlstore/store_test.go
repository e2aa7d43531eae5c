package sqlstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/colloquy/pkg/adapters/sqlstore"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sqlstore.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nested", "colloquy.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, openSQLite(t))
}

func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	store, err := sqlstore.Open(context.Background(), sqlstore.DriverPostgres, dsn)
	require.NoError(t, err)
	defer store.Close()

	ports.RunSessionStoreContract(t, store)
}

func TestOpen_ReappliesMigrations(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "colloquy.db")
	ctx := context.Background()

	first, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, first.Upsert(ctx, domain.NewSession("42")))
	require.NoError(t, first.Close())

	second, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.Get(ctx, "42")
	assert.NoError(t, err, "Data must survive reopening")
}

func TestOpen_Errors(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), "mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported")

	_, err = sqlstore.Open(context.Background(), sqlstore.DriverSQLite, "")
	assert.Error(t, err)
}

func TestStore_RecordAndMessages(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	idx := 1

	require.NoError(t, store.Record(ctx, domain.AuditRecord{
		ID: "1", ConversationID: "42", Kind: "plain", Text: "hello", ReceivedAt: base,
	}))
	require.NoError(t, store.Record(ctx, domain.AuditRecord{
		ID: "2", ConversationID: "42", Kind: "variant", Choice: &idx, ReceivedAt: base.Add(time.Second),
	}))
	require.NoError(t, store.Record(ctx, domain.AuditRecord{
		ID: "3", ConversationID: "42", Kind: domain.KindLocation,
		Location: &domain.Location{Latitude: 55.75, Longitude: 37.61}, ReceivedAt: base.Add(2 * time.Second),
	}))
	// Redelivery is ignored.
	require.NoError(t, store.Record(ctx, domain.AuditRecord{
		ID: "1", ConversationID: "42", Kind: "plain", Text: "dup", ReceivedAt: base,
	}))
	// Missing IDs are generated.
	require.NoError(t, store.Record(ctx, domain.AuditRecord{ConversationID: "other", Kind: "plain"}))

	msgs, err := store.Messages(ctx, "42")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, "hello", msgs[0].Text)
	assert.Nil(t, msgs[0].Choice)
	require.NotNil(t, msgs[1].Choice)
	assert.Equal(t, 1, *msgs[1].Choice)
	require.NotNil(t, msgs[2].Location)
	assert.InDelta(t, 55.75, msgs[2].Location.Latitude, 1e-9)

	other, err := store.Messages(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.NotEmpty(t, other[0].ID)
}

func TestStore_Register(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()

	ev := domain.Event{
		ConversationID: "42",
		ChatType:       "private",
		User:           &domain.UserProfile{ID: "7", FirstName: "Ann", Username: "ann"},
	}
	require.NoError(t, store.Register(ctx, ev))
	require.NoError(t, store.Register(ctx, ev), "Registering twice is a no-op")

	var count int
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)

	var chatType, userID string
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT type, user_id FROM chats WHERE id = '42'`).Scan(&chatType, &userID))
	assert.Equal(t, "private", chatType)
	assert.Equal(t, "7", userID)

	// Anonymous events still register the chat.
	require.NoError(t, store.Register(ctx, domain.Event{ConversationID: "anon"}))
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestDetectDriver(t *testing.T) {
	assert.Equal(t, sqlstore.DriverPostgres, sqlstore.DetectDriver("postgres://u:p@localhost/db"))
	assert.Equal(t, sqlstore.DriverPostgres, sqlstore.DetectDriver("host=localhost dbname=bot"))
	assert.Equal(t, sqlstore.DriverSQLite, sqlstore.DetectDriver("data/bot.db"))
}
