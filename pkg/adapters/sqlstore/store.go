// Package sqlstore persists sessions, first-seen users and chats, and the inbound
// message log in a SQL database. PostgreSQL (lib/pq) and SQLite (go-sqlite3) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations
var migrations embed.FS

// Store implements ports.SessionStore, ports.AuditLog and ports.Registrar.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Opts holds configuration for Open.
type Opts struct {
	Logger        *slog.Logger
	SkipMigration bool
}

// Option configures Open.
type Option func(*Opts)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opts) {
		o.Logger = logger
	}
}

// WithoutMigrations skips schema migration on Open.
func WithoutMigrations() Option {
	return func(o *Opts) {
		o.SkipMigration = true
	}
}

// Open connects to the database and applies pending migrations.
// For SQLite the DSN is a file path whose directory is created if missing.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	cfg := Opts{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if dsn == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	var dialect goose.Dialect
	switch driver {
	case DriverPostgres:
		dialect = goose.DialectPostgres
	case DriverSQLite:
		dialect = goose.DialectSQLite3
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping failed: %w", driver, err)
	}
	cfg.Logger.Debug("Database opened", "driver", driver)

	s := &Store{db: db, driver: driver, logger: cfg.Logger}
	if !cfg.SkipMigration {
		if err := s.migrate(ctx, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context, dialect goose.Dialect) error {
	fsys, err := fs.Sub(migrations, "migrations/"+s.driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Debug("Migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the connection pool, mainly for tests and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites $n placeholders to ? for SQLite.
// Queries must use each placeholder once and in ascending order.
func (s *Store) rebind(query string) string {
	if s.driver != DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Get retrieves the session of a conversation.
func (s *Store) Get(ctx context.Context, conversationID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT conversation_id, current_node, tags, created_at, updated_at FROM sessions WHERE conversation_id = $1`),
		conversationID)

	var (
		sess    domain.Session
		rawTags []byte
	)
	err := row.Scan(&sess.ConversationID, &sess.CurrentNode, &rawTags, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session %s: %w", conversationID, err)
	}
	sess.Tags = make(domain.Tags)
	if len(rawTags) > 0 {
		if err := json.Unmarshal(rawTags, &sess.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of session %s: %w", conversationID, err)
		}
	}
	return &sess, nil
}

// Upsert inserts the session or replaces the stored one in a single statement.
func (s *Store) Upsert(ctx context.Context, session *domain.Session) error {
	tags := session.Tags
	if tags == nil {
		tags = domain.Tags{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	createdAt, updatedAt := session.CreatedAt, session.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (conversation_id, current_node, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (conversation_id) DO UPDATE SET
			current_node = excluded.current_node,
			tags = excluded.tags,
			updated_at = excluded.updated_at`),
		session.ConversationID, session.CurrentNode, string(rawTags), createdAt, updatedAt)
	if err != nil {
		s.logger.Error("Session upsert failed", "conversation_id", session.ConversationID, "err", err)
		return fmt.Errorf("failed to upsert session %s: %w", session.ConversationID, err)
	}
	s.logger.Debug("Session upserted", "conversation_id", session.ConversationID, "node", session.CurrentNode)
	return nil
}

// Delete removes the session of a conversation.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE conversation_id = $1`), conversationID)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", conversationID, err)
	}
	return nil
}

// List returns the IDs of all stored conversations.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT conversation_id FROM sessions ORDER BY conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Register inserts the user and chat rows of a conversation unless they already exist.
func (s *Store) Register(ctx context.Context, ev domain.Event) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin registration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID any
	if u := ev.User; u != nil && u.ID != "" {
		userID = u.ID
		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO users (id, is_bot, first_name, last_name, username, language_code, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING`),
			u.ID, u.IsBot, u.FirstName, u.LastName, u.Username, u.LanguageCode, now)
		if err != nil {
			return fmt.Errorf("failed to register user %s: %w", u.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO chats (id, type, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`),
		ev.ConversationID, ev.ChatType, userID, now)
	if err != nil {
		return fmt.Errorf("failed to register chat %s: %w", ev.ConversationID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	s.logger.Debug("Conversation registered", "conversation_id", ev.ConversationID)
	return nil
}

// Record appends an inbound message. Duplicate deliveries of the same message are ignored.
func (s *Store) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	var choice sql.NullInt64
	if rec.Choice != nil {
		choice = sql.NullInt64{Int64: int64(*rec.Choice), Valid: true}
	}
	var lat, lon sql.NullFloat64
	if rec.Location != nil {
		lat = sql.NullFloat64{Float64: rec.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: rec.Location.Longitude, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO messages (conversation_id, id, kind, text, choice, latitude, longitude, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (conversation_id, id) DO NOTHING`),
		rec.ConversationID, rec.ID, rec.Kind, rec.Text, choice, lat, lon, rec.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to record message %s: %w", rec.ID, err)
	}
	return nil
}

// Messages returns the logged messages of a conversation, oldest first.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]domain.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, kind, text, choice, latitude, longitude, received_at
		FROM messages WHERE conversation_id = $1
		ORDER BY received_at, id`), conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		rec := domain.AuditRecord{ConversationID: conversationID}
		var (
			choice   sql.NullInt64
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Text, &choice, &lat, &lon, &rec.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		if choice.Valid {
			c := int(choice.Int64)
			rec.Choice = &c
		}
		if lat.Valid && lon.Valid {
			rec.Location = &domain.Location{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DetectDriver guesses the driver from a DSN. Postgres URLs and key=value
// strings map to postgres, anything else is treated as a SQLite path.
func DetectDriver(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres
	case strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname="):
		return DriverPostgres
	default:
		return DriverSQLite
	}
}
