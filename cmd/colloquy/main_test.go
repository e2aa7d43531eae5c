package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/colloquy/internal/config"
	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/internal/testutils"
	"github.com/aretw0/colloquy/pkg/adapters/sqlstore"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/persistence/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags undoes flag values left behind by a previous Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writePets(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutils.PetsVocabulary), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "colloquy version ")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join("..", "..", "internal", "vocab", "testdata", "pets.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Vocabulary is valid!")

	out, err = execute(t, "validate", filepath.Join("..", "..", "internal", "vocab", "testdata", "broken.yaml"))
	assert.Error(t, err)
	assert.Contains(t, out, `unknown node type "teleport"`)
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", "--store-driver", "memory", writePets(t))
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `begin(("begin"))`)
}

func TestMCPCommand_UnknownTransport(t *testing.T) {
	_, err := execute(t, "mcp", "--store-driver", "memory", "--vocabulary", writePets(t), "--transport", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown transport "carrier-pigeon"`)
}

func TestSessionCommands(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "bot.db")

	out, err := execute(t, "session", "ls", "--store-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "No stored conversations found.")

	_, err = execute(t, "session", "inspect", "42", "--store-dsn", dsn, "--vocabulary", writePets(t))
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, "session", "rm", "--store-dsn", dsn)
	assert.Error(t, err, "rm needs ids or --all")
}

func TestSessionLogCommand_Encrypted(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "bot.db")
	t.Setenv("COLLOQUY_AUDIT_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32))))
	t.Setenv("COLLOQUY_AUDIT_REDACT", `\d{4}`)

	var err error
	cfg, err = config.Load(config.WithEnvFiles(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, err)
	cfg.Store.DSN = dsn
	cfg.Vocabulary = writePets(t)
	logger = logging.NewNop()

	b, err := openBackend(ctx, cfg)
	require.NoError(t, err)
	bot, err := newBot(cfg, b)
	require.NoError(t, err)
	_, err = bot.HandleEvent(ctx, domain.Event{ConversationID: "42", Kind: domain.KindText})
	require.NoError(t, err)
	_, err = bot.HandleEvent(ctx, domain.Event{ConversationID: "42", Kind: domain.KindText, Text: "my dog 1234"})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	raw, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	msgs, err := raw.Messages(ctx, "42")
	require.NoError(t, err)
	require.NoError(t, raw.Close())
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasPrefix(msgs[1].Text, middleware.EnvelopePrefix), "Text is sealed at rest")

	out, err := execute(t, "session", "log", "42", "--store-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "[plain] my dog ***")
	assert.NotContains(t, out, "1234")
}

func TestOpenBackend_RedisKeepsMessageLog(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	var err error
	cfg, err = config.Load(config.WithEnvFiles(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, err)
	cfg.Store.Driver = config.DriverRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Vocabulary = writePets(t)
	logger = logging.NewNop()

	b, err := openBackend(ctx, cfg)
	require.NoError(t, err)
	defer b.Close()
	require.NotNil(t, b.audit, "Redis mode records inbound messages")
	require.NotNil(t, b.registrar)
	require.NotNil(t, b.history)

	bot, err := newBot(cfg, b)
	require.NoError(t, err)
	_, err = bot.HandleEvent(ctx, domain.Event{ConversationID: "42", Kind: domain.KindText, Text: "hi"})
	require.NoError(t, err)

	msgs, err := b.history.Messages(ctx, "42")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
}
