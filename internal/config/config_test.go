package config_test

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/colloquy/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) config.Option {
	return config.WithEnvFiles(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "voc.yaml", cfg.Vocabulary)
	assert.Equal(t, config.DriverMemory, cfg.StoreDriver())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 60, cfg.Telegram.Timeout)
	assert.Equal(t, "russian", cfg.Morph.Language)
	assert.Equal(t, 16, cfg.Dispatch.Workers)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, -1, cfg.Audit.LocationDecimals)
	assert.Empty(t, cfg.Audit.Redact)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("COLLOQUY_HTTP_ADDR", ":9090")
	t.Setenv("COLLOQUY_REDIS_TTL", "1h")
	t.Setenv("COLLOQUY_LOG_LEVEL", "debug")

	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("VOC_FILE", "/etc/bot/voc.yaml")
	t.Setenv("DATABASE_URL", "postgres://bot@localhost/bot")

	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "/etc/bot/voc.yaml", cfg.Vocabulary)
	assert.Equal(t, config.DriverPostgres, cfg.StoreDriver())

	t.Setenv("COLLOQUY_TELEGRAM_TOKEN", "456:def")
	cfg, err = config.Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "456:def", cfg.Telegram.Token, "The prefixed variable wins")
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("COLLOQUY_MORPH_LANGUAGE=english\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("COLLOQUY_MORPH_LANGUAGE") })

	cfg, err := config.Load(config.WithEnvFiles(path))
	require.NoError(t, err)
	assert.Equal(t, "english", cfg.Morph.Language)
}

func TestLoad_ConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colloquy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vocabulary: bots/pets.yaml
store:
  driver: sqlite
  dsn: data/bot.db
redis:
  addr: localhost:6379
lock:
  distributed: true
`), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("http-addr", ":8080", "")
	fs.String("vocabulary", "voc.yaml", "")
	require.NoError(t, fs.Parse([]string{"--http-addr", ":7070"}))

	cfg, err := config.Load(noEnvFile(t), config.WithConfigFile(path), config.WithFlags(fs))
	require.NoError(t, err)

	assert.Equal(t, "bots/pets.yaml", cfg.Vocabulary, "An unchanged flag does not override the file")
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, config.DriverSQLite, cfg.StoreDriver(), "sqlite is normalized")
	assert.True(t, cfg.Lock.Distributed)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(noEnvFile(t), config.WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)

	t.Setenv("COLLOQUY_STORE_DRIVER", "mongo")
	_, err = config.Load(noEnvFile(t))
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestConfig_Validate(t *testing.T) {
	cfg := &config.Config{Dispatch: config.DispatchConfig{Workers: 1}, Lock: config.LockConfig{Distributed: true}}
	assert.Error(t, cfg.Validate(), "A distributed lock needs redis")

	cfg.Redis.Addr = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg.Dispatch.Workers = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_StoreDriver(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"explicit", config.Config{Store: config.StoreConfig{Driver: config.DriverRedis, DSN: "x.db"}}, config.DriverRedis},
		{"sqlite file", config.Config{Store: config.StoreConfig{DSN: "data/bot.db"}}, config.DriverSQLite},
		{"postgres keywords", config.Config{Store: config.StoreConfig{DSN: "host=db dbname=bot"}}, config.DriverPostgres},
		{"redis address", config.Config{Redis: config.RedisConfig{Addr: "localhost:6379"}}, config.DriverRedis},
		{"nothing", config.Config{}, config.DriverMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.StoreDriver())
		})
	}
}

func TestAuditConfig_Keys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{2}, 32))

	active, fallback, err := config.AuditConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active, "Encryption is off without a key")
	assert.Nil(t, fallback)

	active, fallback, err = config.AuditConfig{EncryptionKey: key, FallbackKeys: []string{old}}.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(2), fallback[0][0])

	_, _, err = config.AuditConfig{EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}.Keys()
	assert.ErrorContains(t, err, "32 bytes")
}

func TestLoad_AuditSettings(t *testing.T) {
	t.Setenv("COLLOQUY_AUDIT_LOCATION_DECIMALS", "2")
	t.Setenv("COLLOQUY_AUDIT_REDACT", `\d{6},\S+@\S+`)

	cfg, err := config.Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Audit.LocationDecimals)
	assert.Equal(t, []string{`\d{6}`, `\S+@\S+`}, cfg.Audit.Redact)

	t.Setenv("COLLOQUY_AUDIT_REDACT", `(unclosed`)
	_, err = config.Load(noEnvFile(t))
	assert.ErrorContains(t, err, "audit.redact")
}
