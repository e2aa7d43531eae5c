// Package config loads runtime settings from a .env file, the environment,
// an optional config file and command-line flags, in increasing precedence.
//
// Environment variables use the COLLOQUY_ prefix with dots replaced by
// underscores (COLLOQUY_STORE_DSN). TOKEN, VOC_FILE and DATABASE_URL are
// also honoured for existing deployments.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/colloquy/pkg/adapters/sqlstore"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "COLLOQUY"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = sqlstore.DriverPostgres
	DriverSQLite   = sqlstore.DriverSQLite
)

// Config holds every runtime setting.
type Config struct {
	Vocabulary string         `mapstructure:"vocabulary"`
	Store      StoreConfig    `mapstructure:"store"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Lock       LockConfig     `mapstructure:"lock"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
	HTTP       HTTPConfig     `mapstructure:"http"`
	Log        LogConfig      `mapstructure:"log"`
	Morph      MorphConfig    `mapstructure:"morph"`
	Dispatch   DispatchConfig `mapstructure:"dispatch"`
	Audit      AuditConfig    `mapstructure:"audit"`
}

// StoreConfig selects the session store.
type StoreConfig struct {
	// Driver is memory, redis, postgres or sqlite3. Empty means detect from the other settings.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig configures the Redis store and lock.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LockConfig enables the cross-process conversation lock (Redis only).
type LockConfig struct {
	Distributed bool          `mapstructure:"distributed"`
	TTL         time.Duration `mapstructure:"ttl"`
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// Timeout is the long-polling timeout in seconds.
	Timeout int `mapstructure:"timeout"`
}

// HTTPConfig configures the webhook server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MorphConfig configures word matching.
type MorphConfig struct {
	Language string `mapstructure:"language"`
}

// DispatchConfig bounds concurrent turn handling.
type DispatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// AuditConfig protects the inbound message log.
type AuditConfig struct {
	// Redact lists regular expressions masked in message text.
	Redact []string `mapstructure:"redact"`
	// LocationDecimals rounds shared locations. Negative keeps full precision.
	LocationDecimals int `mapstructure:"location_decimals"`
	// EncryptionKey is a base64 AES-256 key sealing message text and location.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for reading.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Keys decodes the encryption keys. It returns nil keys when encryption is off.
func (a AuditConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if a.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(a.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("audit.encryption_key: %w", err)
	}
	for i, k := range a.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("audit.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// legacyEnv maps keys to variable names used before the prefix existed.
var legacyEnv = map[string]string{
	"telegram.token": "TOKEN",
	"vocabulary":     "VOC_FILE",
	"store.dsn":      "DATABASE_URL",
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	configFile string
	envFiles   []string
	flags      *pflag.FlagSet
	logger     *slog.Logger
}

// WithConfigFile reads settings from a YAML, TOML or JSON file.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithEnvFiles loads the given dotenv files instead of ./.env.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) {
		l.envFiles = paths
	}
}

// WithFlags lets command-line flags override every other source.
// Flags are matched by key name ("store.dsn") or by their dashed form ("store-dsn").
func WithFlags(fs *pflag.FlagSet) Option {
	return func(l *loader) {
		l.flags = fs
	}
}

// WithLogger reports which sources were used.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("vocabulary", "voc.yaml")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "colloquy:session:")
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("lock.distributed", false)
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.timeout", 60)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("morph.language", "russian")
	v.SetDefault("dispatch.workers", 16)
	v.SetDefault("audit.redact", []string{})
	v.SetDefault("audit.location_decimals", -1)
	v.SetDefault("audit.encryption_key", "")
	v.SetDefault("audit.fallback_keys", []string{})
}

// Load reads the configuration.
func Load(opts ...Option) (*Config, error) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}
	log := func(msg string, args ...any) {
		if l.logger != nil {
			l.logger.Debug(msg, args...)
		}
	}

	// A missing .env is normal.
	if err := godotenv.Load(l.envFiles...); err != nil {
		log("No .env file loaded", "err", err)
	} else {
		log("Loaded .env file", "files", l.envFiles)
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
		log("Loaded config file", "path", v.ConfigFileUsed())
	}

	if l.flags != nil {
		if err := bindFlags(v, l.flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	for _, key := range v.AllKeys() {
		for _, name := range []string{key, strings.ReplaceAll(key, ".", "-")} {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					errs = append(errs, fmt.Errorf("failed to bind flag %s: %w", name, err))
				}
				break
			}
		}
	}
	return errors.Join(errs...)
}

// Validate rejects settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "", DriverMemory, DriverRedis, DriverPostgres, DriverSQLite:
	case "sqlite":
		c.Store.Driver = DriverSQLite
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Lock.Distributed && c.StoreDriver() != DriverRedis && c.Redis.Addr == "" {
		return errors.New("lock.distributed requires redis.addr")
	}
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch.workers must be positive, got %d", c.Dispatch.Workers)
	}
	for _, p := range c.Audit.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("audit.redact: %w", err)
		}
	}
	if _, _, err := c.Audit.Keys(); err != nil {
		return err
	}
	return nil
}

// StoreDriver returns the configured driver, or infers it: a Redis address
// selects redis, a DSN selects postgres or sqlite3 by its shape, and
// nothing selects memory.
func (c *Config) StoreDriver() string {
	switch {
	case c.Store.Driver != "":
		return c.Store.Driver
	case c.Store.DSN != "":
		return sqlstore.DetectDriver(c.Store.DSN)
	case c.Redis.Addr != "":
		return DriverRedis
	default:
		return DriverMemory
	}
}

