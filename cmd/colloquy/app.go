package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/internal/config"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/adapters/redis"
	"github.com/aretw0/colloquy/pkg/adapters/sqlstore"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/persistence/middleware"
	"github.com/aretw0/colloquy/pkg/ports"
)

// historyReader reads back the message log of a conversation.
type historyReader interface {
	Messages(ctx context.Context, conversationID string) ([]domain.AuditRecord, error)
}

// backend bundles the storage side chosen by the configuration.
type backend struct {
	store     ports.SessionStore
	audit     ports.AuditLog
	registrar ports.Registrar
	locker    ports.DistributedLocker
	history   historyReader
	keys      middleware.EncryptionConfig
	closers   []io.Closer
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	return errors.Join(errs...)
}

// openBackend connects the configured session store, audit log and lock.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{}

	driver := cfg.StoreDriver()
	switch driver {
	case config.DriverMemory:
		audit := memory.NewAuditLog()
		b.store, b.audit, b.registrar = memory.NewStore(), audit, audit

	case config.DriverRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		b.store, b.audit, b.registrar, b.history = store, store, store, store
		b.closers = append(b.closers, store)

	case config.DriverPostgres, config.DriverSQLite:
		store, err := sqlstore.Open(ctx, driver, cfg.Store.DSN, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		b.store, b.audit, b.registrar, b.history = store, store, store, store
		b.closers = append(b.closers, store)

	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}

	if cfg.Lock.Distributed {
		lockStore, ok := b.store.(*redis.Store)
		if !ok {
			lockStore = redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			b.closers = append(b.closers, lockStore)
		}
		b.locker = redis.NewLocker(lockStore.Client(), cfg.Redis.Prefix)
	}

	if b.audit != nil {
		audit, err := protectAudit(b.audit, cfg.Audit)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.audit = audit
		b.keys.ActiveKey, b.keys.FallbackKeys, _ = cfg.Audit.Keys()
	}

	logger.Debug("Opened session store", "driver", driver, "distributed_lock", b.locker != nil)
	return b, nil
}

// protectAudit wraps the audit log with the configured redaction, rounding and encryption.
func protectAudit(audit ports.AuditLog, c config.AuditConfig) (ports.AuditLog, error) {
	var mws []middleware.Middleware
	if len(c.Redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(c.Redact))
	}
	if c.LocationDecimals >= 0 {
		mws = append(mws, middleware.NewLocationMiddleware(c.LocationDecimals))
	}
	active, fallback, err := c.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return middleware.Chain(audit, mws...), nil
}

// newBot loads the vocabulary and wires it to the backend.
func newBot(cfg *config.Config, b *backend, opts ...colloquy.Option) (*colloquy.Bot, error) {
	base := []colloquy.Option{
		colloquy.WithStore(b.store),
		colloquy.WithLanguage(cfg.Morph.Language),
		colloquy.WithLogger(logger),
	}
	if b.audit != nil {
		base = append(base, colloquy.WithAuditLog(b.audit))
	}
	if b.registrar != nil {
		base = append(base, colloquy.WithRegistrar(b.registrar))
	}
	if b.locker != nil {
		base = append(base, colloquy.WithLocker(b.locker), colloquy.WithLockTTL(cfg.Lock.TTL))
	}
	bot, err := colloquy.New(cfg.Vocabulary, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	for _, issue := range bot.Validate().Warnings() {
		logger.Warn("Vocabulary warning", "node", issue.Node, "issue", issue.Message)
	}
	return bot, nil
}
