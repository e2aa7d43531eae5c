package colloquy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/internal/morph"
	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/internal/vocab"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/aretw0/colloquy/pkg/session"
)

// TurnResult describes one handled event.
type TurnResult = runtime.TurnResult

// ValidationReport lists problems found in a vocabulary.
type ValidationReport = vocab.Report

// Lemmatizer reduces a lowercase word to the base form used for word matching.
type Lemmatizer interface {
	Lemma(word string) string
}

// Bot is the high-level entry point of the library.
// It wires a vocabulary, a session store and a transport around the turn controller.
type Bot struct {
	vocab      *domain.Vocabulary
	controller *runtime.Controller
	sessions   *session.Manager
	registry   *runtime.Registry

	store      ports.SessionStore
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	sender     ports.Sender
	audit      ports.AuditLog
	registrar  ports.Registrar
	hooks      domain.LifecycleHooks
	lemmatizer Lemmatizer
	language   string
	rng        *rand.Rand
	logger     *slog.Logger

	// Name labels the vocabulary in logs.
	Name string
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithVocabulary uses an already loaded vocabulary instead of reading a file.
func WithVocabulary(v *domain.Vocabulary) Option {
	return func(b *Bot) {
		b.vocab = v
	}
}

// WithStore sets the session store (default: in memory).
func WithStore(store ports.SessionStore) Option {
	return func(b *Bot) {
		b.store = store
	}
}

// WithLocker serializes turns of a conversation across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(b *Bot) {
		b.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock outlives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(b *Bot) {
		b.lockTTL = ttl
	}
}

// WithSender delivers render requests after each turn.
func WithSender(sender ports.Sender) Option {
	return func(b *Bot) {
		b.sender = sender
	}
}

// WithAuditLog records every inbound event.
func WithAuditLog(audit ports.AuditLog) Option {
	return func(b *Bot) {
		b.audit = audit
	}
}

// WithRegistrar enables first-seen user and chat bookkeeping.
func WithRegistrar(r ports.Registrar) Option {
	return func(b *Bot) {
		b.registrar = r
	}
}

// WithLifecycleHooks registers observability hooks.
// Calling it more than once chains the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithLemmatizer replaces the Snowball stemmer used for word matching.
func WithLemmatizer(l Lemmatizer) Option {
	return func(b *Bot) {
		b.lemmatizer = l
	}
}

// WithLanguage selects the Snowball stemmer language (default: russian).
func WithLanguage(language string) Option {
	return func(b *Bot) {
		b.language = language
	}
}

// WithRand makes phrase selection deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(b *Bot) {
		b.rng = rng
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New initializes a Bot from the vocabulary file at vocabPath.
// vocabPath may be empty when WithVocabulary is given.
func New(vocabPath string, opts ...Option) (*Bot, error) {
	b := &Bot{
		registry: runtime.NewRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.vocab == nil {
		if vocabPath == "" {
			return nil, errors.New("vocabulary path is required when no vocabulary is provided")
		}
		v, err := vocab.Load(vocabPath, vocab.WithNodeTypes(b.registry.Types()...))
		if err != nil {
			return nil, fmt.Errorf("failed to load vocabulary %s: %w", vocabPath, err)
		}
		b.vocab = v
	}
	if vocabPath != "" {
		b.Name = filepath.Base(vocabPath)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.Name != "" {
		b.logger = b.logger.With("vocabulary", b.Name)
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}

	lemmatizer := morph.Lemmatizer(b.lemmatizer)
	if lemmatizer == nil {
		s, err := morph.NewSnowball(b.language)
		if err != nil {
			return nil, err
		}
		lemmatizer = s
	}

	sessionOpts := []session.Option{
		session.WithTagUniverse(b.vocab.TagUniverse()),
		session.WithLogger(b.logger),
	}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker), session.WithLockTTL(b.lockTTL))
	}
	b.sessions = session.NewManager(b.store, sessionOpts...)

	matcher := runtime.NewAnswerMatcher(morph.NewMatcher(lemmatizer), b.logger)
	resolver := runtime.NewResolver(b.vocab, b.registry, matcher, runtime.NewPicker(b.rng))

	ctrlOpts := []runtime.ControllerOption{
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(b.hooks),
	}
	if b.audit != nil {
		ctrlOpts = append(ctrlOpts, runtime.WithAuditLog(b.audit))
	}
	if b.registrar != nil {
		ctrlOpts = append(ctrlOpts, runtime.WithRegistrar(b.registrar))
	}
	b.controller = runtime.NewController(resolver, b.sessions, ctrlOpts...)

	return b, nil
}

// HandleEvent runs one turn and hands the resulting messages to the Sender.
// Storage and transport errors are returned; vocabulary errors are recovered.
func (b *Bot) HandleEvent(ctx context.Context, ev domain.Event) (*TurnResult, error) {
	res, err := b.controller.HandleEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	if b.sender == nil {
		return res, nil
	}
	for _, req := range res.Renders {
		if err := b.sender.Send(ctx, req); err != nil {
			return res, fmt.Errorf("failed to send message: %w", err)
		}
	}
	return res, nil
}

// Vocabulary returns the loaded vocabulary.
func (b *Bot) Vocabulary() *domain.Vocabulary {
	return b.vocab
}

// NodeTypes returns the node types the bot can resolve.
func (b *Bot) NodeTypes() []string {
	return b.registry.Types()
}

// Validate checks the vocabulary against the registered node types.
func (b *Bot) Validate() *ValidationReport {
	return vocab.Validate(b.vocab, b.registry.Types())
}

// Tags returns the complete tag mapping of a conversation.
func (b *Bot) Tags(ctx context.Context, conversationID string) (domain.Tags, error) {
	return b.sessions.GetTags(ctx, conversationID)
}

// Session returns the stored session of a conversation.
func (b *Bot) Session(ctx context.Context, conversationID string) (*domain.Session, error) {
	return b.sessions.Load(ctx, conversationID)
}

// Sessions lists stored conversation IDs.
func (b *Bot) Sessions(ctx context.Context) ([]string, error) {
	return b.sessions.List(ctx)
}

// Reset forgets a conversation. Its next event starts over at the default node.
func (b *Bot) Reset(ctx context.Context, conversationID string) error {
	return b.sessions.Delete(ctx, conversationID)
}

// Store returns the session store.
func (b *Bot) Store() ports.SessionStore {
	return b.store
}
