package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/aretw0/colloquy/pkg/session"
)

// TurnResult describes one handled event.
type TurnResult struct {
	Outcome domain.Outcome
	From    string
	To      string

	// Renders are the messages to deliver, in order.
	Renders []domain.RenderRequest

	// Session is a snapshot of the conversation after the turn.
	Session *domain.Session

	// Recovered holds the configuration error that forced a return to the
	// default node, when Outcome is OutcomeRecovered.
	Recovered error
}

// Controller runs turns. Turns of one conversation are serialized through
// the session manager; turns of different conversations run concurrently.
type Controller struct {
	vocab     *domain.Vocabulary
	resolver  *Resolver
	sessions  *session.Manager
	audit     ports.AuditLog
	registrar ports.Registrar
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithAuditLog records every inbound event.
func WithAuditLog(audit ports.AuditLog) ControllerOption {
	return func(c *Controller) {
		c.audit = audit
	}
}

// WithRegistrar enables first-seen bookkeeping for new conversations.
func WithRegistrar(r ports.Registrar) ControllerOption {
	return func(c *Controller) {
		c.registrar = r
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller.
func NewController(resolver *Resolver, sessions *session.Manager, opts ...ControllerOption) *Controller {
	c := &Controller{
		vocab:    resolver.Vocabulary(),
		resolver: resolver,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleEvent runs one turn for ev.
// Configuration errors are recovered from; storage errors are returned.
func (c *Controller) HandleEvent(ctx context.Context, ev domain.Event) (*TurnResult, error) {
	if ev.ConversationID == "" {
		return nil, errors.New("event has no conversation id")
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	start := time.Now()
	logger := c.logger.With("conversation_id", ev.ConversationID)

	c.record(ctx, logger, ev)

	var res *TurnResult
	err := c.sessions.WithLock(ctx, ev.ConversationID, func(ctx context.Context) error {
		sess, fresh, err := c.load(ctx, ev.ConversationID)
		if err != nil {
			return err
		}
		res, err = c.turn(ctx, logger, sess, fresh, ev)
		return err
	})

	turn := &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), ConversationID: ev.ConversationID},
		Duration:  time.Since(start),
		Err:       err,
	}
	if res != nil {
		turn.From, turn.To, turn.Outcome = res.From, res.To, res.Outcome
	}
	if c.hooks.OnTurn != nil {
		c.hooks.OnTurn(ctx, turn)
	}

	if err != nil {
		logger.Error("Turn failed", "err", err)
		return nil, err
	}
	logger.Debug("Turn handled", "outcome", res.Outcome, "from", res.From, "to", res.To)
	return res, nil
}

func (c *Controller) record(ctx context.Context, logger *slog.Logger, ev domain.Event) {
	if c.audit == nil {
		return
	}
	if err := c.audit.Record(ctx, domain.NewAuditRecord(ev)); err != nil {
		logger.Warn("Failed to record inbound event", "err", err)
	}
}

// load returns the stored session, or a new one with fresh set.
func (c *Controller) load(ctx context.Context, id string) (*domain.Session, bool, error) {
	sess, err := c.sessions.Store().Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewSession(id), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Tags == nil {
		sess.Tags = make(domain.Tags)
	}
	return sess, false, nil
}

// turn must run under the conversation lock.
func (c *Controller) turn(ctx context.Context, logger *slog.Logger, sess *domain.Session, fresh bool, ev domain.Event) (*TurnResult, error) {
	if !sess.Started() {
		if ev.User != nil && ev.User.IsBot {
			logger.Debug("Ignoring bot sender")
			return &TurnResult{Outcome: domain.OutcomeIgnored, Session: sess.Clone()}, nil
		}
		if fresh {
			c.register(ctx, logger, ev)
		}
		res, err := c.enter(ctx, sess, c.vocab.DefaultNode, domain.OutcomeStarted)
		if err != nil {
			return c.recoverToDefault(ctx, logger, sess, "", err)
		}
		return res, nil
	}

	from := sess.CurrentNode
	node, err := c.resolver.Resolve(from)
	if err != nil {
		return c.recoverToDefault(ctx, logger, sess, from, err)
	}

	answer, ok := node.MatchAnswer(ev, c.sessions.CompleteTags(sess.Tags))
	if !ok {
		return c.reprompt(ctx, logger, sess, node)
	}

	c.sessions.CollectTags(sess, answer.Tags...)
	res, err := c.enter(ctx, sess, answer.Goto, domain.OutcomeAdvanced)
	if err != nil {
		return c.recoverToDefault(ctx, logger, sess, from, err)
	}
	res.From = from
	return res, nil
}

// enter renders target and persists it as the current node.
// Configuration errors leave the session unpersisted.
func (c *Controller) enter(ctx context.Context, sess *domain.Session, target string, outcome domain.Outcome) (*TurnResult, error) {
	node, err := c.resolver.Resolve(target)
	if err != nil {
		return nil, err
	}

	tags := sess.Tags
	if node.ResetOnEnter() {
		tags = nil
	}

	req, err := node.RenderPrompt(c.sessions.CompleteTags(tags))
	if err != nil {
		return nil, err
	}
	req.ConversationID = sess.ConversationID

	if node.ResetOnEnter() {
		c.sessions.ClearTags(sess)
	}
	sess.CurrentNode = node.Name()
	sess.UpdatedAt = time.Now().UTC()
	if err := c.persist(ctx, sess); err != nil {
		return nil, err
	}

	if c.hooks.OnNodeEnter != nil {
		c.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), ConversationID: sess.ConversationID},
			NodeID:    node.Name(),
			NodeType:  node.Type(),
			Reset:     node.ResetOnEnter(),
		})
	}

	return &TurnResult{
		Outcome: outcome,
		To:      node.Name(),
		Renders: []domain.RenderRequest{req},
		Session: sess.Clone(),
	}, nil
}

func (c *Controller) reprompt(ctx context.Context, logger *slog.Logger, sess *domain.Session, node Node) (*TurnResult, error) {
	phrase, err := node.MisunderstoodPhrase()
	if err != nil {
		return c.recoverToDefault(ctx, logger, sess, node.Name(), err)
	}

	if c.hooks.OnNoMatch != nil {
		c.hooks.OnNoMatch(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), ConversationID: sess.ConversationID},
			NodeID:    node.Name(),
			NodeType:  node.Type(),
		})
	}

	return &TurnResult{
		Outcome: domain.OutcomeReprompted,
		From:    node.Name(),
		To:      node.Name(),
		Renders: []domain.RenderRequest{{
			ConversationID: sess.ConversationID,
			Node:           node.Name(),
			Text:           phrase,
		}},
		Session: sess.Clone(),
	}, nil
}

// recoverToDefault sends the conversation back to the default node after a
// configuration error. Other errors, and a broken default node, are returned.
func (c *Controller) recoverToDefault(ctx context.Context, logger *slog.Logger, sess *domain.Session, from string, cause error) (*TurnResult, error) {
	if !domain.IsRecoverable(cause) {
		return nil, cause
	}
	logger.Warn("Recovering conversation to default node",
		"node", from,
		"default", c.vocab.DefaultNode,
		"err", cause,
	)

	res, err := c.enter(ctx, sess, c.vocab.DefaultNode, domain.OutcomeRecovered)
	if err != nil {
		return nil, fmt.Errorf("default node %q cannot recover conversation: %w", c.vocab.DefaultNode, err)
	}
	res.From = from
	res.Recovered = cause

	if c.hooks.OnRecover != nil {
		c.hooks.OnRecover(ctx, &domain.TurnEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), ConversationID: sess.ConversationID},
			From:      from,
			To:        res.To,
			Outcome:   domain.OutcomeRecovered,
			Err:       cause,
		})
	}
	return res, nil
}

func (c *Controller) register(ctx context.Context, logger *slog.Logger, ev domain.Event) {
	if c.registrar == nil {
		return
	}
	if err := c.registrar.Register(ctx, ev); err != nil {
		logger.Warn("Failed to register conversation", "err", err)
	}
}

func (c *Controller) persist(ctx context.Context, sess *domain.Session) error {
	if err := c.sessions.Store().Upsert(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Vocabulary returns the vocabulary driving the conversations.
func (c *Controller) Vocabulary() *domain.Vocabulary {
	return c.vocab
}

// Sessions returns the session manager.
func (c *Controller) Sessions() *session.Manager {
	return c.sessions
}
