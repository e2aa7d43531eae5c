package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/pkg/dispatch"
	"github.com/aretw0/colloquy/pkg/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultPollTimeout is the long-polling timeout in seconds.
const DefaultPollTimeout = 60

// API is the subset of *tgbotapi.BotAPI the adapter uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Connect authenticates with the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

// Sender delivers render requests to Telegram chats. It implements ports.Sender.
type Sender struct {
	api      API
	rowWidth int
}

// NewSender creates a Sender with the default keyboard row width.
func NewSender(api API) *Sender {
	return &Sender{api: api, rowWidth: DefaultRowWidth}
}

// Send implements ports.Sender.
func (s *Sender) Send(_ context.Context, req domain.RenderRequest) error {
	chatID, err := strconv.ParseInt(req.ConversationID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", req.ConversationID, err)
	}
	if _, err := s.api.Send(Chattable(chatID, req, s.rowWidth)); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Handler runs one turn. *colloquy.Bot satisfies it.
type Handler interface {
	HandleEvent(ctx context.Context, ev domain.Event) (*runtime.TurnResult, error)
}

// Adapter polls for updates and feeds them to a Handler, one queue per chat.
type Adapter struct {
	api     API
	handler Handler
	timeout int
	workers int
	typing  bool
	logger  *slog.Logger
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithPollTimeout sets the long-polling timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(a *Adapter) {
		a.timeout = seconds
	}
}

// WithWorkers bounds how many chats are handled at the same time.
func WithWorkers(n int) Option {
	return func(a *Adapter) {
		a.workers = n
	}
}

// WithoutTyping disables the "typing" chat action sent before each turn.
func WithoutTyping() Option {
	return func(a *Adapter) {
		a.typing = false
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter creates an Adapter. The handler is expected to send its own
// replies, typically through a Sender built on the same API.
func NewAdapter(api API, handler Handler, opts ...Option) *Adapter {
	a := &Adapter{
		api:     api,
		handler: handler,
		timeout: DefaultPollTimeout,
		workers: dispatch.DefaultWorkers,
		typing:  true,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run polls until ctx is cancelled, then waits for queued turns to finish.
func (a *Adapter) Run(ctx context.Context) error {
	d := dispatch.New(a.handle, dispatch.WithWorkers(a.workers), dispatch.WithLogger(a.logger))
	defer d.Close()

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = a.timeout
	updates := a.api.GetUpdatesChan(cfg)
	defer a.api.StopReceivingUpdates()

	a.logger.Info("Polling for updates", "timeout", a.timeout)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Stopping telegram polling")
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			a.dispatch(ctx, d, u)
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, d *dispatch.Dispatcher, u tgbotapi.Update) {
	if u.CallbackQuery != nil {
		// Stops the button spinner on the client.
		if _, err := a.api.Request(tgbotapi.NewCallback(u.CallbackQuery.ID, "")); err != nil {
			a.logger.Debug("Failed to answer callback", "err", err)
		}
	}
	ev, ok := EventFromUpdate(u)
	if !ok {
		a.logger.Debug("Ignoring update", "update_id", u.UpdateID)
		return
	}
	if err := d.Submit(ctx, ev); err != nil {
		a.logger.Error("Failed to queue event", "conversation_id", ev.ConversationID, "err", err)
	}
}

func (a *Adapter) handle(ctx context.Context, ev domain.Event) error {
	if a.typing {
		if chatID, err := strconv.ParseInt(ev.ConversationID, 10, 64); err == nil {
			if _, err := a.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
				a.logger.Debug("Failed to send chat action", "conversation_id", ev.ConversationID, "err", err)
			}
		}
	}
	_, err := a.handler.HandleEvent(ctx, ev)
	return err
}
