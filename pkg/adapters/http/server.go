// Package http exposes a Bot over a small JSON webhook API described by
// api/openapi.yaml. The document is served at /openapi.yaml and browsable at /swagger.
//
//	POST   /events              handle one inbound event, reply with the turn result
//	GET    /events?conversation_id=ID   stream rendered messages (SSE)
//	GET    /sessions/{id}       stored session with the complete tag mapping
//	DELETE /sessions/{id}       forget a conversation
//	GET    /vocabulary          node summary
//	GET    /health, GET /info
//
// Turn failures are answered with 500 and a generic body; the detail is logged.
package http

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Bot is the part of the bot facade the HTTP API drives.
type Bot interface {
	HandleEvent(ctx context.Context, ev domain.Event) (*runtime.TurnResult, error)
	Session(ctx context.Context, conversationID string) (*domain.Session, error)
	Tags(ctx context.Context, conversationID string) (domain.Tags, error)
	Reset(ctx context.Context, conversationID string) error
	Vocabulary() *domain.Vocabulary
}

// Queue accepts events for asynchronous handling.
type Queue interface {
	Submit(ctx context.Context, ev domain.Event) error
}

// Server serves the webhook API.
type Server struct {
	Bot     Bot
	Streams *StreamManager
	// Queue, when set, makes POST /events answer 202 and hand the event over.
	// Rendered messages then reach clients only through the SSE stream.
	Queue   Queue
	Version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one also used as the bot's Sender.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithQueue enables asynchronous event handling.
func WithQueue(q Queue) Option {
	return func(s *Server) {
		s.Queue = q
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server for bot.
func NewServer(bot Bot, opts ...Option) *Server {
	s := &Server{
		Bot:     bot,
		Version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for bot.
func NewHandler(bot Bot, opts ...Option) http.Handler {
	return NewServer(bot, opts...).Routes()
}

var _ ServerInterface = (*Server)(nil)

// Routes mounts the generated API, the OpenAPI document and a Swagger UI on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("OpenAPI spec decode failed", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})

	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	return HandlerFromMux(s, r)
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Colloquy API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
    });
  };
</script>
</body>
</html>`

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostEvent handles POST /events.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var body PostEventJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostEvent: Invalid request body", "err", err)
		return
	}
	if strings.TrimSpace(body.ConversationId) == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}
	ev := toEvent(body)
	if ev.Text != "" {
		clean, err := SanitizeInput(ev.Text)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn("PostEvent: Input rejected", "err", err, "size", len(ev.Text))
			return
		}
		ev.Text = clean
	}

	if s.Queue != nil {
		if err := s.Queue.Submit(r.Context(), ev); err != nil {
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			s.logger.Error("PostEvent: Submit failed", "err", err, "conversation_id", ev.ConversationID)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	res, err := s.Bot.HandleEvent(r.Context(), ev)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		s.logger.Error("PostEvent: Turn failed", "err", err, "conversation_id", ev.ConversationID)
		return
	}

	resp := TurnResponse{
		Outcome:  string(res.Outcome),
		From:     optional(res.From),
		To:       optional(res.To),
		Messages: make([]Message, 0, len(res.Renders)),
	}
	for _, req := range res.Renders {
		resp.Messages = append(resp.Messages, toMessage(req))
	}
	writeJSON(w, s.logger, resp)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.Bot.Session(r.Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		s.logger.Error("GetSession failed", "err", err, "conversation_id", id)
		return
	}
	tags, err := s.Bot.Tags(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		s.logger.Error("GetSession: Tags failed", "err", err, "conversation_id", id)
		return
	}
	writeJSON(w, s.logger, SessionResponse{
		ConversationId: sess.ConversationID,
		CurrentNode:    sess.CurrentNode,
		Tags:           tags,
		UpdatedAt:      sess.UpdatedAt,
	})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Bot.Reset(r.Context(), id); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		s.logger.Error("DeleteSession failed", "err", err, "conversation_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVocabulary handles GET /vocabulary.
func (s *Server) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	v := s.Bot.Vocabulary()
	resp := VocabularyResponse{
		Default: v.DefaultNode,
		Tags:    v.TagUniverse(),
		Nodes:   make([]NodeSummary, 0, len(v.Nodes)),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, name := range v.NodeNames() {
		n, _ := v.Node(name)
		node := NodeSummary{Name: name, Type: n.Type, Reset: n.ResetOnEnter, Answers: []AnswerSummary{}}
		for _, a := range n.Answers {
			node.Answers = append(node.Answers, AnswerSummary{
				Name:     optional(a.DisplayName),
				Goto:     a.Goto,
				External: a.External,
				Words:    optionalList(a.Words),
				Type:     optional(a.ContentType),
				Tags:     optionalList(a.Tags),
				If:       optional(a.Condition),
			})
		}
		resp.Nodes = append(resp.Nodes, node)
	}
	writeJSON(w, s.logger, resp)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, HealthResponse{Status: "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, s.logger, InfoResponse{
		App:        "colloquy-http",
		Version:    strings.TrimSpace(s.Version),
		ApiVersion: apiVersion,
	})
}

func toEvent(body EventRequest) domain.Event {
	ev := domain.Event{
		ConversationID: body.ConversationId,
		MessageID:      deref(body.MessageId),
		ChatType:       deref(body.ChatType),
		Kind:           deref(body.Kind),
		Text:           deref(body.Text),
		Choice:         body.Choice,
	}
	if ev.Kind == "" {
		ev.Kind = domain.KindText
	}
	if ev.MessageID == "" {
		ev.MessageID = uuid.NewString()
	}
	if body.Location != nil {
		ev.Location = &domain.Location{Latitude: body.Location.Latitude, Longitude: body.Location.Longitude}
	}
	if u := body.User; u != nil {
		ev.User = &domain.UserProfile{
			ID:           u.Id,
			IsBot:        u.IsBot != nil && *u.IsBot,
			FirstName:    deref(u.FirstName),
			LastName:     deref(u.LastName),
			Username:     deref(u.Username),
			LanguageCode: deref(u.LanguageCode),
		}
	}
	return ev
}

func toMessage(req domain.RenderRequest) Message {
	msg := Message{
		ConversationId: req.ConversationID,
		Node:           optional(req.Node),
		Text:           req.Text,
		Photo:          optional(req.Photo),
		Choices:        make([]Choice, 0, len(req.Choices)),
	}
	for _, c := range req.Choices {
		choice := Choice{DisplayName: c.DisplayName, Target: c.Target}
		if c.External {
			choice.External = &c.External
		}
		msg.Choices = append(msg.Choices, choice)
	}
	return msg
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalList(l []string) *[]string {
	if len(l) == 0 {
		return nil
	}
	return &l
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
