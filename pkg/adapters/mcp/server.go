// Package mcp exposes a Bot as a Model Context Protocol server, so agents can
// hold scripted conversations through tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/internal/runtime"
	httpadapter "github.com/aretw0/colloquy/pkg/adapters/http"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// VocabularyURI names the vocabulary resource.
const VocabularyURI = "colloquy://vocabulary"

// Bot is the part of the bot facade the MCP server drives.
type Bot interface {
	HandleEvent(ctx context.Context, ev domain.Event) (*runtime.TurnResult, error)
	Session(ctx context.Context, conversationID string) (*domain.Session, error)
	Tags(ctx context.Context, conversationID string) (domain.Tags, error)
	Vocabulary() *domain.Vocabulary
}

// TurnResponse mirrors the HTTP reply to POST /events.
type TurnResponse struct {
	Outcome  string                 `json:"outcome" jsonschema_description:"started, advanced, reprompted, recovered or ignored"`
	From     string                 `json:"from,omitempty" jsonschema_description:"Node before the turn"`
	To       string                 `json:"to,omitempty" jsonschema_description:"Node after the turn"`
	Messages []domain.RenderRequest `json:"messages" jsonschema_description:"Messages to show the user, in order"`
}

// SessionResponse describes a stored conversation.
type SessionResponse struct {
	ConversationID string      `json:"conversation_id"`
	CurrentNode    string      `json:"current_node"`
	Tags           domain.Tags `json:"tags" jsonschema_description:"Complete tag mapping, zero for tags never collected"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TagsResponse is the result of get_tags.
type TagsResponse struct {
	ConversationID string      `json:"conversation_id"`
	Tags           domain.Tags `json:"tags"`
}

type sendEventArgs struct {
	ConversationID string   `json:"conversation_id"`
	Text           string   `json:"text"`
	Kind           string   `json:"kind"`
	Choice         *int     `json:"choice"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

type conversationArgs struct {
	ConversationID string `json:"conversation_id"`
}

type vocabularySummary struct {
	Default string        `json:"default"`
	Tags    []string      `json:"tags"`
	Nodes   []nodeSummary `json:"nodes"`
}

type nodeSummary struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Reset   bool   `json:"reset,omitempty"`
	Answers int    `json:"answers"`
}

// Server wraps a Bot and exposes it as an MCP server.
type Server struct {
	bot       Bot
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server for bot.
func NewServer(bot Bot, opts ...Option) *Server {
	s := &Server{
		bot:       bot,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("colloquy-mcp", strings.TrimSpace(colloquy.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// HandleMessage processes one raw JSON-RPC message, for embedding the server
// behind a custom transport.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, raw)
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_event",
		mcp.WithDescription("Send one user message to a conversation and get the bot's replies. The first event of a conversation starts it at the default node."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to advance")),
		mcp.WithString("text", mcp.Description("Typed text")),
		mcp.WithNumber("choice", mcp.Description("Index of a pressed choice from the last reply")),
		mcp.WithString("kind", mcp.Description("Content kind: text (default), location, photo or contact")),
		mcp.WithNumber("latitude", mcp.Description("Latitude of a shared location")),
		mcp.WithNumber("longitude", mcp.Description("Longitude of a shared location")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendEvent))

	sessionTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored state of a conversation."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to inspect")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(sessionTool, mcp.NewStructuredToolHandler(s.handleGetSession))

	tagsTool := mcp.NewTool("get_tags",
		mcp.WithDescription("Get the tag counts collected by a conversation, one entry per vocabulary tag."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to inspect")),
		mcp.WithOutputSchema[TagsResponse](),
	)
	s.mcpServer.AddTool(tagsTool, mcp.NewStructuredToolHandler(s.handleGetTags))
}

func (s *Server) handleSendEvent(ctx context.Context, _ mcp.CallToolRequest, args sendEventArgs) (TurnResponse, error) {
	if strings.TrimSpace(args.ConversationID) == "" {
		return TurnResponse{}, errors.New("conversation_id is required")
	}

	ev := domain.Event{
		ConversationID: args.ConversationID,
		MessageID:      uuid.NewString(),
		Kind:           args.Kind,
		Choice:         args.Choice,
	}
	if ev.Kind == "" {
		ev.Kind = domain.KindText
	}
	if args.Latitude != nil && args.Longitude != nil {
		ev.Location = &domain.Location{Latitude: *args.Latitude, Longitude: *args.Longitude}
		if args.Kind == "" {
			ev.Kind = domain.KindLocation
		}
	}
	if args.Text != "" {
		clean, err := httpadapter.SanitizeInput(args.Text)
		if err != nil {
			s.logger.Warn("MCP send_event: Input rejected", "err", err, "size", len(args.Text))
			return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		ev.Text = clean
	}

	res, err := s.bot.HandleEvent(ctx, ev)
	if err != nil {
		s.logger.Error("MCP send_event: Turn failed", "err", err, "conversation_id", ev.ConversationID)
		return TurnResponse{}, errors.New("turn failed")
	}

	resp := TurnResponse{
		Outcome:  string(res.Outcome),
		From:     res.From,
		To:       res.To,
		Messages: res.Renders,
	}
	if resp.Messages == nil {
		resp.Messages = []domain.RenderRequest{}
	}
	return resp, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args conversationArgs) (SessionResponse, error) {
	sess, err := s.bot.Session(ctx, args.ConversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return SessionResponse{}, fmt.Errorf("no conversation %q", args.ConversationID)
	}
	if err != nil {
		s.logger.Error("MCP get_session failed", "err", err, "conversation_id", args.ConversationID)
		return SessionResponse{}, errors.New("session lookup failed")
	}
	tags, err := s.bot.Tags(ctx, args.ConversationID)
	if err != nil {
		s.logger.Error("MCP get_session: Tags failed", "err", err, "conversation_id", args.ConversationID)
		return SessionResponse{}, errors.New("session lookup failed")
	}
	return SessionResponse{
		ConversationID: sess.ConversationID,
		CurrentNode:    sess.CurrentNode,
		Tags:           tags,
		UpdatedAt:      sess.UpdatedAt,
	}, nil
}

func (s *Server) handleGetTags(ctx context.Context, _ mcp.CallToolRequest, args conversationArgs) (TagsResponse, error) {
	tags, err := s.bot.Tags(ctx, args.ConversationID)
	if err != nil {
		s.logger.Error("MCP get_tags failed", "err", err, "conversation_id", args.ConversationID)
		return TagsResponse{}, errors.New("tag lookup failed")
	}
	return TagsResponse{ConversationID: args.ConversationID, Tags: tags}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(VocabularyURI, "Loaded vocabulary",
		mcp.WithResourceDescription("Default node, nodes with their types, and the tag universe"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		v := s.bot.Vocabulary()
		summary := vocabularySummary{
			Default: v.DefaultNode,
			Tags:    v.TagUniverse(),
			Nodes:   make([]nodeSummary, 0, len(v.Nodes)),
		}
		for _, name := range v.NodeNames() {
			n, _ := v.Node(name)
			summary.Nodes = append(summary.Nodes, nodeSummary{
				Name:    name,
				Type:    n.Type,
				Reset:   n.ResetOnEnter,
				Answers: len(n.Answers),
			})
		}
		jsonBytes, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to encode vocabulary: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      VocabularyURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
