package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/pkg/adapters/mcp"
	"github.com/aretw0/colloquy/pkg/observability"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Serves the bot as an MCP server, so AI agents can hold conversations through tools:
send_event, get_session and get_tags. The vocabulary is readable as the
colloquy://vocabulary resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		if transport == "stdio" {
			// The slog logger already writes to stderr; keep the std logger off stdout too.
			log.SetOutput(os.Stderr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		bot, err := newBot(cfg, b, colloquy.WithLifecycleHooks(observability.LoggingHooks(logger)))
		if err != nil {
			return err
		}
		srv := mcp.NewServer(bot, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting MCP server (stdio)", "vocabulary", cfg.Vocabulary)
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting MCP server (SSE)", "port", port, "vocabulary", cfg.Vocabulary)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mcp server: %w", err)
			}
			logger.Info("MCP server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8090, "Port to listen on (only for SSE)")
}
