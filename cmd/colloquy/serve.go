package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/colloquy"
	httpadapter "github.com/aretw0/colloquy/pkg/adapters/http"
	"github.com/aretw0/colloquy/pkg/dispatch"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP webhook server",
	Long: `Serves the bot as a JSON API. POST /events handles an inbound message,
GET /events streams replies over SSE and GET /metrics exposes Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		async, _ := cmd.Flags().GetBool("async")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		reg, metrics := newMetricsRegistry()
		streams := httpadapter.NewStreamManager(logger)
		bot, err := newBot(cfg, b,
			colloquy.WithSender(streams),
			colloquy.WithLifecycleHooks(metrics.Hooks()),
			colloquy.WithLifecycleHooks(observability.LoggingHooks(logger)),
		)
		if err != nil {
			return err
		}

		serverOpts := []httpadapter.Option{
			httpadapter.WithStreams(streams),
			httpadapter.WithVersion(colloquy.Version),
			httpadapter.WithLogger(logger),
		}
		if async {
			d := dispatch.New(func(ctx context.Context, ev domain.Event) error {
				_, err := bot.HandleEvent(ctx, ev)
				return err
			}, dispatch.WithWorkers(cfg.Dispatch.Workers), dispatch.WithLogger(logger))
			defer d.Close()
			serverOpts = append(serverOpts, httpadapter.WithQueue(d))
		}

		router := chi.NewRouter()
		router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		router.Mount("/", httpadapter.NewServer(bot, serverOpts...).Routes())

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server", "addr", srv.Addr, "vocabulary", cfg.Vocabulary, "async", async)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("HTTP server stopped")
			return nil
		}
	},
}

// newMetricsRegistry creates a registry with the bot metrics and the Go runtime collectors.
func newMetricsRegistry() (*prometheus.Registry, *observability.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics()
	metrics.MustRegister(reg)
	return reg, metrics
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("http-addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("async", false, "Queue events and deliver replies only over SSE")
}
