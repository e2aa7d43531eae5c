package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/pkg/adapters/telegram"
	"github.com/aretw0/colloquy/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the bot on Telegram by long polling",
	Long: `Connects to the Telegram Bot API with the configured token (TOKEN or
COLLOQUY_TELEGRAM_TOKEN) and answers every chat the bot is in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Telegram.Token == "" {
			return errors.New("telegram token is not set (TOKEN or COLLOQUY_TELEGRAM_TOKEN)")
		}
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		api, err := telegram.Connect(cfg.Telegram.Token)
		if err != nil {
			return err
		}
		logger.Info("Authorized on telegram", "account", api.Self.UserName)

		reg, metrics := newMetricsRegistry()
		bot, err := newBot(cfg, b,
			colloquy.WithSender(telegram.NewSender(api)),
			colloquy.WithLifecycleHooks(metrics.Hooks()),
			colloquy.WithLifecycleHooks(observability.LoggingHooks(logger)),
		)
		if err != nil {
			return err
		}

		if metricsAddr != "" {
			srv := &http.Server{
				Addr:              metricsAddr,
				Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				logger.Info("Starting metrics server", "addr", metricsAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server failed", "err", err)
				}
			}()
			defer srv.Close()
		}

		adapter := telegram.NewAdapter(api, bot,
			telegram.WithPollTimeout(cfg.Telegram.Timeout),
			telegram.WithWorkers(cfg.Dispatch.Workers),
			telegram.WithLogger(logger),
		)
		return adapter.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	telegramCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :2112)")
}
