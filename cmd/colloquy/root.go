package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/colloquy/internal/config"
	"github.com/aretw0/colloquy/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "colloquy",
	Short: "Colloquy runs scripted chatbots described by a YAML vocabulary",
	Long: `Colloquy drives conversations through a graph of nodes declared in a YAML
vocabulary. Users move between nodes by pressing buttons, typing keywords or
sharing content. The same bot can be served over Telegram, HTTP or the console.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		opts := []config.Option{config.WithFlags(cmd.Flags())}
		if configFile != "" {
			opts = append(opts, config.WithConfigFile(configFile))
		}

		var err error
		cfg, err = config.Load(opts...)
		if err != nil {
			return err
		}
		logger = logging.New(logging.ParseLevel(cfg.Log.Level), logging.Format(cfg.Log.Format))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands). Names match config keys
	// with dots turned into dashes, so config.WithFlags picks them up.
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, toml or json)")
	flags.String("vocabulary", "voc.yaml", "Vocabulary YAML file")
	flags.String("store-driver", "", "Session store: memory, redis, postgres or sqlite3 (default: detect)")
	flags.String("store-dsn", "", "SQL data source name")
	flags.String("redis-addr", "", "Redis address (host:port)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("morph-language", "russian", "Stemmer language for word matching")
}
