package main

import (
	"fmt"

	"github.com/aretw0/colloquy/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [vocabulary]",
	Short: "Export the vocabulary as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the vocabulary. With --session
the node the conversation is at is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("vocabulary") {
			cfg.Vocabulary = args[0]
		}
		sessionID, _ := cmd.Flags().GetString("session")

		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		bot, err := newBot(cfg, b)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			s, err := bot.Session(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session %q: %w", sessionID, err)
			}
			tags, err := bot.Tags(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			overlay = &graph.GraphOverlay{CurrentNode: s.CurrentNode, Tags: tags}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(bot.Vocabulary(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the node this conversation is at")
}
