package main

import (
	"os"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat [vocabulary]",
	Short: "Talk to the bot in the terminal",
	Long: `Starts a conversation on stdin/stdout. Type a number to press a button,
"/location LAT LON" to share a location and "quit" to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("vocabulary") {
			cfg.Vocabulary = args[0]
		}
		headless, _ := cmd.Flags().GetBool("headless")
		conversation, _ := cmd.Flags().GetString("conversation")
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			headless = true
		}

		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		bot, err := newBot(cfg, b)
		if err != nil {
			return err
		}

		r := colloquy.NewRunner()
		r.Input = os.Stdin
		r.Output = os.Stdout
		r.Headless = headless
		if conversation != "" {
			r.ConversationID = conversation
		}
		if !headless {
			tui.PrintBanner(os.Stdout)
			r.Renderer = tui.NewRenderer()
		}
		return r.Run(cmd.Context(), bot)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("headless", false, "Plain output without banner or markdown rendering")
	chatCmd.Flags().String("conversation", "console", "Conversation ID to use")

	// Make 'chat' the default if no command is provided.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
