package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/persistence/middleware"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversations",
	Long:  `List, inspect, and remove conversations in the configured session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		ids, err := b.store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No stored conversations found.")
			return nil
		}
		fmt.Fprintln(out, "Conversations:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <conversation-id>",
	Short: "Show the node and complete tag mapping of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		bot, err := newBot(cfg, b)
		if err != nil {
			return err
		}
		s, err := bot.Session(cmd.Context(), id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("conversation '%s' not found", id)
		}
		if err != nil {
			return fmt.Errorf("error loading conversation '%s': %w", id, err)
		}
		if s.Tags, err = bot.Tags(cmd.Context(), id); err != nil {
			return err
		}

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <conversation-id>...",
	Short: "Remove one or more conversations",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = b.store.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		}

		var errs []error
		out := cmd.OutOrStdout()
		for _, id := range args {
			if err := b.store.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(out, "Removed conversation '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

var sessionLogCmd = &cobra.Command{
	Use:   "log <conversation-id>",
	Short: "Print the message log of a conversation",
	Long:  `Print the inbound messages of a conversation, decrypting them when an audit key is configured. Needs a SQL or Redis store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if b.history == nil {
			return fmt.Errorf("store driver %q keeps no readable message log", cfg.StoreDriver())
		}
		records, err := b.history.Messages(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No messages found.")
			return nil
		}
		for _, rec := range records {
			if b.keys.ActiveKey != nil {
				if rec, err = middleware.Decrypt(b.keys, rec); err != nil {
					return err
				}
			}
			line := fmt.Sprintf("%s [%s]", rec.ReceivedAt.Format(time.RFC3339), rec.Kind)
			switch {
			case rec.Choice != nil:
				line += fmt.Sprintf(" choice=%d", *rec.Choice)
			case rec.Location != nil:
				line += fmt.Sprintf(" location=%g,%g", rec.Location.Latitude, rec.Location.Longitude)
			}
			if rec.Text != "" {
				line += " " + rec.Text
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionLogCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored conversation")
}
