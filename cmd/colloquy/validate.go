package main

import (
	"fmt"

	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/internal/vocab"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [vocabulary]",
	Short: "Check the vocabulary for consistency",
	Long: `Reports broken gotos, nodes without prompts or misunderstood phrases,
bad conditions and nodes unreachable from the default node.
Exits with an error when any problem is not a mere warning.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Vocabulary
		if len(args) > 0 {
			path = args[0]
		}
		strict, _ := cmd.Flags().GetBool("strict")

		opts := []vocab.Option{}
		if strict {
			opts = append(opts, vocab.WithStrict())
		}
		v, err := vocab.Load(path, opts...)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		report := vocab.Validate(v, runtime.NewRegistry().Types())
		out := cmd.OutOrStdout()
		for _, issue := range report.Issues {
			fmt.Fprintf(out, "%s: %s\n", issue.Severity, issue)
		}
		if err := report.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Vocabulary is valid! ✅ (%d nodes, %d warnings)\n", len(v.Nodes), len(report.Warnings()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Reject unknown keys in nodes and answers")
}
