package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/archmap/internal/summarize"
)

func newSummarizeCmd(o *options) *cobra.Command {
	var (
		provider string
		model    string
		endpoint string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Ask an LLM provider to explain the architectural pattern of a Python file",
		Long: `Send a Python file to the configured provider (openai, anthropic, gemini or
ollama) and print a short description of its architectural pattern.

Failures never abort: a missing API key or provider error is printed in
place of the summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			cfg := o.cfg.Summary
			if cmd.Flags().Changed("provider") {
				cfg.Provider = provider
			}
			if cmd.Flags().Changed("model") {
				cfg.Model = model
			}
			if cmd.Flags().Changed("endpoint") {
				cfg.Endpoint = endpoint
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}

			o.logger.Info("requesting summary", "provider", cfg.Provider, "model", cfg.Model)
			text := summarize.Summarize(cmd.Context(), summarize.ArchitecturePrompt(string(source)), cfg)
			_, err = fmt.Fprintln(o.stdout, text)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&provider, "provider", "", "provider: openai, anthropic, gemini or ollama")
	f.StringVar(&model, "model", "", "model name")
	f.StringVar(&endpoint, "endpoint", "", "base URL of a local provider")
	f.DurationVar(&timeout, "timeout", 0, "request timeout (0 means none)")
	return cmd
}
