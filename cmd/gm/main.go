// Package main provides the gm CLI for indexing campaign material and
// answering questions over it.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/gm-assistant/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gm",
	Short: "Game master assistant over campaign notes and rulebooks",
	Long: `Indexes a markdown campaign vault and PDF rulebooks into Qdrant and
answers questions grounded in the indexed material.

Environment variables (all optional unless noted):
  GM_VAULT_PATH        Campaign notes directory (default: ./vault)
  GM_RULEBOOK_PATH     Rulebook PDF directory (default: ./rulebooks)
  GM_STATE_PATH        Fingerprint database path (default: ./gm-state.db)
  GM_QDRANT_HOST       Qdrant hostname (default: localhost)
  GM_QDRANT_PORT       Qdrant gRPC port (default: 6334)
  GM_OPENAI_API_KEY    OpenAI API key for embeddings (required)
  GM_ANTHROPIC_API_KEY Anthropic API key for answers (required for ask)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		level := slog.LevelWarn
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(clearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
