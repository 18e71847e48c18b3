// Package cli defines the llmreader command tree.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mrlokans/llmreader/internal/config"
	"github.com/mrlokans/llmreader/internal/logger"
)

// NewRootCmd builds the llmreader command. Running it without a subcommand
// starts the server.
func NewRootCmd(version string) *cobra.Command {
	serve := newServeCmd(version)

	cmd := &cobra.Command{
		Use:   "llmreader",
		Short: "Self-hosted EPUB and PDF reader with tags, highlights and Markdown export",
		Long: `llmreader converts uploaded EPUB and PDF files into a browsable chapter
library and serves a reading UI with per-book tags and highlights.

Configuration is read from the environment and an optional .env file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(newTagAllCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newSeedDemoCmd())

	return cmd
}

// loadConfig reads configuration and installs the logger for one-shot commands.
func loadConfig() *config.Config {
	cfg := config.NewConfig()
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg
}
