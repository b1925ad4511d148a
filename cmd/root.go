// Package cmd defines the CLI commands for the creator-analytics executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/app"
	"github.com/urbsocial/creator-analytics/internal/config"
	"github.com/urbsocial/creator-analytics/internal/logging"
)

var cfgFile string

// newRootCmd wires the shared flags and the app factory subcommands use.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creator-analytics",
		Short: "Extracts social media analytics from MyCreator into Google Sheets",
		Long: `creator-analytics pulls published content, per-post analytics and
account summaries from the MyCreator backend API across configured
workspaces, derives hashtag, ranking and city-level views, and uploads
the resulting tables to a Google Sheets report.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml in the working directory)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSyncCmd())
	return cmd
}

// buildApp loads configuration and wires the application for a subcommand.
func buildApp(cmd *cobra.Command) (*app.App, config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("initialize application services: %w", err)
	}
	return a, cfg, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
