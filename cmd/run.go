package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbsocial/creator-analytics/internal/pipeline"
)

// newRunCmd creates the 'run' subcommand: one full extraction run, then exit.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes one extraction run and exits",
		Long: `Authenticates against MyCreator, extracts posts and profiles from
every configured workspace, derives the report views and uploads them
to the configured spreadsheet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			logger := a.Logger()
			defer func() { _ = logger.Sync() }()

			summary, err := a.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("extraction run: %w", err)
			}
			if summary.Status == pipeline.RunStatusPartial {
				logger.Warn("run finished with upload failures",
					zap.String("run_id", summary.RunID),
					zap.Int("posts", summary.Posts),
				)
				return fmt.Errorf("run %s finished partially", summary.RunID)
			}
			return nil
		},
	}
}
