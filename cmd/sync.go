package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSyncCmd creates the 'sync' subcommand: ask the backend to refresh
// analytics for every connected account, typically ahead of a run.
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Requests an analytics refresh for every connected account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Logger().Sync() }()

			if err := a.Sync(cmd.Context()); err != nil {
				return fmt.Errorf("analytics sync: %w", err)
			}
			return nil
		},
	}
}
