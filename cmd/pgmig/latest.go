package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.kirha.ai/pgmig"
)

func newLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recently applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			migrator, err := pgmig.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to create migrator: %w", err)
			}
			defer func() {
				_ = migrator.Close(cmd.Context())
			}()

			latest, err := migrator.Latest(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get latest migration: %w", err)
			}

			if latest == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied yet")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Latest migration: %s (number %d, applied %s)\n",
					latest.Filename,
					latest.Number,
					latest.Completed.Format("2006-01-02 15:04:05"),
				)
			}

			return nil
		},
	}
}
