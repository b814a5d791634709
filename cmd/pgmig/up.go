package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.kirha.ai/pgmig"
)

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			if err := pgmig.Run(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "All migrations applied successfully")
			return nil
		},
	}
}
