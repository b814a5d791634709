package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.kirha.ai/pgmig"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
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

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
}

func printStatus(w io.Writer, statuses []pgmig.MigrationStatus) {
	fmt.Fprintln(w, "Migration Status:")
	fmt.Fprintln(w, "Number | Filename                       | Applied | Applied At          | Duration | Note")
	fmt.Fprintln(w, "-------|--------------------------------|---------|---------------------|----------|---------")

	for _, status := range statuses {
		number := "-"
		applied := "No"
		appliedAt := "-"
		duration := "-"
		note := ""

		if status.Applied {
			number = fmt.Sprint(status.Number)
			applied = "Yes"
			duration = status.Duration.String()
			if status.CompletedAt != nil {
				appliedAt = status.CompletedAt.Format("2006-01-02 15:04:05")
			}
		}

		switch {
		case status.Missing:
			note = "missing"
		case !status.HashMatches:
			note = "modified"
		}

		fmt.Fprintf(w, "%-6s | %-30s | %-7s | %-19s | %-8s | %s\n",
			number,
			status.Filename,
			applied,
			appliedAt,
			duration,
			note,
		)
	}
}
