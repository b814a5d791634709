package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pgmig",
		Short:         "PostgreSQL schema migration tool",
		Long:          "pgmig applies plain SQL migration files to a PostgreSQL database in a single locked transaction",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(newUpCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLatestCmd())

	return cmd
}
