// Package cli implements the roomscout command line tool.
package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure. Ctrl-C
// cancels a running search.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the roomscout command tree
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "roomscout",
		Short:        "Find retail listings for furniture detected in room photos",
		SilenceUsage: true,
	}

	cmd.AddCommand(searchCmd())
	cmd.AddCommand(classifyCmd())
	cmd.AddCommand(storesCmd())
	return cmd
}
