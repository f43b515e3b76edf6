package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewServeCommand runs the API until SIGINT or SIGTERM.
func NewServeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, opts, cmd.OutOrStdout())
}
