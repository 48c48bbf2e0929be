package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine on the configured cron schedule",
		Long: `Run the scheduling engine on scheduler.cronExpression until interrupted.

Example:
  chairreports serve --config /etc/chair-reports.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, logger, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := application.Close(); closeErr != nil {
					logger.Error("error closing application", "error", closeErr)
				}
			}()

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Serve(ctx); err != nil {
				return WrapExitError(ExitCommandError, "scheduler stopped", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}
