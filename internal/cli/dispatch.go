package cli

import (
	"io"

	"github.com/spf13/cobra"

	"ChairReports/internal/state"
)

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <order-id>",
		Short: "Send real-time reports for a completed order",
		Long: `Send one lifetime report per catalog item in the order, unless the order
already carries a dispatch marker. Safe to call on every webhook redelivery.

Example:
  chairreports dispatch 7f3c9a`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			res, err := application.Dispatch(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "dispatch failed", err)
			}

			p := printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			if err := p.print(res, func(w io.Writer) { writeDispatch(w, res) }); err != nil {
				return err
			}
			if res.Marker == state.MarkerFailed || res.Marker == state.MarkerPartial {
				return NewExitError(ExitFailure, "some real-time reports failed")
			}
			return nil
		},
	}
}
