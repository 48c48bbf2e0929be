package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewLastMailCommand creates the last-mail command.
func NewLastMailCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "last-mail",
		Short:         "Show the most recent outbound mail audit entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			entry, found, err := application.LastMail(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "read mail audit", err)
			}
			if !found {
				return NewExitError(ExitFailure, "no mail recorded in the last hour")
			}

			p := printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.print(entry, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s %s -> %v %q", entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Kind, entry.Status, entry.To, entry.Subject)
				if entry.Error != "" {
					fmt.Fprintf(w, " error=%s", entry.Error)
				}
				fmt.Fprintln(w)
			})
		},
	}
}
