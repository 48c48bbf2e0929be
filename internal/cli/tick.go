package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// TickOptions holds flags for the tick command.
type TickOptions struct {
	*RootOptions
	At string
}

// NewTickCommand creates the tick command.
func NewTickCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TickOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run the scheduling engine once",
		Long: `Evaluate every configured item once and send the reports that are due.

Exits with status 1 when any item failed.

Example:
  chairreports tick
  chairreports tick --at 2025-03-05T09:00:00Z --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseInstant(opts.At, time.Now())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --at", err)
			}

			application, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			run, err := application.Tick(cmd.Context(), now)
			if err != nil {
				return WrapExitError(ExitCommandError, "report run aborted", err)
			}

			p := printer{format: opts.Format, w: cmd.OutOrStdout()}
			if err := p.print(run, func(w io.Writer) { writeRun(w, run) }); err != nil {
				return err
			}
			if run.Errors > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d report(s) failed", run.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "evaluate as of this RFC3339 instant (default now)")

	return cmd
}

func parseInstant(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback.UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as RFC3339 or YYYY-MM-DD", raw)
}
