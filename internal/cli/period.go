package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ChairReports/internal/domain"
	"ChairReports/internal/period"
)

// PeriodOptions holds flags for the period command.
type PeriodOptions struct {
	*RootOptions
	Frequency string
	At        string
	Since     string
}

type periodView struct {
	Frequency domain.Frequency `json:"frequency"`
	ID        string           `json:"id,omitempty"`
	Start     *time.Time       `json:"start,omitempty"`
	End       *time.Time       `json:"end,omitempty"`
}

// NewPeriodCommand creates the period command.
func NewPeriodCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PeriodOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "period",
		Short: "Show the period id and window for a frequency",
		Long: `Compute the period identifier and window the engine would use.

--since moves the window start to a prior window end; the id stays calendar aligned.

Example:
  chairreports period --frequency weekly --at 2025-01-01
  chairreports period --frequency monthly --since 2025-03-10T00:00:00Z`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseInstant(opts.At, time.Now())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --at", err)
			}

			freq := domain.NormalizeFrequency(opts.Frequency)
			var (
				p  domain.Period
				ok bool
			)
			if opts.Since != "" {
				since, err := parseInstant(opts.Since, at)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --since", err)
				}
				p, ok = period.ComputeSince(freq, at, since)
			} else {
				p, ok = period.Compute(freq, at)
			}

			view := periodView{Frequency: freq}
			if ok {
				start, end := p.Window.Start, p.Window.End
				view.ID, view.Start, view.End = p.ID, &start, &end
			}

			pr := printer{format: opts.Format, w: cmd.OutOrStdout()}
			return pr.print(view, func(w io.Writer) {
				if !ok {
					fmt.Fprintf(w, "%s: no period\n", freq)
					return
				}
				fmt.Fprintf(w, "%s %s [%s, %s)\n", freq, view.ID,
					view.Start.Format(time.RFC3339), view.End.Format(time.RFC3339))
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Frequency, "frequency", "f", "monthly", "none|daily|weekly|biweekly|monthly")
	cmd.Flags().StringVar(&opts.At, "at", "", "reference instant (default now)")
	cmd.Flags().StringVar(&opts.Since, "since", "", "prior window end")

	return cmd
}
