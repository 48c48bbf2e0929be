package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ChairReports/internal/usecase"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Out string
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <item-id>",
		Short: "Write an item's lifetime roster to a local xlsx file",
		Long: `Build the same workbook a chair would receive, covering every order for
the item, and write it to disk without sending mail.

Example:
  chairreports preview gala --out gala.xlsx`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			data, rows, err := application.Preview(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "preview failed", err)
			}

			out := opts.Out
			if out == "" {
				out = usecase.Filename(args[0], time.Now())
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return WrapExitError(ExitCommandError, "write workbook", err)
			}

			result := map[string]any{"item": args[0], "rows": rows, "file": out}
			p := printer{format: opts.Format, w: cmd.OutOrStdout()}
			return p.print(result, func(w io.Writer) {
				fmt.Fprintf(w, "wrote %d row(s) to %s\n", rows, out)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output path (default <item-slug>_<date>.xlsx)")

	return cmd
}
