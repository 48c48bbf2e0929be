package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"ChairReports/internal/app"
	"ChairReports/internal/config"
	"ChairReports/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	// NewApp builds the application; tests replace it.
	NewApp func(cfg config.Config, logger *slog.Logger) (*app.Application, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the chair-reports CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{
		NewApp: func(cfg config.Config, logger *slog.Logger) (*app.Application, error) {
			return app.New(cfg, logger)
		},
	})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chairreports",
		Short: "Chair report scheduling and delivery",
		Long:  "Builds roster spreadsheets for catalog items and emails them to item chairs on a schedule or when an order completes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (defaults to $CHAIR_REPORTS_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTickCommand(opts))
	cmd.AddCommand(NewDispatchCommand(opts))
	cmd.AddCommand(NewPeriodCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewLastMailCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() config.Config {
	if o.ConfigPath != "" {
		return config.LoadFrom(o.ConfigPath)
	}
	return config.Load()
}

func (o *RootOptions) openApp() (*app.Application, *slog.Logger, error) {
	cfg := o.loadConfig()
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}
	logger := logging.NewWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	application, err := o.NewApp(cfg, logger)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to initialize", err)
	}
	return application, logger, nil
}
