package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rl1809/serial-registry/internal/app"
	"github.com/rl1809/serial-registry/internal/platform/config"
	"github.com/rl1809/serial-registry/internal/platform/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the serialctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "serialctl",
		Short: "Issue, verify and report on product serial numbers",
		Long: `serialctl talks directly to the configured record store.

It generates serial number batches, verifies serials, prints issuance
statistics and exports batches as CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))

	return cmd
}

func openApp(ctx context.Context, opts *RootOptions) (*app.App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	log := logger.NewNop()
	if opts.Verbose {
		if log, err = logger.New(cfg.Logging.Mode); err != nil {
			return nil, WrapExitError(ExitCommandError, "init logger", err)
		}
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return a, nil
}
