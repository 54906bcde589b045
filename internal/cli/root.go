package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ringkv/internal/config"
)

// RootOptions holds global flags for all commands and the configuration
// resolved from them before a subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	StepLimit  int

	// Config is resolved in PersistentPreRunE: defaults, then the
	// --config file, then flags that were set explicitly.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ringkv CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "ringkv",
		Short: "ringkv - versioned multi-key-value store",
		Long: `Drive an in-process ringkv store from scripted scenarios.

Scenarios are YAML files of storage operations (create_table, put, get,
modify, watch, ...) run against a fresh store. Table schemas may be
declared in CUE and final table contents exported to SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", defaults.OutputFormat, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().IntVar(&opts.StepLimit, "step-limit", defaults.StepLimit, "maximum dispatcher tasks per drain")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))

	return cmd
}

// resolve builds opts.Config and opts.Logger. Flags only override the
// config file when set on the command line.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadFile(cfg, opts.ConfigPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.OutputFormat = opts.Format
	}
	if flags.Changed("step-limit") {
		cfg.StepLimit = opts.StepLimit
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if !isValidFormat(cfg.OutputFormat) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.OutputFormat, ValidFormats))
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	opts.Config = cfg
	opts.Format = cfg.OutputFormat
	opts.Logger = cfg.Logger(cmd.ErrOrStderr()).With("cmd", cmd.Name())
	return nil
}

// logger returns the resolved logger, or slog.Default when a subcommand
// is executed without the root (as in tests).
func (opts *RootOptions) logger() *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.Default()
}

// stepLimit returns the resolved step limit, falling back to the flag.
func (opts *RootOptions) stepLimit() int {
	if opts.Config.StepLimit > 0 {
		return opts.Config.StepLimit
	}
	if opts.StepLimit > 0 {
		return opts.StepLimit
	}
	return config.Default().StepLimit
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
