package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ringkv/internal/export"
	"github.com/roach88/ringkv/internal/harness"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Database string

	// RunIDs overrides the run ID generator (for testing).
	RunIDs harness.RunIDGenerator
}

// DumpReport lists the exported tables and their row counts.
type DumpReport struct {
	Scenario string         `json:"scenario"`
	Database string         `json:"database"`
	Pass     bool           `json:"pass"`
	Tables   map[string]int `json:"tables"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <scenario.yaml>",
		Short: "Run a scenario and export its final tables to SQLite",
		Long: `Run a scenario and write the final contents of every table to a
SQLite database. Each table is replaced on every dump; the file is an
inspection artefact and is never read back.

Example:
  ringkv dump ./scenarios/index_walk.yaml --db ./out.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDump(opts *DumpOptions, file string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		_ = out.Error(CodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	result, err := harness.Run(scenario, opts.harnessOptions(opts.RunIDs)...)
	if err != nil {
		_ = out.Error(CodeRun, err.Error(), nil)
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	ex, err := export.Open(opts.Database)
	if err != nil {
		_ = out.Error(CodeExport, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := ex.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	report := DumpReport{
		Scenario: scenario.Name,
		Database: opts.Database,
		Pass:     result.Pass,
		Tables:   make(map[string]int, len(result.Tables)),
	}
	names := make([]string, 0, len(result.Tables))
	for name := range result.Tables {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		rows := result.Tables[name]
		if err := ex.WriteTable(ctx, name, result.Schemas[name], rows); err != nil {
			_ = out.Error(CodeExport, err.Error(), nil)
			return WrapExitError(ExitFailure, "export failed", err)
		}
		report.Tables[name] = len(rows)
		logger.Debug("table exported", "table", name, "rows", len(rows))
	}

	err = out.SuccessWithRun(result.RunID, report, func(w io.Writer) {
		for _, name := range names {
			fmt.Fprintf(w, "%s: %d rows\n", name, report.Tables[name])
		}
		fmt.Fprintf(w, "Exported %d tables to %s\n", len(names), opts.Database)
	})
	if err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed: %d errors", scenario.Name, len(result.Errors)))
	}
	return nil
}
