package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ringkv/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern) for directories
	Trace  bool   // print the trace of every scenario

	// RunIDs overrides the run ID generator (for testing).
	// If nil, harness defaults to UUIDv7.
	RunIDs harness.RunIDGenerator
}

// ScenarioReport holds the result of a single scenario execution.
type ScenarioReport struct {
	Name   string   `json:"name"`
	RunID  string   `json:"run_id,omitempty"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
	Trace  []string `json:"trace,omitempty"`
}

// RunReport holds the overall result.
type RunReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|dir>...",
		Short: "Run workload scenarios",
		Long: `Run YAML workload scenarios against a fresh store each.

Directories are searched recursively for .yaml and .yml files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing paths, bad config)

Examples:
  ringkv run ./scenarios/row_lifecycle.yaml
  ringkv run ./scenarios --filter "index_*" --trace
  ringkv run ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print scenario traces")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	report := RunReport{
		Scenarios: make([]ScenarioReport, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(opts, file)
		report.Scenarios = append(report.Scenarios, sr)
		if sr.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	out := newFormatter(opts.RootOptions, cmd)
	if err := out.Success(report, func(w io.Writer) { writeRunText(w, report, opts.Trace) }); err != nil {
		return err
	}
	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", report.Failed, report.Total))
	}
	return nil
}

// findScenarioFiles returns path itself for a file, or every YAML file
// under a directory whose base name matches filter.
func findScenarioFiles(path string, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenario loads and runs one scenario file. Load and execution
// errors are reported as a failed scenario.
func runScenario(opts *RunOptions, file string) ScenarioReport {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioReport{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.Run(scenario, opts.harnessOptions(opts.RunIDs)...)
	if err != nil {
		return ScenarioReport{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioReport{
		Name:   scenario.Name,
		RunID:  result.RunID,
		Pass:   result.Pass,
		Errors: result.Errors,
	}
	if opts.Trace {
		sr.Trace = result.Trace
	}
	return sr
}

// harnessOptions maps the resolved configuration onto harness options.
func (opts *RootOptions) harnessOptions(runIDs harness.RunIDGenerator) []harness.Option {
	hopts := []harness.Option{
		harness.WithLogger(opts.logger()),
		harness.WithStepLimit(opts.stepLimit()),
	}
	if runIDs != nil {
		hopts = append(hopts, harness.WithRunIDGenerator(runIDs))
	}
	return hopts
}

func writeRunText(w io.Writer, report RunReport, trace bool) {
	if report.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, sr := range report.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, sr.Name)
		for _, e := range sr.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		if trace {
			for _, line := range sr.Trace {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
}
