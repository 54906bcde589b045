package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ringkv/internal/schemafile"
)

// TableReport describes one declared table.
type TableReport struct {
	Name    string              `json:"name"`
	Columns map[string]string   `json:"columns"`
	Indices map[string][]string `json:"indices,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <file.cue|dir>",
		Short: "Validate and print CUE table schemas",
		Long: `Load table declarations from a CUE file or package directory,
validate them and print the resulting tables.

Example:
  ringkv schema ./schema
  ringkv schema ./schema/people.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSchema(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "schema path not found", err)
	}
	tables, err := schemafile.Load(path)
	if err != nil {
		_ = out.Error(CodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid schema", err)
	}
	opts.logger().Debug("schema loaded", "path", path, "tables", len(tables))

	reports := make([]TableReport, 0, len(tables))
	for _, t := range tables {
		reports = append(reports, tableReport(t))
	}
	return out.Success(reports, func(w io.Writer) { writeSchemaText(w, reports) })
}

func tableReport(t schemafile.TableSpec) TableReport {
	r := TableReport{Name: t.Name, Columns: make(map[string]string, len(t.Columns))}
	for name, v := range t.Columns {
		r.Columns[name] = v.Kind().String()
	}
	if len(t.Indices) > 0 {
		r.Indices = make(map[string][]string, len(t.Indices))
		for _, ix := range t.Indices {
			r.Indices[ix.Name] = ix.Columns
		}
	}
	return r
}

func writeSchemaText(w io.Writer, tables []TableReport) {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, t.Name)
		names := make([]string, 0, len(t.Columns))
		for name := range t.Columns {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s %s\n", name, t.Columns[name])
		}
		ixNames := make([]string, 0, len(t.Indices))
		for name := range t.Indices {
			ixNames = append(ixNames, name)
		}
		slices.Sort(ixNames)
		for _, name := range ixNames {
			fmt.Fprintf(w, "  index %s (%s)\n", name, strings.Join(t.Indices[name], ", "))
		}
	}
}
