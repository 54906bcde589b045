// Package schemafile loads table declarations written in CUE.
//
// A schema source declares tables under the top-level "tables" field:
//
//	tables: Users: {
//		columns: {name: "string", age: "int"}
//		indices: {by_name: ["name"]}
//	}
//
// Every table is unified with the #Table definition, so misspelled
// fields and unknown column types are rejected with position info.
package schemafile

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ringkv/internal/kv"
)

// tableDef constrains what a table declaration may contain.
const tableDef = `
#Kind: "int" | "integer" | "string" | "text" | "double" | "float" | "guid"

#Table: {
	columns: [string]: #Kind
	indices?: [string]: [string, ...string]
}

tables: [string]: #Table
`

// TableSpec is one declared table, ready for Storage.CreateTable.
type TableSpec struct {
	Name    string
	Columns kv.Columns
	Indices kv.Indices
}

// LoadError is a schema error, with the CUE position when one is known.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile parses src and returns its tables sorted by name.
// filename is used only for error positions.
func Compile(src, filename string) ([]TableSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return extract(ctx, v)
}

// LoadFile compiles a single CUE file.
func LoadFile(path string) ([]TableSpec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Compile(string(src), path)
}

// LoadDir loads the CUE package in dir. All its files are unified before
// tables are extracted, so one table may be spread over several files.
func LoadDir(dir string) ([]TableSpec, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Field: "load", Message: "no CUE instances loaded from " + dir}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files in %s: %w", dir, inst.Err)
	}

	ctx := cuecontext.New()
	return extract(ctx, ctx.BuildInstance(inst))
}

// Load dispatches on whether path is a directory.
func Load(path string) ([]TableSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema path: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

func extract(ctx *cue.Context, v cue.Value) ([]TableSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// Validate the unified value but read from v, so positions point
	// into the user's files.
	def := ctx.CompileString(tableDef, cue.Filename("schema.cue"))
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &LoadError{Field: "tables", Message: "no tables declared", Pos: v.Pos()}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var specs []TableSpec
	for iter.Next() {
		spec, err := compileTable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, &LoadError{Field: "tables", Message: "no tables declared", Pos: tablesVal.Pos()}
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

func compileTable(name string, v cue.Value) (TableSpec, error) {
	spec := TableSpec{Name: name, Columns: make(kv.Columns)}

	colIter, err := v.LookupPath(cue.ParsePath("columns")).Fields()
	if err != nil {
		return spec, formatCUEError(err)
	}
	for colIter.Next() {
		col := colIter.Label()
		if col == kv.GUIDColumn {
			return spec, &LoadError{
				Field:   "tables." + name + ".columns",
				Message: "GUID is implicit and cannot be declared",
				Pos:     colIter.Value().Pos(),
			}
		}
		typ, err := colIter.Value().String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		kind, err := kv.ParseKind(typ)
		if err != nil {
			return spec, &LoadError{Field: "tables." + name + ".columns." + col, Message: err.Error(), Pos: colIter.Value().Pos()}
		}
		spec.Columns[col] = kind.Zero()
	}

	indicesVal := v.LookupPath(cue.ParsePath("indices"))
	if !indicesVal.Exists() {
		return spec, nil
	}
	ixIter, err := indicesVal.Fields()
	if err != nil {
		return spec, formatCUEError(err)
	}
	for ixIter.Next() {
		ix := kv.Index{Name: ixIter.Label()}
		if err := ixIter.Value().Decode(&ix.Columns); err != nil {
			return spec, formatCUEError(err)
		}
		for _, col := range ix.Columns {
			if _, ok := spec.Columns[col]; !ok && col != kv.GUIDColumn {
				return spec, &LoadError{
					Field:   "tables." + name + ".indices." + ix.Name,
					Message: fmt.Sprintf("unknown column %q", col),
					Pos:     ixIter.Value().Pos(),
				}
			}
		}
		spec.Indices = append(spec.Indices, ix)
	}
	sort.Slice(spec.Indices, func(i, j int) bool { return spec.Indices[i].Name < spec.Indices[j].Name })

	return spec, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Field: "cue", Message: first.Error()}
}
