package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/ringkv/internal/engine"
	"github.com/roach88/ringkv/internal/kv"
	"github.com/roach88/ringkv/internal/schemafile"
	"github.com/roach88/ringkv/internal/storage"
	"github.com/roach88/ringkv/internal/testutil"
)

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger    *slog.Logger
	runIDs    RunIDGenerator
	stepLimit int
}

// WithLogger sets the logger for the run, the dispatcher and the storage.
// Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithRunIDGenerator replaces the UUIDv7 run ID generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *runConfig) {
		c.runIDs = g
	}
}

// WithStepLimit sets the dispatcher's per-drain task limit.
func WithStepLimit(limit int) Option {
	return func(c *runConfig) {
		c.stepLimit = limit
	}
}

// Harness executes one scenario against a fresh Storage.
//
// Every step is issued from the calling goroutine and the dispatcher
// is drained before the next step, so callbacks and trigger firings of
// a step are traced under it. Primary GUIDs are sequential.
type Harness struct {
	d      *engine.Dispatcher
	store  *storage.Storage
	guids  *testutil.SequentialGUIDs
	logger *slog.Logger
	result *Result

	columns  map[string]kv.Columns
	cursors  map[string]kv.Context
	triggers map[string]kv.TriggerID
	saved    map[string]kv.GUID
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create tables declared by the scenario's schema files
// 2. Execute steps, draining the dispatcher after each
// 3. Collect the final contents of every table
// 4. Evaluate assertions
//
// Expectation and assertion failures are reported in the result. An
// error means the scenario could not be executed.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs:    UUIDv7Generator{},
		stepLimit: engine.DefaultStepLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	result := NewResult()
	result.RunID = cfg.runIDs.Generate()
	logger := cfg.logger.With("run_id", result.RunID, "scenario", scenario.Name)

	d := engine.New(engine.WithLogger(logger), engine.WithStepLimit(cfg.stepLimit))
	guids := testutil.NewSequentialGUIDs()
	h := &Harness{
		d:        d,
		store:    storage.New(d, storage.WithLogger(logger), storage.WithGUIDSource(guids.Next)),
		guids:    guids,
		logger:   logger,
		result:   result,
		columns:  make(map[string]kv.Columns),
		cursors:  make(map[string]kv.Context),
		triggers: make(map[string]kv.TriggerID),
		saved:    make(map[string]kv.GUID),
	}

	logger.Info("scenario started", "steps", len(scenario.Steps))

	if err := h.createSchema(scenario.Schema); err != nil {
		return nil, fmt.Errorf("failed to create schema tables: %w", err)
	}

	for i, step := range scenario.Steps {
		n := i + 1
		if err := h.execute(n, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		if err := h.drain(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		logger.Debug("step completed", "step", n, "op", step.Op, "tasks", d.Steps())
	}

	if err := h.collectTables(); err != nil {
		return nil, fmt.Errorf("failed to collect final state: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.saved) {
		result.AddError(msg)
	}

	logger.Info("scenario finished",
		"pass", result.Pass,
		"errors", len(result.Errors),
		"guids_issued", h.guids.Issued(),
	)
	return result, nil
}

func (h *Harness) drain() error {
	_, err := h.d.Drain()
	return err
}

func (h *Harness) line(format string, args ...any) {
	h.result.addLine(fmt.Sprintf(format, args...))
}

func (h *Harness) outcome(format string, args ...any) {
	h.result.addLine("  => " + fmt.Sprintf(format, args...))
}

// createSchema creates the tables of every schema file before step 1.
func (h *Harness) createSchema(paths []string) error {
	for _, path := range paths {
		specs, err := schemafile.Load(path)
		if err != nil {
			return err
		}
		for _, spec := range specs {
			h.line("[schema] create_table %s", spec.Name)
			h.columns[spec.Name] = spec.Columns

			var res kv.Result
			h.store.CreateTable(spec.Name, spec.Columns, spec.Indices, func(r kv.Result) {
				res = r
				h.outcome("%s", r.Error())
			})
			if err := h.drain(); err != nil {
				return err
			}
			if !res.IsSuccess() {
				return fmt.Errorf("table %s: %w", spec.Name, res)
			}
		}
	}
	return nil
}

func (h *Harness) cursor(name string) (kv.Context, error) {
	ctx, ok := h.cursors[name]
	if !ok {
		return kv.Context{}, fmt.Errorf("unknown cursor %q", name)
	}
	return ctx, nil
}

func (h *Harness) row(table string, fields map[string]any) (kv.Row, error) {
	return convertRow(fields, h.columns[table], h.saved)
}

// execute issues one step. Its callbacks run during the next drain.
func (h *Harness) execute(n int, step Step) error {
	switch step.Op {
	case OpCreateTable:
		return h.createTable(n, step)

	case OpDropTable:
		h.line("[%d] drop_table %s", n, step.Table)
		h.store.DropTable(step.Table, h.resultCallback(n, step))

	case OpPut:
		row, err := h.row(step.Table, step.Row)
		if err != nil {
			return err
		}
		h.line("[%d] put %s %s", n, step.Table, kv.FormatRow(row))
		h.store.Put(step.Table, row, func(res kv.Result, g kv.GUID) {
			if res.IsSuccess() {
				h.outcome("SUCCESS guid=%s", g.String()[:8])
				if step.Save != "" {
					h.saved[step.Save] = g
				}
			} else {
				h.outcome("%s", res.Error())
			}
			h.check(n, step, res, nil, -1)
		})

	case OpGet:
		query, err := h.row(step.Table, step.Query)
		if err != nil {
			return err
		}
		h.line("[%d] get %s %s as %s", n, step.Table, kv.FormatRow(query), step.Cursor)
		h.store.Get(step.Table, query, h.getCallback(n, step, step.Cursor))

	case OpGetNext:
		ctx, err := h.cursor(step.Cursor)
		if err != nil {
			return err
		}
		h.line("[%d] get_next %s", n, step.Cursor)
		h.store.GetNext(ctx, h.getCallback(n, step, step.Cursor))

	case OpModify:
		ctx, err := h.cursor(step.Cursor)
		if err != nil {
			return err
		}
		row, err := h.row(ctx.Table, step.Row)
		if err != nil {
			return err
		}
		h.line("[%d] modify %s %s", n, step.Cursor, kv.FormatRow(row))
		h.store.Modify(ctx, row, func(res kv.Result, ctx kv.Context) {
			if res.IsSuccess() {
				h.cursors[step.Cursor] = ctx
				h.outcome("SUCCESS version=%d", ctx.CurrentRow.Version)
			} else {
				h.outcome("%s", res.Error())
			}
			h.check(n, step, res, nil, -1)
		})

	case OpRemove:
		ctx, err := h.cursor(step.Cursor)
		if err != nil {
			return err
		}
		h.line("[%d] remove %s", n, step.Cursor)
		h.store.Remove(ctx, h.resultCallback(n, step))

	case OpScan:
		query, err := h.row(step.Table, step.Query)
		if err != nil {
			return err
		}
		h.line("[%d] scan %s %s", n, step.Table, kv.FormatRow(query))
		h.store.Collect(step.Table, query, func(res kv.Result, rows []kv.Row) {
			if res.IsSuccess() {
				h.outcome("SUCCESS rows=%d", len(rows))
				for _, r := range rows {
					h.line("  | %s", kv.FormatRow(r))
				}
			} else {
				h.outcome("%s", res.Error())
			}
			h.check(n, step, res, nil, len(rows))
		})

	case OpRemoveAll:
		query, err := h.row(step.Table, step.Query)
		if err != nil {
			return err
		}
		h.line("[%d] remove_all %s %s", n, step.Table, kv.FormatRow(query))
		h.store.RemoveAll(step.Table, query, h.resultCallback(n, step))

	case OpWatch:
		return h.watch(n, step)

	case OpUnwatch:
		id, ok := h.triggers[step.Trigger]
		if !ok {
			return fmt.Errorf("unknown trigger %q", step.Trigger)
		}
		h.line("[%d] unwatch %s", n, step.Trigger)
		h.store.RemoveTrigger(id, h.resultCallback(n, step))

	case OpStats:
		h.line("[%d] stats %s", n, step.Table)
		h.store.Stats(step.Table, func(res kv.Result, st storage.Stats) {
			if res.IsSuccess() {
				h.outcome("SUCCESS %s", formatStats(st))
			} else {
				h.outcome("%s", res.Error())
			}
			h.check(n, step, res, nil, -1)
		})

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func (h *Harness) createTable(n int, step Step) error {
	columns, err := parseColumns(step.Columns)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(step.Indices))
	for name := range step.Indices {
		names = append(names, name)
	}
	slices.Sort(names)
	indices := make(kv.Indices, 0, len(names))
	for _, name := range names {
		indices = append(indices, kv.Index{Name: name, Columns: step.Indices[name]})
	}

	h.line("[%d] create_table %s", n, step.Table)
	h.store.CreateTable(step.Table, columns, indices, func(res kv.Result) {
		if res.IsSuccess() {
			h.columns[step.Table] = columns
		}
		h.outcome("%s", res.Error())
		h.check(n, step, res, nil, -1)
	})
	return nil
}

func (h *Harness) watch(n int, step Step) error {
	name := step.Trigger
	fire := func(_ kv.TriggerID, row kv.Row, reason kv.TriggerReason) {
		h.line("  fire %s %s %s", name, reason, kv.FormatRow(row))
	}
	registered := func(res kv.Result, id kv.TriggerID) {
		if res.IsSuccess() {
			h.triggers[name] = id
		}
		h.outcome("%s", res.Error())
		h.check(n, step, res, nil, -1)
	}

	if step.Table != "" {
		mode := ""
		if step.Sticky {
			mode = " sticky"
		}
		h.line("[%d] watch %s as %s%s", n, step.Table, name, mode)
		h.store.PutTableTrigger(step.Table, step.Sticky, fire, registered)
		return nil
	}

	ctx, err := h.cursor(step.Cursor)
	if err != nil {
		return err
	}
	h.line("[%d] watch %s as %s", n, step.Cursor, name)
	h.store.PutTrigger(ctx, fire, registered)
	return nil
}

func (h *Harness) resultCallback(n int, step Step) storage.ResultCallback {
	return func(res kv.Result) {
		h.outcome("%s", res.Error())
		h.check(n, step, res, nil, -1)
	}
}

// getCallback records a lookup and stores the returned context under
// cursor, also on failure: an index context that found nothing still
// carries the key a trigger can watch.
func (h *Harness) getCallback(n int, step Step, cursor string) storage.GetCallback {
	return func(res kv.Result, ctx kv.Context, row kv.Row) {
		h.cursors[cursor] = ctx
		if res.IsSuccess() {
			h.outcome("SUCCESS %s", kv.FormatRow(row))
		} else {
			h.outcome("%s", res.Error())
		}
		h.check(n, step, res, row, -1)
	}
}

// check validates a step's outcome against its expect clause. count is
// -1 for steps that return no row count.
func (h *Harness) check(n int, step Step, res kv.Result, row kv.Row, count int) {
	exp := step.Expect
	if exp == nil {
		return
	}
	fail := func(format string, args ...any) {
		h.result.AddError(fmt.Sprintf("step %d (%s): ", n, step.Op) + fmt.Sprintf(format, args...))
	}

	want, err := kv.ParseCode(exp.Code)
	if err != nil {
		fail("%v", err)
		return
	}
	if res.Code != want {
		fail("want code %s, got %s", want, res.Error())
		return
	}

	if exp.Row != nil {
		table := step.Table
		if table == "" {
			table = h.cursors[step.Cursor].Table
		}
		wantRow, err := h.row(table, exp.Row)
		if err != nil {
			fail("expect row: %v", err)
			return
		}
		if !rowContains(row, wantRow) {
			fail("want row matching %s, got %s", kv.FormatRow(wantRow), kv.FormatRow(row))
		}
	}

	if exp.Count != nil && count != *exp.Count {
		fail("want %d rows, got %d", *exp.Count, count)
	}
}

// rowContains reports whether row holds every field of want.
func rowContains(row, want kv.Row) bool {
	for k, v := range want {
		if !kv.ValueEqual(row[k], v) {
			return false
		}
	}
	return true
}

func formatStats(st storage.Stats) string {
	entries := "-"
	if len(st.IndexEntries) > 0 {
		names := make([]string, 0, len(st.IndexEntries))
		for name := range st.IndexEntries {
			names = append(names, name)
		}
		slices.Sort(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s:%d", name, st.IndexEntries[name])
		}
		entries = strings.Join(parts, ",")
	}
	return fmt.Sprintf("rows=%d index_entries=%s index_links=%d row_triggers=%d table_triggers=%d",
		st.Rows, entries, st.IndexLinks, st.RowTriggers, st.TableTriggers)
}

// collectTables records the final schema and rows of every table.
func (h *Harness) collectTables() error {
	var errs []string
	h.store.Tables(func(names []string) {
		for _, name := range names {
			h.store.Describe(name, func(res kv.Result, schema kv.Schema) {
				if !res.IsSuccess() {
					errs = append(errs, res.Error())
					return
				}
				h.result.Schemas[name] = schema.Columns
			})
			h.store.Collect(name, kv.Query{}, func(res kv.Result, rows []kv.Row) {
				if !res.IsSuccess() {
					errs = append(errs, fmt.Sprintf("%s: %s", name, res.Error()))
					return
				}
				h.result.Tables[name] = rows
			})
		}
	})
	if err := h.drain(); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
