package storage

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ringkv/internal/engine"
	"github.com/roach88/ringkv/internal/kv"
	"github.com/roach88/ringkv/internal/testutil"
)

// fixture drives a Storage synchronously: every helper issues one
// operation, drains the dispatcher and returns what the callback saw.
type fixture struct {
	t     *testing.T
	d     *engine.Dispatcher
	s     *Storage
	guids *testutil.SequentialGUIDs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := engine.New(engine.WithLogger(logger), engine.WithStepLimit(10000))
	guids := testutil.NewSequentialGUIDs()
	s := New(d, WithLogger(logger), WithGUIDSource(guids.Next))
	return &fixture{t: t, d: d, s: s, guids: guids}
}

func (f *fixture) drain() {
	f.t.Helper()
	_, err := f.d.Drain()
	require.NoError(f.t, err)
}

// kvTable creates T{k int, v string} with index "k" (stored as T_k).
func (f *fixture) kvTable() {
	f.t.Helper()
	res := f.createTable("T", kv.Columns{"k": kv.Int(0), "v": kv.Text("")}, kv.Indices{{Name: "k", Columns: []string{"k"}}})
	require.True(f.t, res.IsSuccess(), res.Error())
}

func (f *fixture) createTable(name string, cols kv.Columns, indices kv.Indices) kv.Result {
	var got kv.Result
	f.s.CreateTable(name, cols, indices, func(res kv.Result) { got = res })
	f.drain()
	return got
}

func (f *fixture) dropTable(name string) kv.Result {
	var got kv.Result
	f.s.DropTable(name, func(res kv.Result) { got = res })
	f.drain()
	return got
}

func (f *fixture) put(table string, row kv.Row) (kv.Result, kv.GUID) {
	var (
		got  kv.Result
		guid kv.GUID
	)
	f.s.Put(table, row, func(res kv.Result, g kv.GUID) { got, guid = res, g })
	f.drain()
	return got, guid
}

func (f *fixture) mustPut(table string, row kv.Row) kv.GUID {
	f.t.Helper()
	res, g := f.put(table, row)
	require.True(f.t, res.IsSuccess(), res.Error())
	return g
}

func (f *fixture) get(table string, q kv.Query) (kv.Result, kv.Context, kv.Row) {
	var (
		got kv.Result
		ctx kv.Context
		row kv.Row
	)
	f.s.Get(table, q, func(res kv.Result, c kv.Context, r kv.Row) { got, ctx, row = res, c, r })
	f.drain()
	return got, ctx, row
}

func (f *fixture) mustGet(table string, q kv.Query) (kv.Context, kv.Row) {
	f.t.Helper()
	res, ctx, row := f.get(table, q)
	require.True(f.t, res.IsSuccess(), res.Error())
	return ctx, row
}

func (f *fixture) getNext(ctx kv.Context) (kv.Result, kv.Context, kv.Row) {
	var (
		got kv.Result
		out kv.Context
		row kv.Row
	)
	f.s.GetNext(ctx, func(res kv.Result, c kv.Context, r kv.Row) { got, out, row = res, c, r })
	f.drain()
	return got, out, row
}

func (f *fixture) modify(ctx kv.Context, row kv.Row) (kv.Result, kv.Context) {
	var (
		got kv.Result
		out kv.Context
	)
	f.s.Modify(ctx, row, func(res kv.Result, c kv.Context) { got, out = res, c })
	f.drain()
	return got, out
}

func (f *fixture) remove(ctx kv.Context) kv.Result {
	var got kv.Result
	f.s.Remove(ctx, func(res kv.Result) { got = res })
	f.drain()
	return got
}

func (f *fixture) putTrigger(ctx kv.Context, fn kv.TriggerFunc) (kv.Result, kv.TriggerID) {
	var (
		got kv.Result
		id  kv.TriggerID
	)
	f.s.PutTrigger(ctx, fn, func(res kv.Result, tid kv.TriggerID) { got, id = res, tid })
	f.drain()
	return got, id
}

func (f *fixture) putTableTrigger(table string, sticky bool, fn kv.TriggerFunc) (kv.Result, kv.TriggerID) {
	var (
		got kv.Result
		id  kv.TriggerID
	)
	f.s.PutTableTrigger(table, sticky, fn, func(res kv.Result, tid kv.TriggerID) { got, id = res, tid })
	f.drain()
	return got, id
}

func (f *fixture) removeTrigger(id kv.TriggerID) kv.Result {
	var got kv.Result
	f.s.RemoveTrigger(id, func(res kv.Result) { got = res })
	f.drain()
	return got
}

func (f *fixture) collect(table string, q kv.Query) []kv.Row {
	f.t.Helper()
	var (
		got  kv.Result
		rows []kv.Row
	)
	f.s.Collect(table, q, func(res kv.Result, r []kv.Row) { got, rows = res, r })
	f.drain()
	require.True(f.t, got.IsSuccess(), got.Error())
	return rows
}

func (f *fixture) stats(table string) (kv.Result, Stats) {
	var (
		got kv.Result
		st  Stats
	)
	f.s.Stats(table, func(res kv.Result, s Stats) { got, st = res, s })
	f.drain()
	return got, st
}

func guidsOf(rows []kv.Row) []kv.GUID {
	out := make([]kv.GUID, 0, len(rows))
	for _, r := range rows {
		g, _ := r.GUID()
		out = append(out, g)
	}
	return out
}
