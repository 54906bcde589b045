package storage

import (
	"log/slog"
	"slices"

	"github.com/roach88/ringkv/internal/engine"
	"github.com/roach88/ringkv/internal/kv"
)

// GetCallback receives the outcome of get / get_next, the cursor to
// continue with and a copy of the row (nil unless successful).
type GetCallback func(res kv.Result, ctx kv.Context, row kv.Row)

// PutCallback receives the outcome of put and the row's GUID.
type PutCallback func(res kv.Result, guid kv.GUID)

// ModifyCallback receives the outcome of modify and the updated cursor,
// whose CurrentRow references the new version.
type ModifyCallback func(res kv.Result, ctx kv.Context)

// ResultCallback receives the outcome of operations returning nothing else.
type ResultCallback func(res kv.Result)

// TriggerCallback receives the outcome of a trigger registration.
type TriggerCallback func(res kv.Result, id kv.TriggerID)

// GUIDSource generates primary GUIDs for rows inserted without one.
type GUIDSource func() kv.GUID

// Storage is the Catalog: the registry of tables and the entry point of
// every operation. Create one per dispatcher with New.
type Storage struct {
	d       *engine.Dispatcher
	logger  *slog.Logger
	newGUID GUIDSource
	tables  map[string]*table
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger used for catalog diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// WithGUIDSource replaces the random primary GUID generator.
func WithGUIDSource(src GUIDSource) Option {
	return func(s *Storage) {
		s.newGUID = src
	}
}

// New creates an empty catalog running on d.
func New(d *engine.Dispatcher, opts ...Option) *Storage {
	s := &Storage{
		d:       d,
		logger:  slog.Default(),
		newGUID: kv.NewRandomGUID,
		tables:  make(map[string]*table),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatcher returns the dispatcher the storage runs on.
func (s *Storage) Dispatcher() *engine.Dispatcher {
	return s.d
}

func (s *Storage) post(t engine.Task) {
	s.d.Post(t)
}

// CreateTable registers a table. Columns implicitly gain the GUID column
// and index names are prefixed with "<name>_". Creating a table that
// exists with an equal schema succeeds without change.
func (s *Storage) CreateTable(name string, columns kv.Columns, indices kv.Indices, cb ResultCallback) {
	columns = columns.Clone()
	indices = cloneIndices(indices)
	s.post(func() { s.createTable(name, columns, indices, cb) })
}

// DropTable deletes a table with its content and index rings.
func (s *Storage) DropTable(name string, cb ResultCallback) {
	s.post(func() { s.dropTable(name, cb) })
}

// Get starts a lookup. An empty query walks the whole table, a query
// holding GUID selects by primary key, any other query must match the
// column set of exactly one index.
func (s *Storage) Get(table string, query kv.Query, cb GetCallback) {
	query = query.Clone()
	s.post(func() { s.get(table, query, cb) })
}

// GetNext continues the iteration described by ctx.
func (s *Storage) GetNext(ctx kv.Context, cb GetCallback) {
	s.post(func() { s.getNext(ctx, cb) })
}

// Put inserts a new row. A random GUID is assigned when the row has none.
func (s *Storage) Put(table string, row kv.Row, cb PutCallback) {
	row = row.Clone()
	s.post(func() { s.put(table, row, cb) })
}

// Modify replaces the row ctx points at. ctx.CurrentRow must still be
// the row's current version.
func (s *Storage) Modify(ctx kv.Context, row kv.Row, cb ModifyCallback) {
	row = row.Clone()
	s.post(func() { s.modify(ctx, row, cb) })
}

// Remove deletes the row ctx points at. ctx.CurrentRow must still be
// the row's current version.
func (s *Storage) Remove(ctx kv.Context, cb ResultCallback) {
	s.post(func() { s.remove(ctx, cb) })
}

// PutTrigger registers a one-shot trigger on the row ctx points at, or,
// when ctx comes from an index lookup, on the index key it looked up.
// An index key trigger may be placed while no row produces that key.
func (s *Storage) PutTrigger(ctx kv.Context, fn kv.TriggerFunc, cb TriggerCallback) {
	s.post(func() { s.putTrigger(ctx, fn, cb) })
}

// PutTableTrigger registers a trigger firing on every change in table.
// A non-sticky trigger removes itself after its first firing.
func (s *Storage) PutTableTrigger(table string, sticky bool, fn kv.TriggerFunc, cb TriggerCallback) {
	s.post(func() { s.putTableTrigger(table, sticky, fn, cb) })
}

// RemoveTrigger cancels a registered trigger.
func (s *Storage) RemoveTrigger(id kv.TriggerID, cb ResultCallback) {
	s.post(func() { s.removeTrigger(id, cb) })
}

func cloneIndices(indices kv.Indices) kv.Indices {
	out := make(kv.Indices, len(indices))
	for i, ix := range indices {
		out[i] = kv.Index{Name: ix.Name, Columns: slices.Clone(ix.Columns)}
	}
	return out
}
