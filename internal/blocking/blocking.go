// Package blocking wraps storage.Storage with synchronous variants of
// every call, for callers running on their own goroutine.
//
// Each call posts the asynchronous operation and waits for its callback.
// Results carry exactly the codes the asynchronous API reports; the only
// additional failure is the caller's context ending first, returned as
// the error.
//
// Never call this package from the dispatcher goroutine, including from
// trigger functions: the callback it waits for could then never run.
package blocking

import (
	"context"

	"github.com/roach88/ringkv/internal/kv"
	"github.com/roach88/ringkv/internal/storage"
)

// GetResult is the outcome of Get and GetNext.
type GetResult struct {
	Result  kv.Result
	Context kv.Context
	Row     kv.Row
}

// PutResult is the outcome of Put.
type PutResult struct {
	Result kv.Result
	GUID   kv.GUID
}

// ModifyResult is the outcome of Modify.
type ModifyResult struct {
	Result  kv.Result
	Context kv.Context
}

// TriggerResult is the outcome of a trigger registration.
type TriggerResult struct {
	Result kv.Result
	ID     kv.TriggerID
}

// RowsResult is the outcome of Collect.
type RowsResult struct {
	Result kv.Result
	Rows   []kv.Row
}

// Storage is the synchronous facade.
type Storage struct {
	async *storage.Storage
}

// New wraps s. The dispatcher of s must be running (Dispatcher.Run).
func New(s *storage.Storage) *Storage {
	return &Storage{async: s}
}

// Async returns the wrapped asynchronous storage.
func (b *Storage) Async() *storage.Storage {
	return b.async
}

// wait issues one asynchronous call and blocks until its callback
// delivers a value or ctx ends.
func wait[T any](ctx context.Context, issue func(done func(T))) (T, error) {
	ch := make(chan T, 1)
	issue(func(v T) { ch <- v })

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (b *Storage) CreateTable(ctx context.Context, name string, columns kv.Columns, indices kv.Indices) (kv.Result, error) {
	return wait(ctx, func(done func(kv.Result)) {
		b.async.CreateTable(name, columns, indices, done)
	})
}

func (b *Storage) DropTable(ctx context.Context, name string) (kv.Result, error) {
	return wait(ctx, func(done func(kv.Result)) {
		b.async.DropTable(name, done)
	})
}

func (b *Storage) Get(ctx context.Context, table string, query kv.Query) (GetResult, error) {
	return wait(ctx, func(done func(GetResult)) {
		b.async.Get(table, query, func(res kv.Result, c kv.Context, row kv.Row) {
			done(GetResult{Result: res, Context: c, Row: row})
		})
	})
}

func (b *Storage) GetNext(ctx context.Context, cursor kv.Context) (GetResult, error) {
	return wait(ctx, func(done func(GetResult)) {
		b.async.GetNext(cursor, func(res kv.Result, c kv.Context, row kv.Row) {
			done(GetResult{Result: res, Context: c, Row: row})
		})
	})
}

func (b *Storage) Put(ctx context.Context, table string, row kv.Row) (PutResult, error) {
	return wait(ctx, func(done func(PutResult)) {
		b.async.Put(table, row, func(res kv.Result, g kv.GUID) {
			done(PutResult{Result: res, GUID: g})
		})
	})
}

func (b *Storage) Modify(ctx context.Context, cursor kv.Context, row kv.Row) (ModifyResult, error) {
	return wait(ctx, func(done func(ModifyResult)) {
		b.async.Modify(cursor, row, func(res kv.Result, c kv.Context) {
			done(ModifyResult{Result: res, Context: c})
		})
	})
}

func (b *Storage) Remove(ctx context.Context, cursor kv.Context) (kv.Result, error) {
	return wait(ctx, func(done func(kv.Result)) {
		b.async.Remove(cursor, done)
	})
}

// PutTrigger registers a row or index key trigger. fn runs on the
// dispatcher goroutine.
func (b *Storage) PutTrigger(ctx context.Context, cursor kv.Context, fn kv.TriggerFunc) (TriggerResult, error) {
	return wait(ctx, func(done func(TriggerResult)) {
		b.async.PutTrigger(cursor, fn, func(res kv.Result, id kv.TriggerID) {
			done(TriggerResult{Result: res, ID: id})
		})
	})
}

// PutTableTrigger registers a table trigger. fn runs on the dispatcher
// goroutine.
func (b *Storage) PutTableTrigger(ctx context.Context, table string, sticky bool, fn kv.TriggerFunc) (TriggerResult, error) {
	return wait(ctx, func(done func(TriggerResult)) {
		b.async.PutTableTrigger(table, sticky, fn, func(res kv.Result, id kv.TriggerID) {
			done(TriggerResult{Result: res, ID: id})
		})
	})
}

func (b *Storage) RemoveTrigger(ctx context.Context, id kv.TriggerID) (kv.Result, error) {
	return wait(ctx, func(done func(kv.Result)) {
		b.async.RemoveTrigger(id, done)
	})
}

// Collect returns every row matching query.
func (b *Storage) Collect(ctx context.Context, table string, query kv.Query) (RowsResult, error) {
	return wait(ctx, func(done func(RowsResult)) {
		b.async.Collect(table, query, func(res kv.Result, rows []kv.Row) {
			done(RowsResult{Result: res, Rows: rows})
		})
	})
}

func (b *Storage) RemoveAll(ctx context.Context, table string, query kv.Query) (kv.Result, error) {
	return wait(ctx, func(done func(kv.Result)) {
		b.async.RemoveAll(table, query, done)
	})
}

func (b *Storage) Stats(ctx context.Context, table string) (storage.Stats, kv.Result, error) {
	type statsResult struct {
		res kv.Result
		st  storage.Stats
	}
	out, err := wait(ctx, func(done func(statsResult)) {
		b.async.Stats(table, func(res kv.Result, st storage.Stats) {
			done(statsResult{res: res, st: st})
		})
	})
	return out.st, out.res, err
}
