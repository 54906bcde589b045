package storage

import "github.com/roach88/ringkv/internal/kv"

// RowsCallback receives the outcome of a multi-row helper with the rows
// gathered before it finished.
type RowsCallback func(res kv.Result, rows []kv.Row)

// Collect runs get followed by get_next until NoMoreRows and reports
// every row seen. A failure mid-walk is reported with the partial result.
func (s *Storage) Collect(table string, query kv.Query, cb RowsCallback) {
	var rows []kv.Row
	var step GetCallback
	step = func(res kv.Result, ctx kv.Context, row kv.Row) {
		switch res.Code {
		case kv.Success:
			rows = append(rows, row)
			s.GetNext(ctx, step)
		case kv.NoMoreRows:
			cb(kv.OK(), rows)
		default:
			cb(res, rows)
		}
	}
	s.Get(table, query, step)
}

// RemoveAll removes every row matching query. It is not transactional:
// rows inserted while it runs may or may not be removed.
func (s *Storage) RemoveAll(table string, query kv.Query, cb ResultCallback) {
	s.RemoveMatching(table, query, nil, cb)
}

// RemoveMatching removes every row matching query for which pred returns
// true; a nil pred accepts every row. After each removal the lookup
// restarts from scratch.
func (s *Storage) RemoveMatching(table string, query kv.Query, pred func(kv.Row) bool, cb ResultCallback) {
	query = query.Clone()

	var onGet GetCallback
	onGet = func(res kv.Result, ctx kv.Context, row kv.Row) {
		switch res.Code {
		case kv.NoMoreRows:
			cb(kv.OK())
			return
		case kv.Success:
		default:
			cb(res)
			return
		}
		if pred != nil && !pred(row) {
			s.GetNext(ctx, onGet)
			return
		}
		s.Remove(ctx, func(res kv.Result) {
			if !res.IsSuccess() {
				cb(res)
				return
			}
			s.Get(table, query, onGet)
		})
	}
	s.Get(table, query, onGet)
}
