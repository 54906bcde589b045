// Package export writes snapshots of storage tables into SQLite.
//
// The export is one-way: nothing reads it back into a Storage. Each
// exported table becomes an SQLite table of the same name, with one
// column per declared column and GUID as the primary key (hex TEXT).
// ringkv_columns records the declared kind of every column.
package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/ringkv/internal/kv"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Exporter owns one SQLite database.
type Exporter struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Exporter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set user_version: %w", err)
	}

	return &Exporter{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database.
func (e *Exporter) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// DB returns the underlying handle, for inspection in tests and tools.
func (e *Exporter) DB() *sql.DB {
	return e.db
}

// WriteTable replaces the snapshot of table name with rows, in one
// transaction. columns is the table's declared schema; GUID is added if
// missing. Rows must conform to columns.
func (e *Exporter) WriteTable(ctx context.Context, name string, columns kv.Columns, rows []kv.Row) error {
	cols := make(kv.Columns, len(columns)+1)
	for col, v := range columns {
		cols[col] = v
	}
	cols[kv.GUIDColumn] = kv.GUID{}
	names := sortedColumns(cols)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write table %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return fmt.Errorf("write table %s: drop: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, createStatement(name, cols, names)); err != nil {
		return fmt.Errorf("write table %s: create: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ringkv_columns WHERE table_name = ?", name); err != nil {
		return fmt.Errorf("write table %s: columns: %w", name, err)
	}
	for _, col := range names {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ringkv_columns (table_name, column_name, kind) VALUES (?, ?, ?)",
			name, col, cols[col].Kind().String(),
		); err != nil {
			return fmt.Errorf("write table %s: columns: %w", name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(name, names))
	if err != nil {
		return fmt.Errorf("write table %s: prepare: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for _, row := range rows {
		if err := cols.ConformsTo(row, false); err != nil {
			return fmt.Errorf("write table %s: %w", name, err)
		}
		for i, col := range names {
			args[i] = sqlValue(row[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("write table %s: insert: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write table %s: commit: %w", name, err)
	}
	return nil
}

// sortedColumns puts GUID first, then the rest by name.
func sortedColumns(cols kv.Columns) []string {
	names := make([]string, 0, len(cols))
	for col := range cols {
		if col != kv.GUIDColumn {
			names = append(names, col)
		}
	}
	sort.Strings(names)
	return append([]string{kv.GUIDColumn}, names...)
}

func createStatement(name string, cols kv.Columns, names []string) string {
	defs := make([]string, len(names))
	for i, col := range names {
		defs[i] = quote(col) + " " + cols[col].Kind().SQLType()
		if col == kv.GUIDColumn {
			defs[i] += " PRIMARY KEY"
		}
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))
}

func insertStatement(name string, names []string) string {
	quoted := make([]string, len(names))
	for i, col := range names {
		quoted[i] = quote(col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(name), strings.Join(quoted, ", "), placeholders)
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// sqlValue maps a value to its driver representation. Missing columns
// become NULL.
func sqlValue(v kv.Value) any {
	switch v := v.(type) {
	case kv.Int:
		return int64(v)
	case kv.Text:
		return string(v)
	case kv.Double:
		return float64(v)
	case kv.GUID:
		return v.String()
	default:
		return nil
	}
}
