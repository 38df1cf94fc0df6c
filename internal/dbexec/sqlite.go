package dbexec

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"
)

// SQLiteExecutor implements Executor over a pooled *sql.DB using the
// pure-Go modernc.org/sqlite driver (no cgo), matching the teacher's
// cgo-optional build posture.
type SQLiteExecutor struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (or creates) a SQLite database at path and limits the pool
// to a single connection, so reads and writes are serialized; one daemon
// process owns the file.
func Open(path string, log *zap.Logger) (*SQLiteExecutor, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteExecutor{db: db, log: log}, nil
}

func bindArgs(params []Param) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Value()
	}
	return args
}

func (e *SQLiteExecutor) Execute(ctx context.Context, query string, params []Param) (int64, error) {
	res, err := e.db.ExecContext(ctx, query, bindArgs(params)...)
	if err != nil {
		return 0, fmt.Errorf("execute: %w", err)
	}
	return res.RowsAffected()
}

func (e *SQLiteExecutor) QueryOne(ctx context.Context, query string, params []Param) (Row, error) {
	rows, err := e.db.QueryContext(ctx, query, bindArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("query one: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row, err := scanRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return row, rows.Err()
}

func (e *SQLiteExecutor) QueryAll(ctx context.Context, query string, params []Param) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, query, bindArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (e *SQLiteExecutor) ApplyDDL(ctx context.Context, statements []string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ddl transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl statement %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}

func (e *SQLiteExecutor) Close() error {
	return e.db.Close()
}

// mapRow is a column-name-indexed Row backed by driver.Value results,
// decoupling callers from *sql.Rows' column-order scanning.
type mapRow struct {
	values map[string]any
}

func scanRow(rows *sql.Rows) (*mapRow, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	values := make(map[string]any, len(cols))
	for i, name := range cols {
		values[name] = dest[i]
	}
	return &mapRow{values: values}, nil
}

func (r *mapRow) TryGetString(column string) (string, bool, error) {
	v, ok := r.values[column]
	if !ok || v == nil {
		return "", false, nil
	}
	switch s := v.(type) {
	case string:
		return s, true, nil
	case []byte:
		return string(s), true, nil
	default:
		return "", false, fmt.Errorf("column %q is not a string: %T", column, v)
	}
}

func (r *mapRow) TryGetInt64(column string) (int64, bool, error) {
	v, ok := r.values[column]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int64:
		return n, true, nil
	case int:
		return int64(n), true, nil
	default:
		return 0, false, fmt.Errorf("column %q is not an integer: %T", column, v)
	}
}

func (r *mapRow) TryGetFloat64(column string) (float64, bool, error) {
	v, ok := r.values[column]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int64:
		return float64(n), true, nil
	default:
		return 0, false, fmt.Errorf("column %q is not a float: %T", column, v)
	}
}
