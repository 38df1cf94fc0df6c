// Package dbexec defines the database access port used by every
// repository in this module (memory, file hashes, agent/entity
// tracking): a thin Execute/QueryOne/QueryAll surface over typed
// parameters and rows, so repositories depend on an interface rather
// than a concrete driver and can be exercised against a fake in tests.
package dbexec

import "context"

// ParamKind tags the concrete type held by a Param.
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamInt64
	ParamFloat64
	ParamBool
	ParamNull
)

// Param is a typed bind parameter, restricted to the set of types every
// supported SQL dialect accepts unambiguously. Build one with the
// String/Int64/Float64/Bool/NullParam constructors rather than the
// struct literal.
type Param struct {
	kind ParamKind
	s    string
	i    int64
	f    float64
	b    bool
}

func String(v string) Param   { return Param{kind: ParamString, s: v} }
func Int64(v int64) Param     { return Param{kind: ParamInt64, i: v} }
func Float64(v float64) Param { return Param{kind: ParamFloat64, f: v} }
func Bool(v bool) Param       { return Param{kind: ParamBool, b: v} }
func Null() Param             { return Param{kind: ParamNull} }

// StringOrNull returns a Null param for an empty string, else String(v).
// Convenience for optional text columns populated from Go's zero value.
func StringOrNull(v string) Param {
	if v == "" {
		return Null()
	}
	return String(v)
}

// Value returns the parameter as a driver-acceptable any, satisfying
// database/sql's bind-argument contract directly.
func (p Param) Value() any {
	switch p.kind {
	case ParamString:
		return p.s
	case ParamInt64:
		return p.i
	case ParamFloat64:
		return p.f
	case ParamBool:
		return p.b
	default:
		return nil
	}
}

// Row is one result row, with typed accessors matching the column
// types this module's schema ever produces. TryGet* return
// (zero, false) rather than erroring when the column is SQL NULL.
type Row interface {
	TryGetString(column string) (string, bool, error)
	TryGetInt64(column string) (int64, bool, error)
	TryGetFloat64(column string) (float64, bool, error)
}

// Executor is the database access port. Implementations (SQLite today)
// own connection pooling and statement preparation; callers never see
// *sql.DB or a driver-specific row type.
type Executor interface {
	// Execute runs a statement with no result rows (INSERT/UPDATE/DELETE/DDL)
	// and returns the number of rows affected.
	Execute(ctx context.Context, query string, params []Param) (int64, error)

	// QueryOne runs a statement expected to return at most one row. Returns
	// (nil, nil) if no row matched.
	QueryOne(ctx context.Context, query string, params []Param) (Row, error)

	// QueryAll runs a statement and returns every matching row.
	QueryAll(ctx context.Context, query string, params []Param) ([]Row, error)

	// ApplyDDL executes a batch of DDL statements, typically the output of
	// a schema.DDLGenerator, in order and within a single transaction where
	// the dialect supports transactional DDL.
	ApplyDDL(ctx context.Context, statements []string) error

	// Close releases pooled connections.
	Close() error
}
