// Package schema declares the backend-agnostic persistence surface for
// the memory/context core: tables, indexes, foreign keys, a full-text
// virtual table, and composite unique constraints. A DDLGenerator
// renders this declarative model into dialect-specific DDL.
package schema

// ColumnType is the semantic type of a column, independent of any one
// SQL dialect's concrete type names.
type ColumnType int

const (
	// Text is a variable-length string column.
	Text ColumnType = iota
	// Integer is a 64-bit signed integer column (also used for epoch timestamps).
	Integer
)

// ColumnDef describes one column of a table.
type ColumnDef struct {
	Name          string
	Type          ColumnType
	PrimaryKey    bool
	Unique        bool
	NotNull       bool
	AutoIncrement bool
}

// TableDef describes one table.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// IndexDef describes a non-unique secondary index.
type IndexDef struct {
	Name    string
	Table   string
	Columns []string
}

// ForeignKeyDef describes `(FromTable.FromColumn) REFERENCES ToTable(ToColumn)`.
type ForeignKeyDef struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}

// UniqueConstraintDef describes a composite UNIQUE(...) constraint.
type UniqueConstraintDef struct {
	Table   string
	Columns []string
}

// FtsDef describes a full-text virtual table mirroring a content column.
type FtsDef struct {
	VirtualTableName string
	ContentTable     string
	ContentColumns   []string
	IDColumn         string
}

// ProjectSchema is the full persistence surface: every table, index, FK,
// unique constraint, and the FTS virtual table that serve memory,
// collections, file hashes, agent tracking, issues, VCS entities, plans,
// error patterns, and multi-tenant bookkeeping.
type ProjectSchema struct {
	Tables            []TableDef
	FTS               *FtsDef
	Indexes           []IndexDef
	ForeignKeys       []ForeignKeyDef
	UniqueConstraints []UniqueConstraintDef
}

// Definition returns the canonical schema for the core. Tables are
// ordered so that parents precede children (organizations before
// projects before collections/observations/... ) so DDL generators that
// emit foreign keys inline (SQLite) or as a single ordered batch
// (Postgres/MySQL) never reference an undefined table.
func Definition() ProjectSchema {
	tables := multiTenantTables()
	tables = append(tables, projectTables()...)
	tables = append(tables, memoryTables()...)
	tables = append(tables, fileHashTables()...)
	tables = append(tables, agentTables()...)
	tables = append(tables, issueTables()...)
	tables = append(tables, vcsTables()...)
	tables = append(tables, planTables()...)
	tables = append(tables, errorPatternTables()...)

	indexes := multiTenantIndexes()
	indexes = append(indexes, projectIndexes()...)
	indexes = append(indexes, memoryIndexes()...)
	indexes = append(indexes, fileHashIndexes()...)
	indexes = append(indexes, agentIndexes()...)
	indexes = append(indexes, issueIndexes()...)
	indexes = append(indexes, vcsIndexes()...)
	indexes = append(indexes, planIndexes()...)
	indexes = append(indexes, errorPatternIndexes()...)

	fks := projectForeignKeys()
	fks = append(fks, agentForeignKeys()...)
	fks = append(fks, issueForeignKeys()...)
	fks = append(fks, vcsForeignKeys()...)
	fks = append(fks, planForeignKeys()...)
	fks = append(fks, errorPatternForeignKeys()...)

	ucs := multiTenantUniqueConstraints()
	ucs = append(ucs, projectUniqueConstraints()...)
	ucs = append(ucs, fileHashUniqueConstraints()...)
	ucs = append(ucs, issueUniqueConstraints()...)
	ucs = append(ucs, vcsUniqueConstraints()...)
	ucs = append(ucs, planUniqueConstraints()...)

	return ProjectSchema{
		Tables:            tables,
		FTS:               ftsDef(),
		Indexes:           indexes,
		ForeignKeys:       fks,
		UniqueConstraints: ucs,
	}
}

func col(name string, typ ColumnType, pk, unique, notNull, autoIncrement bool) ColumnDef {
	return ColumnDef{Name: name, Type: typ, PrimaryKey: pk, Unique: unique, NotNull: notNull, AutoIncrement: autoIncrement}
}

func textPK(name string) ColumnDef    { return col(name, Text, true, false, true, false) }
func textCol(name string) ColumnDef   { return col(name, Text, false, false, true, false) }
func textNull(name string) ColumnDef  { return col(name, Text, false, false, false, false) }
func intCol(name string) ColumnDef    { return col(name, Integer, false, false, true, false) }
func intNull(name string) ColumnDef   { return col(name, Integer, false, false, false, false) }
func intAutoPK(name string) ColumnDef { return col(name, Integer, true, false, true, true) }
