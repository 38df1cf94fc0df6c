package schema

import (
	"fmt"
	"strings"
)

// DDLGenerator renders a ProjectSchema into an ordered list of DDL
// statements for one SQL dialect. Statements are returned in
// dependency order (parents before children) so a generator that
// executes them in sequence never references an undefined table.
type DDLGenerator interface {
	GenerateDDL(schema ProjectSchema) []string
}

// SqliteGenerator renders CREATE TABLE (with inline FK and table-level
// UNIQUE clauses, matching SQLite's preference for FKs declared inside
// the table body), CREATE INDEX, and an FTS5 virtual table plus the
// insert/update/delete triggers that keep it in sync with its content
// table.
type SqliteGenerator struct{}

func (SqliteGenerator) GenerateDDL(schema ProjectSchema) []string {
	var stmts []string

	fksByTable := map[string][]ForeignKeyDef{}
	for _, fk := range schema.ForeignKeys {
		fksByTable[fk.FromTable] = append(fksByTable[fk.FromTable], fk)
	}
	ucsByTable := map[string][]UniqueConstraintDef{}
	for _, uc := range schema.UniqueConstraints {
		ucsByTable[uc.Table] = append(ucsByTable[uc.Table], uc)
	}

	for _, t := range schema.Tables {
		stmts = append(stmts, createTableSQLite(t, fksByTable[t.Name], ucsByTable[t.Name]))
	}

	for _, idx := range schema.Indexes {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s(%s)",
			idx.Name, idx.Table, strings.Join(idx.Columns, ", "),
		))
	}

	if schema.FTS != nil {
		stmts = append(stmts, ftsSQLite(*schema.FTS)...)
	}

	return stmts
}

func createTableSQLite(t TableDef, fks []ForeignKeyDef, ucs []UniqueConstraintDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)

	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "    "+columnSQLite(c))
	}
	for _, fk := range fks {
		lines = append(lines, fmt.Sprintf(
			"    FOREIGN KEY (%s) REFERENCES %s(%s)", fk.FromColumn, fk.ToTable, fk.ToColumn,
		))
	}
	for _, uc := range ucs {
		lines = append(lines, fmt.Sprintf("    UNIQUE(%s)", strings.Join(uc.Columns, ", ")))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

func columnSQLite(c ColumnDef) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	switch c.Type {
	case Integer:
		b.WriteString("INTEGER")
	default:
		b.WriteString("TEXT")
	}
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.Unique && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if c.NotNull && !c.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

// ftsSQLite renders the fts5 virtual table plus the three triggers
// that keep it synchronized with inserts/updates/deletes on the
// content table, following the standard SQLite "external content"
// FTS5 pattern.
func ftsSQLite(fts FtsDef) []string {
	cols := strings.Join(fts.ContentColumns, ", ")
	colsNew := prefixColumns("new.", fts.ContentColumns)

	create := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5(%s, content=%s, content_rowid=%s)",
		fts.VirtualTableName, cols, fts.ContentTable, fts.IDColumn,
	)

	insertTrigger := fmt.Sprintf(
		"CREATE TRIGGER IF NOT EXISTS %[1]s_ai AFTER INSERT ON %[2]s BEGIN\n"+
			"    INSERT INTO %[1]s(rowid, %[3]s) VALUES (new.%[4]s, %[5]s);\n"+
			"END",
		fts.VirtualTableName, fts.ContentTable, cols, fts.IDColumn, colsNew,
	)

	deleteTrigger := fmt.Sprintf(
		"CREATE TRIGGER IF NOT EXISTS %[1]s_ad AFTER DELETE ON %[2]s BEGIN\n"+
			"    INSERT INTO %[1]s(%[1]s, rowid, %[3]s) VALUES('delete', old.%[4]s, %[5]s);\n"+
			"END",
		fts.VirtualTableName, fts.ContentTable, cols, fts.IDColumn, prefixColumns("old.", fts.ContentColumns),
	)

	updateTrigger := fmt.Sprintf(
		"CREATE TRIGGER IF NOT EXISTS %[1]s_au AFTER UPDATE ON %[2]s BEGIN\n"+
			"    INSERT INTO %[1]s(%[1]s, rowid, %[3]s) VALUES('delete', old.%[4]s, %[5]s);\n"+
			"    INSERT INTO %[1]s(rowid, %[3]s) VALUES (new.%[4]s, %[6]s);\n"+
			"END",
		fts.VirtualTableName, fts.ContentTable, cols, fts.IDColumn,
		prefixColumns("old.", fts.ContentColumns), colsNew,
	)

	return []string{create, insertTrigger, deleteTrigger, updateTrigger}
}

func prefixColumns(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}
