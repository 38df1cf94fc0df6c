package schema

import (
	"strings"
	"testing"
)

func TestDefinitionHasNoDanglingForeignKeys(t *testing.T) {
	def := Definition()

	tableNames := map[string]bool{}
	for _, tbl := range def.Tables {
		tableNames[tbl.Name] = true
	}

	for _, fk := range def.ForeignKeys {
		if !tableNames[fk.FromTable] {
			t.Errorf("foreign key references unknown FromTable %q", fk.FromTable)
		}
		if !tableNames[fk.ToTable] {
			t.Errorf("foreign key references unknown ToTable %q", fk.ToTable)
		}
	}
}

func TestDefinitionTableOrderingPrecedesDependents(t *testing.T) {
	def := Definition()

	position := map[string]int{}
	for i, tbl := range def.Tables {
		position[tbl.Name] = i
	}

	for _, fk := range def.ForeignKeys {
		if fk.FromTable == fk.ToTable {
			continue
		}
		if position[fk.ToTable] > position[fk.FromTable] {
			t.Errorf("table %q (referencing %q) is defined before its parent", fk.FromTable, fk.ToTable)
		}
	}
}

func TestDefinitionIncludesCoreTables(t *testing.T) {
	def := Definition()

	want := []string{
		"organizations", "projects", "collections", "observations",
		"session_summaries", "file_hashes", "agent_sessions", "delegations",
		"tool_calls", "checkpoints", "project_issues", "issue_comments",
		"issue_labels", "issue_label_assignments", "repositories", "branches",
		"worktrees", "agent_worktree_assignments", "plans", "plan_versions",
		"plan_reviews", "error_patterns", "error_pattern_matches", "users",
		"teams", "team_members", "api_keys",
	}

	have := map[string]bool{}
	for _, tbl := range def.Tables {
		have[tbl.Name] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing table %q", name)
		}
	}
}

func TestFileHashesUniqueConstraint(t *testing.T) {
	def := Definition()
	for _, uc := range def.UniqueConstraints {
		if uc.Table == "file_hashes" {
			if strings.Join(uc.Columns, ",") != "project_id,collection,file_path" {
				t.Errorf("unexpected file_hashes unique constraint columns: %v", uc.Columns)
			}
			return
		}
	}
	t.Error("file_hashes unique constraint not found")
}

func TestSqliteGeneratorProducesCreateTableAndFTS(t *testing.T) {
	ddl := SqliteGenerator{}.GenerateDDL(Definition())
	if len(ddl) == 0 {
		t.Fatal("expected non-empty DDL")
	}

	var sawObservationsTable, sawFTS, sawUnique, sawAutoincrement bool
	for _, stmt := range ddl {
		if strings.HasPrefix(stmt, "CREATE TABLE") && strings.Contains(stmt, "observations (") {
			sawObservationsTable = true
		}
		if strings.Contains(stmt, "fts5") {
			sawFTS = true
		}
		if strings.Contains(stmt, "UNIQUE(project_id, collection, file_path)") {
			sawUnique = true
		}
		if strings.Contains(stmt, "AUTOINCREMENT") {
			sawAutoincrement = true
		}
	}

	if !sawObservationsTable {
		t.Error("expected a CREATE TABLE statement for observations")
	}
	if !sawFTS {
		t.Error("expected an fts5 virtual table statement")
	}
	if !sawUnique {
		t.Error("expected the file_hashes composite unique constraint rendered")
	}
	if !sawAutoincrement {
		t.Error("expected file_hashes.id to render AUTOINCREMENT")
	}
}

func TestSqliteGeneratorCreateTableCountMatchesTableDefs(t *testing.T) {
	def := Definition()
	ddl := SqliteGenerator{}.GenerateDDL(def)

	createCount := 0
	for _, stmt := range ddl {
		if strings.HasPrefix(stmt, "CREATE TABLE") {
			createCount++
		}
	}
	if createCount != len(def.Tables) {
		t.Errorf("expected %d CREATE TABLE statements, got %d", len(def.Tables), createCount)
	}
}
