package schema

// errorPatternTables defines error_patterns and error_pattern_matches:
// known failure signatures and the observations they matched against,
// used to recognize recurring quality-gate failures.
func errorPatternTables() []TableDef {
	return []TableDef{
		{
			Name: "error_patterns",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textCol("pattern"),
				textNull("description"),
				intCol("created_at"),
			},
		},
		{
			Name: "error_pattern_matches",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("error_pattern_id"),
				textNull("observation_id"),
				textCol("matched_text"),
				intCol("created_at"),
			},
		},
	}
}

func errorPatternIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_error_patterns_project", Table: "error_patterns", Columns: []string{"project_id"}},
		{Name: "idx_error_pattern_matches_pattern", Table: "error_pattern_matches", Columns: []string{"error_pattern_id"}},
	}
}

func errorPatternForeignKeys() []ForeignKeyDef {
	return []ForeignKeyDef{
		{FromTable: "error_patterns", FromColumn: "project_id", ToTable: "projects", ToColumn: "id"},
		{FromTable: "error_pattern_matches", FromColumn: "error_pattern_id", ToTable: "error_patterns", ToColumn: "id"},
		{FromTable: "error_pattern_matches", FromColumn: "observation_id", ToTable: "observations", ToColumn: "id"},
	}
}
