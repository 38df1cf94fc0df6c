package schema

// memoryTables defines observations (with its FTS mirror handled by
// ftsDef) and session_summaries. Set-valued and structured attributes
// (tags, topics, decisions, next_steps, key_files, metadata,
// origin_context) are stored as JSON text columns, matching the
// original's JSON-as-column approach; internal/memory filters on keys of
// the metadata column with json_extract.
func memoryTables() []TableDef {
	return []TableDef{
		{
			Name: "observations",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textCol("content"),
				col("content_hash", Text, false, true, true, false),
				textCol("tags"),
				textCol("observation_type"),
				textCol("metadata"),
				intCol("created_at"),
				textNull("embedding_id"),
			},
		},
		{
			Name: "session_summaries",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textCol("session_id"),
				textCol("topics"),
				textCol("decisions"),
				textCol("next_steps"),
				textCol("key_files"),
				textCol("origin_context"),
				intCol("created_at"),
			},
		},
	}
}

func memoryIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_obs_project", Table: "observations", Columns: []string{"project_id"}},
		{Name: "idx_summary_project", Table: "session_summaries", Columns: []string{"project_id"}},
		{Name: "idx_summary_session", Table: "session_summaries", Columns: []string{"session_id"}},
	}
}

// ftsDef describes observations_fts, the full-text mirror of
// observations.content keyed by id, rebuilt via insert/update/delete
// triggers emitted alongside the virtual table by the DDLGenerator.
func ftsDef() *FtsDef {
	return &FtsDef{
		VirtualTableName: "observations_fts",
		ContentTable:     "observations",
		ContentColumns:   []string{"content"},
		IDColumn:         "id",
	}
}
