package schema

// fileHashTables defines file_hashes: one row per (project, collection,
// file) tracking the last indexed content hash, with a nullable
// deleted_at tombstone column for soft-delete.
func fileHashTables() []TableDef {
	return []TableDef{
		{
			Name: "file_hashes",
			Columns: []ColumnDef{
				intAutoPK("id"),
				textCol("project_id"),
				textCol("collection"),
				textCol("file_path"),
				textCol("content_hash"),
				intCol("indexed_at"),
				intNull("deleted_at"),
			},
		},
	}
}

func fileHashUniqueConstraints() []UniqueConstraintDef {
	return []UniqueConstraintDef{
		{Table: "file_hashes", Columns: []string{"project_id", "collection", "file_path"}},
	}
}

func fileHashIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_file_hashes_project", Table: "file_hashes", Columns: []string{"project_id"}},
		{Name: "idx_file_hashes_collection", Table: "file_hashes", Columns: []string{"collection"}},
		{Name: "idx_file_hashes_deleted", Table: "file_hashes", Columns: []string{"deleted_at"}},
	}
}
