package schema

// projectTables defines projects and collections: the tenancy leaf and
// the named vector-namespace bucket within it.
func projectTables() []TableDef {
	return []TableDef{
		{
			Name: "projects",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("org_id"),
				textCol("name"),
				textCol("path"),
				intCol("created_at"),
				intCol("updated_at"),
			},
		},
		{
			Name: "collections",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textCol("name"),
				textCol("vector_name"),
				intCol("created_at"),
			},
		},
	}
}

func projectIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_projects_org", Table: "projects", Columns: []string{"org_id"}},
		{Name: "idx_collections_project", Table: "collections", Columns: []string{"project_id"}},
	}
}

func projectForeignKeys() []ForeignKeyDef {
	return []ForeignKeyDef{
		{FromTable: "collections", FromColumn: "project_id", ToTable: "projects", ToColumn: "id"},
	}
}

func projectUniqueConstraints() []UniqueConstraintDef {
	return []UniqueConstraintDef{
		{Table: "projects", Columns: []string{"org_id", "name"}},
		{Table: "collections", Columns: []string{"project_id", "name"}},
	}
}
