package schema

// planTables defines plans, plan_versions, and plan_reviews: agent
// planning artifacts and their review history.
func planTables() []TableDef {
	return []TableDef{
		{
			Name: "plans",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textNull("session_id"),
				textCol("title"),
				textCol("status"),
				intCol("created_at"),
				intCol("updated_at"),
			},
		},
		{
			Name: "plan_versions",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("plan_id"),
				intCol("version_number"),
				textCol("content"),
				intCol("created_at"),
			},
		},
		{
			Name: "plan_reviews",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("plan_version_id"),
				textCol("reviewer"),
				textCol("verdict"),
				textNull("comments"),
				intCol("created_at"),
			},
		},
	}
}

func planIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_plans_project", Table: "plans", Columns: []string{"project_id"}},
		{Name: "idx_plan_versions_plan", Table: "plan_versions", Columns: []string{"plan_id"}},
		{Name: "idx_plan_reviews_version", Table: "plan_reviews", Columns: []string{"plan_version_id"}},
	}
}

func planForeignKeys() []ForeignKeyDef {
	return []ForeignKeyDef{
		{FromTable: "plans", FromColumn: "project_id", ToTable: "projects", ToColumn: "id"},
		{FromTable: "plan_versions", FromColumn: "plan_id", ToTable: "plans", ToColumn: "id"},
		{FromTable: "plan_reviews", FromColumn: "plan_version_id", ToTable: "plan_versions", ToColumn: "id"},
	}
}

func planUniqueConstraints() []UniqueConstraintDef {
	return []UniqueConstraintDef{
		{Table: "plan_versions", Columns: []string{"plan_id", "version_number"}},
	}
}
