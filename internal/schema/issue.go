package schema

// issueTables defines the project issue tracker: project_issues,
// issue_comments, issue_labels, and issue_label_assignments.
func issueTables() []TableDef {
	return []TableDef{
		{
			Name: "project_issues",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				intCol("number"),
				textCol("title"),
				textNull("body"),
				textCol("state"),
				intCol("created_at"),
				intCol("updated_at"),
			},
		},
		{
			Name: "issue_comments",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("issue_id"),
				textCol("author"),
				textCol("body"),
				intCol("created_at"),
			},
		},
		{
			Name: "issue_labels",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textCol("name"),
				textCol("color"),
			},
		},
		{
			Name: "issue_label_assignments",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("issue_id"),
				textCol("label_id"),
				intCol("created_at"),
			},
		},
	}
}

func issueIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_issues_project", Table: "project_issues", Columns: []string{"project_id"}},
		{Name: "idx_issue_comments_issue", Table: "issue_comments", Columns: []string{"issue_id"}},
		{Name: "idx_issue_labels_project", Table: "issue_labels", Columns: []string{"project_id"}},
		{Name: "idx_issue_label_assignments_issue", Table: "issue_label_assignments", Columns: []string{"issue_id"}},
	}
}

func issueForeignKeys() []ForeignKeyDef {
	return []ForeignKeyDef{
		{FromTable: "project_issues", FromColumn: "project_id", ToTable: "projects", ToColumn: "id"},
		{FromTable: "issue_comments", FromColumn: "issue_id", ToTable: "project_issues", ToColumn: "id"},
		{FromTable: "issue_labels", FromColumn: "project_id", ToTable: "projects", ToColumn: "id"},
		{FromTable: "issue_label_assignments", FromColumn: "issue_id", ToTable: "project_issues", ToColumn: "id"},
		{FromTable: "issue_label_assignments", FromColumn: "label_id", ToTable: "issue_labels", ToColumn: "id"},
	}
}

func issueUniqueConstraints() []UniqueConstraintDef {
	return []UniqueConstraintDef{
		{Table: "project_issues", Columns: []string{"project_id", "number"}},
		{Table: "issue_labels", Columns: []string{"project_id", "name"}},
		{Table: "issue_label_assignments", Columns: []string{"issue_id", "label_id"}},
	}
}
