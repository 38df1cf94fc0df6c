package schema

// vcsTables defines repositories, branches, worktrees, and
// agent_worktree_assignments. WorktreeStatus is stored as text
// (active|in_use|archived), validated at the repository layer rather
// than with a CHECK constraint (matching the original's application-level
// enum validation).
func vcsTables() []TableDef {
	return []TableDef{
		{
			Name: "repositories",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textCol("root_path"),
				textNull("remote_url"),
				intCol("created_at"),
			},
		},
		{
			Name: "branches",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("repository_id"),
				textCol("name"),
				textNull("head_commit"),
				intCol("created_at"),
			},
		},
		{
			Name: "worktrees",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("repository_id"),
				textCol("path"),
				textNull("branch_id"),
				textCol("status"),
				intCol("created_at"),
			},
		},
		{
			Name: "agent_worktree_assignments",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("worktree_id"),
				textCol("session_id"),
				intCol("assigned_at"),
				intNull("released_at"),
			},
		},
	}
}

func vcsIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_repositories_project", Table: "repositories", Columns: []string{"project_id"}},
		{Name: "idx_branches_repository", Table: "branches", Columns: []string{"repository_id"}},
		{Name: "idx_worktrees_repository", Table: "worktrees", Columns: []string{"repository_id"}},
		{Name: "idx_worktrees_status", Table: "worktrees", Columns: []string{"status"}},
		{Name: "idx_agent_worktree_assignments_worktree", Table: "agent_worktree_assignments", Columns: []string{"worktree_id"}},
		{Name: "idx_agent_worktree_assignments_session", Table: "agent_worktree_assignments", Columns: []string{"session_id"}},
	}
}

func vcsForeignKeys() []ForeignKeyDef {
	return []ForeignKeyDef{
		{FromTable: "repositories", FromColumn: "project_id", ToTable: "projects", ToColumn: "id"},
		{FromTable: "branches", FromColumn: "repository_id", ToTable: "repositories", ToColumn: "id"},
		{FromTable: "worktrees", FromColumn: "repository_id", ToTable: "repositories", ToColumn: "id"},
		{FromTable: "worktrees", FromColumn: "branch_id", ToTable: "branches", ToColumn: "id"},
		{FromTable: "agent_worktree_assignments", FromColumn: "worktree_id", ToTable: "worktrees", ToColumn: "id"},
	}
}

func vcsUniqueConstraints() []UniqueConstraintDef {
	return []UniqueConstraintDef{
		{Table: "repositories", Columns: []string{"project_id", "root_path"}},
		{Table: "branches", Columns: []string{"repository_id", "name"}},
	}
}
