package schema

// agentTables defines agent_sessions, delegations, tool_calls, and
// checkpoints: the hierarchy of agent activity tracked through
// parent_session_id and correlated via session_id namespacing.
func agentTables() []TableDef {
	return []TableDef{
		{
			Name: "agent_sessions",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("project_id"),
				textCol("session_id"),
				textNull("parent_session_id"),
				textCol("agent_program"),
				textCol("model_id"),
				textNull("operator_id"),
				textNull("machine_id"),
				intCol("started_at"),
				intNull("ended_at"),
			},
		},
		{
			Name: "delegations",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("parent_session_id"),
				textCol("child_session_id"),
				textNull("tool_name"),
				intCol("created_at"),
			},
		},
		{
			Name: "tool_calls",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("session_id"),
				textCol("tool_name"),
				textCol("params"),
				textNull("result"),
				intCol("created_at"),
			},
		},
		{
			Name: "checkpoints",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("session_id"),
				textCol("label"),
				textCol("snapshot"),
				intCol("created_at"),
			},
		},
	}
}

func agentIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_agent_sessions_project", Table: "agent_sessions", Columns: []string{"project_id"}},
		{Name: "idx_agent_sessions_session", Table: "agent_sessions", Columns: []string{"session_id"}},
		{Name: "idx_agent_sessions_parent", Table: "agent_sessions", Columns: []string{"parent_session_id"}},
		{Name: "idx_delegations_parent", Table: "delegations", Columns: []string{"parent_session_id"}},
		{Name: "idx_tool_calls_session", Table: "tool_calls", Columns: []string{"session_id"}},
		{Name: "idx_checkpoints_session", Table: "checkpoints", Columns: []string{"session_id"}},
	}
}

func agentForeignKeys() []ForeignKeyDef {
	return []ForeignKeyDef{
		{FromTable: "agent_sessions", FromColumn: "project_id", ToTable: "projects", ToColumn: "id"},
		{FromTable: "delegations", FromColumn: "parent_session_id", ToTable: "agent_sessions", ToColumn: "id"},
		{FromTable: "delegations", FromColumn: "child_session_id", ToTable: "agent_sessions", ToColumn: "id"},
		{FromTable: "tool_calls", FromColumn: "session_id", ToTable: "agent_sessions", ToColumn: "id"},
		{FromTable: "checkpoints", FromColumn: "session_id", ToTable: "agent_sessions", ToColumn: "id"},
	}
}
