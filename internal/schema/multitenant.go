package schema

// multiTenantTables defines organizations, users, teams, team_members,
// and api_keys: the tenancy and authentication roots referenced by
// projects and, transitively, everything else.
func multiTenantTables() []TableDef {
	return []TableDef{
		{
			Name: "organizations",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("name"),
				intCol("created_at"),
			},
		},
		{
			Name: "users",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("org_id"),
				textCol("email"),
				textCol("display_name"),
				intCol("created_at"),
			},
		},
		{
			Name: "teams",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("org_id"),
				textCol("name"),
				intCol("created_at"),
			},
		},
		{
			Name: "team_members",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("team_id"),
				textCol("user_id"),
				textCol("role"),
				intCol("created_at"),
			},
		},
		{
			Name: "api_keys",
			Columns: []ColumnDef{
				textPK("id"),
				textCol("org_id"),
				textNull("user_id"),
				textCol("key_hash"),
				textCol("name"),
				intCol("created_at"),
				intNull("revoked_at"),
			},
		},
	}
}

func multiTenantIndexes() []IndexDef {
	return []IndexDef{
		{Name: "idx_users_org", Table: "users", Columns: []string{"org_id"}},
		{Name: "idx_teams_org", Table: "teams", Columns: []string{"org_id"}},
		{Name: "idx_team_members_team", Table: "team_members", Columns: []string{"team_id"}},
		{Name: "idx_api_keys_org", Table: "api_keys", Columns: []string{"org_id"}},
	}
}

func multiTenantUniqueConstraints() []UniqueConstraintDef {
	return []UniqueConstraintDef{
		{Table: "users", Columns: []string{"org_id", "email"}},
		{Table: "teams", Columns: []string{"org_id", "name"}},
		{Table: "team_members", Columns: []string{"team_id", "user_id"}},
	}
}
