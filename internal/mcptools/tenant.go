package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// ===== project.organization_ensure / user_create / team_create / team_member_add =====
//
// These back the multi-tenant schema (organizations, users, teams,
// team_members) with the minimal CRUD the spec's Non-goals leave room
// for: no admin UI, no auth middleware, but the underlying rows still
// need to exist for project_id/org scoping elsewhere to resolve.

type OrganizationEnsureInput struct {
	ID   string `json:"id" jsonschema:"required,Organization id"`
	Name string `json:"name" jsonschema:"required,Organization display name"`
}

type OrganizationEnsureOutput struct {
	Organization entities.Organization `json:"organization"`
}

// EnsureOrganization creates the organization if absent, matching
// entities.TenantStore.CreateOrganization's ON CONFLICT DO NOTHING, and
// always returns the current row.
func (t *Tools) EnsureOrganization(ctx context.Context, in OrganizationEnsureInput) (OrganizationEnsureOutput, error) {
	if in.ID == "" || in.Name == "" {
		return OrganizationEnsureOutput{}, mcberrors.InvalidParams("id and name are required")
	}
	if err := t.tenants.CreateOrganization(ctx, entities.Organization{ID: in.ID, Name: in.Name, CreatedAt: t.nowUnix()}); err != nil {
		return OrganizationEnsureOutput{}, err
	}
	org, err := t.tenants.GetOrganization(ctx, in.ID)
	if err != nil {
		return OrganizationEnsureOutput{}, err
	}
	if org == nil {
		return OrganizationEnsureOutput{}, mcberrors.NotFound("organization " + in.ID)
	}
	return OrganizationEnsureOutput{Organization: *org}, nil
}

type UserCreateInput struct {
	OrgID       string `json:"org_id" jsonschema:"required,Organization id"`
	Email       string `json:"email" jsonschema:"required,User email, unique within the organization"`
	DisplayName string `json:"display_name" jsonschema:"required,Display name"`
}

type UserCreateOutput struct {
	ID string `json:"id"`
}

func (t *Tools) CreateUser(ctx context.Context, in UserCreateInput) (UserCreateOutput, error) {
	if in.OrgID == "" || in.Email == "" {
		return UserCreateOutput{}, mcberrors.InvalidParams("org_id and email are required")
	}
	user := entities.User{ID: newID("user"), OrgID: in.OrgID, Email: in.Email, DisplayName: in.DisplayName, CreatedAt: t.nowUnix()}
	if err := t.tenants.CreateUser(ctx, user); err != nil {
		return UserCreateOutput{}, err
	}
	return UserCreateOutput{ID: user.ID}, nil
}

type TeamCreateInput struct {
	OrgID string `json:"org_id" jsonschema:"required,Organization id"`
	Name  string `json:"name" jsonschema:"required,Team name"`
}

type TeamCreateOutput struct {
	ID string `json:"id"`
}

func (t *Tools) CreateTeam(ctx context.Context, in TeamCreateInput) (TeamCreateOutput, error) {
	if in.OrgID == "" || in.Name == "" {
		return TeamCreateOutput{}, mcberrors.InvalidParams("org_id and name are required")
	}
	team := entities.Team{ID: newID("team"), OrgID: in.OrgID, Name: in.Name, CreatedAt: t.nowUnix()}
	if err := t.tenants.CreateTeam(ctx, team); err != nil {
		return TeamCreateOutput{}, err
	}
	return TeamCreateOutput{ID: team.ID}, nil
}

type TeamMemberAddInput struct {
	TeamID string `json:"team_id" jsonschema:"required,Team id"`
	UserID string `json:"user_id" jsonschema:"required,User id"`
	Role   string `json:"role,omitempty" jsonschema:"Role within the team (default: member)"`
}

type TeamMemberAddOutput struct {
	Added bool `json:"added"`
}

func (t *Tools) AddTeamMember(ctx context.Context, in TeamMemberAddInput) (TeamMemberAddOutput, error) {
	if in.TeamID == "" || in.UserID == "" {
		return TeamMemberAddOutput{}, mcberrors.InvalidParams("team_id and user_id are required")
	}
	role := in.Role
	if role == "" {
		role = "member"
	}
	member := entities.TeamMember{ID: newID("member"), TeamID: in.TeamID, UserID: in.UserID, Role: role, CreatedAt: t.nowUnix()}
	if err := t.tenants.AddTeamMember(ctx, member); err != nil {
		return TeamMemberAddOutput{}, err
	}
	return TeamMemberAddOutput{Added: true}, nil
}

type TeamMembersListInput struct {
	TeamID string `json:"team_id" jsonschema:"required,Team id"`
}

type TeamMembersListOutput struct {
	Members []entities.TeamMember `json:"members"`
}

func (t *Tools) ListTeamMembers(ctx context.Context, in TeamMembersListInput) (TeamMembersListOutput, error) {
	if in.TeamID == "" {
		return TeamMembersListOutput{}, mcberrors.InvalidParams("team_id is required")
	}
	members, err := t.tenants.ListTeamMembers(ctx, in.TeamID)
	if err != nil {
		return TeamMembersListOutput{}, err
	}
	return TeamMembersListOutput{Members: members}, nil
}

func (t *Tools) registerTenantTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "project_organization_ensure",
		Description: "Create the organization if it does not already exist and return its row.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args OrganizationEnsureInput) (*mcp.CallToolResult, OrganizationEnsureOutput, error) {
		out, err := t.EnsureOrganization(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "project_user_create",
		Description: "Create a user within an organization.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args UserCreateInput) (*mcp.CallToolResult, UserCreateOutput, error) {
		out, err := t.CreateUser(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "project_team_create",
		Description: "Create a team within an organization.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TeamCreateInput) (*mcp.CallToolResult, TeamCreateOutput, error) {
		out, err := t.CreateTeam(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "project_team_member_add",
		Description: "Add a user to a team with a role.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TeamMemberAddInput) (*mcp.CallToolResult, TeamMemberAddOutput, error) {
		out, err := t.AddTeamMember(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "project_team_members_list",
		Description: "List a team's members.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TeamMembersListInput) (*mcp.CallToolResult, TeamMembersListOutput, error) {
		out, err := t.ListTeamMembers(ctx, args)
		return nil, out, err
	})
}
