package mcptools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonsc/mcb/internal/mcptools"
)

func TestEnsureOrganizationIsIdempotent(t *testing.T) {
	tools, _ := newTestTools(t)
	ctx := context.Background()

	first, err := tools.EnsureOrganization(ctx, mcptools.OrganizationEnsureInput{ID: "org1", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", first.Organization.Name)

	second, err := tools.EnsureOrganization(ctx, mcptools.OrganizationEnsureInput{ID: "org1", Name: "Acme (renamed attempt)"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", second.Organization.Name, "conflicting create should not overwrite the existing row")
}

func TestTeamAndMembership(t *testing.T) {
	tools, _ := newTestTools(t)
	ctx := context.Background()

	_, err := tools.EnsureOrganization(ctx, mcptools.OrganizationEnsureInput{ID: "org1", Name: "Acme"})
	require.NoError(t, err)

	user, err := tools.CreateUser(ctx, mcptools.UserCreateInput{OrgID: "org1", Email: "a@acme.com", DisplayName: "Alice"})
	require.NoError(t, err)

	team, err := tools.CreateTeam(ctx, mcptools.TeamCreateInput{OrgID: "org1", Name: "core"})
	require.NoError(t, err)

	_, err = tools.AddTeamMember(ctx, mcptools.TeamMemberAddInput{TeamID: team.ID, UserID: user.ID})
	require.NoError(t, err)

	members, err := tools.ListTeamMembers(ctx, mcptools.TeamMembersListInput{TeamID: team.ID})
	require.NoError(t, err)
	require.Len(t, members.Members, 1)
	assert.Equal(t, "member", members.Members[0].Role)
}
