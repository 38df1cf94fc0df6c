package entities_test

import (
	"context"
	"testing"

	"github.com/marlonsc/mcb/internal/entities"
)

func TestTenantStoreOrganizationIsIdempotent(t *testing.T) {
	store := entities.NewTenantStore(newMemExecutor())
	ctx := context.Background()

	if err := store.CreateOrganization(ctx, entities.Organization{ID: "org1", Name: "Acme", CreatedAt: 1}); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if err := store.CreateOrganization(ctx, entities.Organization{ID: "org1", Name: "Acme", CreatedAt: 1}); err != nil {
		t.Fatalf("CreateOrganization (dup): %v", err)
	}

	got, err := store.GetOrganization(ctx, "org1")
	if err != nil || got == nil || got.Name != "Acme" {
		t.Fatalf("GetOrganization: %v %+v", err, got)
	}
}

func TestTenantStoreUsersAndTeams(t *testing.T) {
	store := entities.NewTenantStore(newMemExecutor())
	ctx := context.Background()
	store.CreateOrganization(ctx, entities.Organization{ID: "org1", Name: "Acme", CreatedAt: 1})

	if err := store.CreateUser(ctx, entities.User{ID: "u1", OrgID: "org1", Email: "a@acme.com", DisplayName: "Alice", CreatedAt: 2}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	got, err := store.GetUserByEmail(ctx, "org1", "a@acme.com")
	if err != nil || got == nil || got.DisplayName != "Alice" {
		t.Fatalf("GetUserByEmail: %v %+v", err, got)
	}

	if err := store.CreateTeam(ctx, entities.Team{ID: "t1", OrgID: "org1", Name: "core", CreatedAt: 3}); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := store.AddTeamMember(ctx, entities.TeamMember{ID: "m1", TeamID: "t1", UserID: "u1", Role: "admin", CreatedAt: 4}); err != nil {
		t.Fatalf("AddTeamMember: %v", err)
	}
	members, err := store.ListTeamMembers(ctx, "t1")
	if err != nil || len(members) != 1 || members[0].Role != "admin" {
		t.Fatalf("ListTeamMembers: %v %+v", err, members)
	}
}

func TestTenantStoreAPIKeyLifecycle(t *testing.T) {
	store := entities.NewTenantStore(newMemExecutor())
	ctx := context.Background()
	store.CreateOrganization(ctx, entities.Organization{ID: "org1", Name: "Acme", CreatedAt: 1})

	if err := store.CreateAPIKey(ctx, entities.APIKey{ID: "k1", OrgID: "org1", KeyHash: "hash1", Name: "ci key", CreatedAt: 2}); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	got, err := store.GetAPIKeyByHash(ctx, "hash1")
	if err != nil || got == nil || got.RevokedAt != nil {
		t.Fatalf("GetAPIKeyByHash: %v %+v", err, got)
	}

	if err := store.RevokeAPIKey(ctx, "k1", 9); err != nil {
		t.Fatalf("RevokeAPIKey: %v", err)
	}
	got, err = store.GetAPIKeyByHash(ctx, "hash1")
	if err != nil || got.RevokedAt == nil || *got.RevokedAt != 9 {
		t.Fatalf("expected revoked_at=9, got %v %+v", err, got)
	}
}
