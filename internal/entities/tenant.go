package entities

import (
	"context"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// Organization is the top-level tenancy root.
type Organization struct {
	ID        string
	Name      string
	CreatedAt int64
}

// User belongs to exactly one Organization.
type User struct {
	ID          string
	OrgID       string
	Email       string
	DisplayName string
	CreatedAt   int64
}

// Team groups Users within an Organization.
type Team struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt int64
}

// TeamMember links a User to a Team with a role.
type TeamMember struct {
	ID        string
	TeamID    string
	UserID    string
	Role      string
	CreatedAt int64
}

// APIKey is a hashed credential scoped to an Organization and
// optionally a single User; RevokedAt set marks it unusable.
type APIKey struct {
	ID        string
	OrgID     string
	UserID    *string
	KeyHash   string
	Name      string
	CreatedAt int64
	RevokedAt *int64
}

// TenantRepository is the port over organizations, users, teams,
// team_members, and api_keys.
type TenantRepository interface {
	CreateOrganization(ctx context.Context, o Organization) error
	GetOrganization(ctx context.Context, id string) (*Organization, error)

	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, orgID, email string) (*User, error)

	CreateTeam(ctx context.Context, t Team) error
	AddTeamMember(ctx context.Context, m TeamMember) error
	ListTeamMembers(ctx context.Context, teamID string) ([]TeamMember, error)

	CreateAPIKey(ctx context.Context, k APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*APIKey, error)
	RevokeAPIKey(ctx context.Context, id string, revokedAt int64) error
}

// TenantStore is the SQLite-backed TenantRepository implementation.
type TenantStore struct {
	exec dbexec.Executor
}

// NewTenantStore builds a TenantStore over exec.
func NewTenantStore(exec dbexec.Executor) *TenantStore { return &TenantStore{exec: exec} }

var _ TenantRepository = (*TenantStore)(nil)

func (s *TenantStore) CreateOrganization(ctx context.Context, o Organization) error {
	_, err := s.exec.Execute(ctx,
		"INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING",
		[]dbexec.Param{dbexec.String(o.ID), dbexec.String(o.Name), dbexec.Int64(o.CreatedAt)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create organization", err)
	}
	return nil
}

func (s *TenantStore) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM organizations WHERE id = ?", []dbexec.Param{dbexec.String(id)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get organization", err)
	}
	if row == nil {
		return nil, nil
	}
	name, _, err := row.TryGetString("name")
	if err != nil {
		return nil, err
	}
	createdAt, _, err := row.TryGetInt64("created_at")
	if err != nil {
		return nil, err
	}
	return &Organization{ID: id, Name: name, CreatedAt: createdAt}, nil
}

func (s *TenantStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO users (id, org_id, email, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(u.ID), dbexec.String(u.OrgID), dbexec.String(u.Email),
			dbexec.String(u.DisplayName), dbexec.Int64(u.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create user", err)
	}
	return nil
}

func (s *TenantStore) GetUserByEmail(ctx context.Context, orgID, email string) (*User, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM users WHERE org_id = ? AND email = ?",
		[]dbexec.Param{dbexec.String(orgID), dbexec.String(email)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get user by email", err)
	}
	if row == nil {
		return nil, nil
	}
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	displayName, _, err := row.TryGetString("display_name")
	if err != nil {
		return nil, err
	}
	createdAt, _, err := row.TryGetInt64("created_at")
	if err != nil {
		return nil, err
	}
	return &User{ID: id, OrgID: orgID, Email: email, DisplayName: displayName, CreatedAt: createdAt}, nil
}

func (s *TenantStore) CreateTeam(ctx context.Context, t Team) error {
	_, err := s.exec.Execute(ctx, "INSERT INTO teams (id, org_id, name, created_at) VALUES (?, ?, ?, ?)",
		[]dbexec.Param{dbexec.String(t.ID), dbexec.String(t.OrgID), dbexec.String(t.Name), dbexec.Int64(t.CreatedAt)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create team", err)
	}
	return nil
}

func (s *TenantStore) AddTeamMember(ctx context.Context, m TeamMember) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO team_members (id, team_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(team_id, user_id) DO UPDATE SET role = excluded.role`,
		[]dbexec.Param{
			dbexec.String(m.ID), dbexec.String(m.TeamID), dbexec.String(m.UserID),
			dbexec.String(m.Role), dbexec.Int64(m.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "add team member", err)
	}
	return nil
}

func (s *TenantStore) ListTeamMembers(ctx context.Context, teamID string) ([]TeamMember, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM team_members WHERE team_id = ? ORDER BY created_at ASC",
		[]dbexec.Param{dbexec.String(teamID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list team members", err)
	}
	out := make([]TeamMember, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		userID, _, err := row.TryGetString("user_id")
		if err != nil {
			return nil, err
		}
		role, _, err := row.TryGetString("role")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, TeamMember{ID: id, TeamID: teamID, UserID: userID, Role: role, CreatedAt: createdAt})
	}
	return out, nil
}

func (s *TenantStore) CreateAPIKey(ctx context.Context, k APIKey) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO api_keys (id, org_id, user_id, key_hash, name, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(k.ID), dbexec.String(k.OrgID), nullableParam(k.UserID), dbexec.String(k.KeyHash),
			dbexec.String(k.Name), dbexec.Int64(k.CreatedAt), nullableInt(k.RevokedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create api key", err)
	}
	return nil
}

func (s *TenantStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*APIKey, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM api_keys WHERE key_hash = ?", []dbexec.Param{dbexec.String(keyHash)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get api key by hash", err)
	}
	if row == nil {
		return nil, nil
	}
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	orgID, _, err := row.TryGetString("org_id")
	if err != nil {
		return nil, err
	}
	userID, err := optString(row, "user_id")
	if err != nil {
		return nil, err
	}
	name, _, err := row.TryGetString("name")
	if err != nil {
		return nil, err
	}
	createdAt, _, err := row.TryGetInt64("created_at")
	if err != nil {
		return nil, err
	}
	revokedAt, err := optInt64(row, "revoked_at")
	if err != nil {
		return nil, err
	}
	return &APIKey{
		ID: id, OrgID: orgID, UserID: userID, KeyHash: keyHash, Name: name,
		CreatedAt: createdAt, RevokedAt: revokedAt,
	}, nil
}

func (s *TenantStore) RevokeAPIKey(ctx context.Context, id string, revokedAt int64) error {
	_, err := s.exec.Execute(ctx, "UPDATE api_keys SET revoked_at = ? WHERE id = ?",
		[]dbexec.Param{dbexec.Int64(revokedAt), dbexec.String(id)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "revoke api key", err)
	}
	return nil
}
