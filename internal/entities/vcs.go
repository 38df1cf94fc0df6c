package entities

import (
	"context"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// WorktreeStatus enumerates the lifecycle of a Worktree row, validated
// at this layer rather than with a database CHECK constraint.
type WorktreeStatus string

const (
	WorktreeActive   WorktreeStatus = "active"
	WorktreeInUse    WorktreeStatus = "in_use"
	WorktreeArchived WorktreeStatus = "archived"
)

func validWorktreeStatus(s WorktreeStatus) bool {
	switch s {
	case WorktreeActive, WorktreeInUse, WorktreeArchived:
		return true
	default:
		return false
	}
}

// Repository is one tracked VCS repository root.
type Repository struct {
	ID        string
	ProjectID string
	RootPath  string
	RemoteURL *string
	CreatedAt int64
}

// Branch is one named branch within a Repository.
type Branch struct {
	ID           string
	RepositoryID string
	Name         string
	HeadCommit   *string
	CreatedAt    int64
}

// Worktree is one checked-out working copy of a Repository, optionally
// pinned to a Branch.
type Worktree struct {
	ID           string
	RepositoryID string
	Path         string
	BranchID     *string
	Status       WorktreeStatus
	CreatedAt    int64
}

// AgentWorktreeAssignment records an agent session's (possibly still
// open) claim on a Worktree.
type AgentWorktreeAssignment struct {
	ID         string
	WorktreeID string
	SessionID  string
	AssignedAt int64
	ReleasedAt *int64
}

// VCSRepository is the port over repositories, branches, worktrees, and
// agent_worktree_assignments.
type VCSRepository interface {
	CreateRepository(ctx context.Context, r Repository) error
	GetRepositoryByPath(ctx context.Context, projectID, rootPath string) (*Repository, error)

	CreateBranch(ctx context.Context, b Branch) error
	ListBranches(ctx context.Context, repositoryID string) ([]Branch, error)

	CreateWorktree(ctx context.Context, w Worktree) error
	SetWorktreeStatus(ctx context.Context, id string, status WorktreeStatus) error
	ListWorktrees(ctx context.Context, repositoryID string, status WorktreeStatus) ([]Worktree, error)

	AssignWorktree(ctx context.Context, a AgentWorktreeAssignment) error
	ReleaseWorktree(ctx context.Context, worktreeID, sessionID string, releasedAt int64) error
	ActiveAssignment(ctx context.Context, worktreeID string) (*AgentWorktreeAssignment, error)
}

// VCSStore is the SQLite-backed VCSRepository implementation.
type VCSStore struct {
	exec dbexec.Executor
}

// NewVCSStore builds a VCSStore over exec.
func NewVCSStore(exec dbexec.Executor) *VCSStore { return &VCSStore{exec: exec} }

var _ VCSRepository = (*VCSStore)(nil)

func (s *VCSStore) CreateRepository(ctx context.Context, r Repository) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO repositories (id, project_id, root_path, remote_url, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, root_path) DO NOTHING`,
		[]dbexec.Param{
			dbexec.String(r.ID), dbexec.String(r.ProjectID), dbexec.String(r.RootPath),
			nullableParam(r.RemoteURL), dbexec.Int64(r.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create repository", err)
	}
	return nil
}

func (s *VCSStore) GetRepositoryByPath(ctx context.Context, projectID, rootPath string) (*Repository, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM repositories WHERE project_id = ? AND root_path = ?",
		[]dbexec.Param{dbexec.String(projectID), dbexec.String(rootPath)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get repository by path", err)
	}
	if row == nil {
		return nil, nil
	}
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	remoteURL, err := optString(row, "remote_url")
	if err != nil {
		return nil, err
	}
	createdAt, _, err := row.TryGetInt64("created_at")
	if err != nil {
		return nil, err
	}
	return &Repository{ID: id, ProjectID: projectID, RootPath: rootPath, RemoteURL: remoteURL, CreatedAt: createdAt}, nil
}

func (s *VCSStore) CreateBranch(ctx context.Context, b Branch) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO branches (id, repository_id, name, head_commit, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repository_id, name) DO UPDATE SET head_commit = excluded.head_commit`,
		[]dbexec.Param{
			dbexec.String(b.ID), dbexec.String(b.RepositoryID), dbexec.String(b.Name),
			nullableParam(b.HeadCommit), dbexec.Int64(b.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create branch", err)
	}
	return nil
}

func (s *VCSStore) ListBranches(ctx context.Context, repositoryID string) ([]Branch, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM branches WHERE repository_id = ? ORDER BY name ASC",
		[]dbexec.Param{dbexec.String(repositoryID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list branches", err)
	}
	out := make([]Branch, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		repoID, _, err := row.TryGetString("repository_id")
		if err != nil {
			return nil, err
		}
		name, _, err := row.TryGetString("name")
		if err != nil {
			return nil, err
		}
		headCommit, err := optString(row, "head_commit")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, Branch{ID: id, RepositoryID: repoID, Name: name, HeadCommit: headCommit, CreatedAt: createdAt})
	}
	return out, nil
}

func (s *VCSStore) CreateWorktree(ctx context.Context, w Worktree) error {
	if !validWorktreeStatus(w.Status) {
		return mcberrors.InvalidParams("invalid worktree status " + string(w.Status))
	}
	_, err := s.exec.Execute(ctx, `
		INSERT INTO worktrees (id, repository_id, path, branch_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(w.ID), dbexec.String(w.RepositoryID), dbexec.String(w.Path),
			nullableParam(w.BranchID), dbexec.String(string(w.Status)), dbexec.Int64(w.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create worktree", err)
	}
	return nil
}

func (s *VCSStore) SetWorktreeStatus(ctx context.Context, id string, status WorktreeStatus) error {
	if !validWorktreeStatus(status) {
		return mcberrors.InvalidParams("invalid worktree status " + string(status))
	}
	_, err := s.exec.Execute(ctx, "UPDATE worktrees SET status = ? WHERE id = ?",
		[]dbexec.Param{dbexec.String(string(status)), dbexec.String(id)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "set worktree status", err)
	}
	return nil
}

func (s *VCSStore) ListWorktrees(ctx context.Context, repositoryID string, status WorktreeStatus) ([]Worktree, error) {
	query := "SELECT * FROM worktrees WHERE repository_id = ?"
	params := []dbexec.Param{dbexec.String(repositoryID)}
	if status != "" {
		query += " AND status = ?"
		params = append(params, dbexec.String(string(status)))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.exec.QueryAll(ctx, query, params)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list worktrees", err)
	}
	out := make([]Worktree, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		repoID, _, err := row.TryGetString("repository_id")
		if err != nil {
			return nil, err
		}
		path, _, err := row.TryGetString("path")
		if err != nil {
			return nil, err
		}
		branchID, err := optString(row, "branch_id")
		if err != nil {
			return nil, err
		}
		statusCol, _, err := row.TryGetString("status")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, Worktree{
			ID: id, RepositoryID: repoID, Path: path, BranchID: branchID,
			Status: WorktreeStatus(statusCol), CreatedAt: createdAt,
		})
	}
	return out, nil
}

func (s *VCSStore) AssignWorktree(ctx context.Context, a AgentWorktreeAssignment) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO agent_worktree_assignments (id, worktree_id, session_id, assigned_at, released_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(a.ID), dbexec.String(a.WorktreeID), dbexec.String(a.SessionID),
			dbexec.Int64(a.AssignedAt), nullableInt(a.ReleasedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "assign worktree", err)
	}
	return s.SetWorktreeStatus(ctx, a.WorktreeID, WorktreeInUse)
}

func (s *VCSStore) ReleaseWorktree(ctx context.Context, worktreeID, sessionID string, releasedAt int64) error {
	_, err := s.exec.Execute(ctx, `
		UPDATE agent_worktree_assignments SET released_at = ?
		WHERE worktree_id = ? AND session_id = ? AND released_at IS NULL`,
		[]dbexec.Param{dbexec.Int64(releasedAt), dbexec.String(worktreeID), dbexec.String(sessionID)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "release worktree", err)
	}
	return s.SetWorktreeStatus(ctx, worktreeID, WorktreeActive)
}

func (s *VCSStore) ActiveAssignment(ctx context.Context, worktreeID string) (*AgentWorktreeAssignment, error) {
	row, err := s.exec.QueryOne(ctx,
		"SELECT * FROM agent_worktree_assignments WHERE worktree_id = ? AND released_at IS NULL",
		[]dbexec.Param{dbexec.String(worktreeID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get active worktree assignment", err)
	}
	if row == nil {
		return nil, nil
	}
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	sessionID, _, err := row.TryGetString("session_id")
	if err != nil {
		return nil, err
	}
	assignedAt, _, err := row.TryGetInt64("assigned_at")
	if err != nil {
		return nil, err
	}
	releasedAt, err := optInt64(row, "released_at")
	if err != nil {
		return nil, err
	}
	return &AgentWorktreeAssignment{
		ID: id, WorktreeID: worktreeID, SessionID: sessionID, AssignedAt: assignedAt, ReleasedAt: releasedAt,
	}, nil
}
