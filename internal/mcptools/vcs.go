package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// ===== vcs_entity.repository_register / branch_register =====

type RepositoryRegisterInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project identifier"`
	RootPath  string `json:"root_path" jsonschema:"required,Absolute path to the repository's working copy"`
	RemoteURL string `json:"remote_url,omitempty" jsonschema:"Remote URL, if known"`
}

type RepositoryRegisterOutput struct {
	ID string `json:"id"`
}

func (t *Tools) RegisterRepository(ctx context.Context, in RepositoryRegisterInput) (RepositoryRegisterOutput, error) {
	if in.ProjectID == "" || in.RootPath == "" {
		return RepositoryRegisterOutput{}, mcberrors.InvalidParams("project_id and root_path are required")
	}
	repo := entities.Repository{
		ID:        newID("repo"),
		ProjectID: in.ProjectID,
		RootPath:  in.RootPath,
		RemoteURL: optStringIfSet(in.RemoteURL),
		CreatedAt: t.nowUnix(),
	}
	if err := t.vcs.CreateRepository(ctx, repo); err != nil {
		return RepositoryRegisterOutput{}, err
	}

	existing, err := t.vcs.GetRepositoryByPath(ctx, in.ProjectID, in.RootPath)
	if err != nil {
		return RepositoryRegisterOutput{}, err
	}
	if existing != nil {
		return RepositoryRegisterOutput{ID: existing.ID}, nil
	}
	return RepositoryRegisterOutput{ID: repo.ID}, nil
}

type BranchRegisterInput struct {
	RepositoryID string `json:"repository_id" jsonschema:"required,Repository id"`
	Name         string `json:"name" jsonschema:"required,Branch name"`
	HeadCommit   string `json:"head_commit,omitempty" jsonschema:"Current head commit sha"`
}

type BranchRegisterOutput struct {
	ID string `json:"id"`
}

func (t *Tools) RegisterBranch(ctx context.Context, in BranchRegisterInput) (BranchRegisterOutput, error) {
	if in.RepositoryID == "" || in.Name == "" {
		return BranchRegisterOutput{}, mcberrors.InvalidParams("repository_id and name are required")
	}
	branch := entities.Branch{
		ID:           newID("branch"),
		RepositoryID: in.RepositoryID,
		Name:         in.Name,
		HeadCommit:   optStringIfSet(in.HeadCommit),
		CreatedAt:    t.nowUnix(),
	}
	if err := t.vcs.CreateBranch(ctx, branch); err != nil {
		return BranchRegisterOutput{}, err
	}
	return BranchRegisterOutput{ID: branch.ID}, nil
}

type BranchListInput struct {
	RepositoryID string `json:"repository_id" jsonschema:"required,Repository id"`
}

type BranchListOutput struct {
	Branches []entities.Branch `json:"branches"`
}

func (t *Tools) ListBranches(ctx context.Context, in BranchListInput) (BranchListOutput, error) {
	if in.RepositoryID == "" {
		return BranchListOutput{}, mcberrors.InvalidParams("repository_id is required")
	}
	branches, err := t.vcs.ListBranches(ctx, in.RepositoryID)
	if err != nil {
		return BranchListOutput{}, err
	}
	return BranchListOutput{Branches: branches}, nil
}

// ===== vcs_entity.worktree_create / worktree_assign / worktree_release =====

type WorktreeCreateInput struct {
	RepositoryID string `json:"repository_id" jsonschema:"required,Repository id"`
	Path         string `json:"path" jsonschema:"required,Absolute path to the worktree"`
	BranchID     string `json:"branch_id,omitempty" jsonschema:"Branch this worktree is checked out to"`
}

type WorktreeCreateOutput struct {
	ID string `json:"id"`
}

func (t *Tools) CreateWorktree(ctx context.Context, in WorktreeCreateInput) (WorktreeCreateOutput, error) {
	if in.RepositoryID == "" || in.Path == "" {
		return WorktreeCreateOutput{}, mcberrors.InvalidParams("repository_id and path are required")
	}
	wt := entities.Worktree{
		ID:           newID("wt"),
		RepositoryID: in.RepositoryID,
		Path:         in.Path,
		BranchID:     optStringIfSet(in.BranchID),
		Status:       entities.WorktreeActive,
		CreatedAt:    t.nowUnix(),
	}
	if err := t.vcs.CreateWorktree(ctx, wt); err != nil {
		return WorktreeCreateOutput{}, err
	}
	return WorktreeCreateOutput{ID: wt.ID}, nil
}

type WorktreeListInput struct {
	RepositoryID string `json:"repository_id" jsonschema:"required,Repository id"`
	Status       string `json:"status,omitempty" jsonschema:"Filter by status (active, in_use, archived)"`
}

type WorktreeListOutput struct {
	Worktrees []entities.Worktree `json:"worktrees"`
}

func (t *Tools) ListWorktrees(ctx context.Context, in WorktreeListInput) (WorktreeListOutput, error) {
	if in.RepositoryID == "" {
		return WorktreeListOutput{}, mcberrors.InvalidParams("repository_id is required")
	}
	worktrees, err := t.vcs.ListWorktrees(ctx, in.RepositoryID, entities.WorktreeStatus(in.Status))
	if err != nil {
		return WorktreeListOutput{}, err
	}
	return WorktreeListOutput{Worktrees: worktrees}, nil
}

type WorktreeAssignInput struct {
	WorktreeID string `json:"worktree_id" jsonschema:"required,Worktree id"`
	SessionID  string `json:"session_id" jsonschema:"required,Session claiming this worktree"`
}

type WorktreeAssignOutput struct {
	ID string `json:"id"`
}

// AssignWorktree hands a worktree to a session and flips its status to
// in_use, matching entities.VCSStore.AssignWorktree's single-call
// invariant (create the assignment row, then the status transition).
func (t *Tools) AssignWorktree(ctx context.Context, in WorktreeAssignInput) (WorktreeAssignOutput, error) {
	if in.WorktreeID == "" || in.SessionID == "" {
		return WorktreeAssignOutput{}, mcberrors.InvalidParams("worktree_id and session_id are required")
	}
	assignment := entities.AgentWorktreeAssignment{
		ID:         newID("wta"),
		WorktreeID: in.WorktreeID,
		SessionID:  in.SessionID,
		AssignedAt: t.nowUnix(),
	}
	if err := t.vcs.AssignWorktree(ctx, assignment); err != nil {
		return WorktreeAssignOutput{}, err
	}
	return WorktreeAssignOutput{ID: assignment.ID}, nil
}

type WorktreeReleaseInput struct {
	WorktreeID string `json:"worktree_id" jsonschema:"required,Worktree id"`
	SessionID  string `json:"session_id" jsonschema:"required,Session releasing this worktree"`
}

type WorktreeReleaseOutput struct {
	Released bool `json:"released"`
}

func (t *Tools) ReleaseWorktree(ctx context.Context, in WorktreeReleaseInput) (WorktreeReleaseOutput, error) {
	if in.WorktreeID == "" || in.SessionID == "" {
		return WorktreeReleaseOutput{}, mcberrors.InvalidParams("worktree_id and session_id are required")
	}
	if err := t.vcs.ReleaseWorktree(ctx, in.WorktreeID, in.SessionID, t.nowUnix()); err != nil {
		return WorktreeReleaseOutput{}, err
	}
	return WorktreeReleaseOutput{Released: true}, nil
}

func (t *Tools) registerVCSTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "vcs_entity_repository_register",
		Description: "Register (or find) a repository's root path for a project.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RepositoryRegisterInput) (*mcp.CallToolResult, RepositoryRegisterOutput, error) {
		out, err := t.RegisterRepository(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "vcs_entity_branch_register",
		Description: "Register a branch (or update its head commit) for a repository.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BranchRegisterInput) (*mcp.CallToolResult, BranchRegisterOutput, error) {
		out, err := t.RegisterBranch(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "vcs_entity_branches_list",
		Description: "List branches for a repository.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BranchListInput) (*mcp.CallToolResult, BranchListOutput, error) {
		out, err := t.ListBranches(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "vcs_entity_worktree_create",
		Description: "Create a worktree for a repository, initially active.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WorktreeCreateInput) (*mcp.CallToolResult, WorktreeCreateOutput, error) {
		out, err := t.CreateWorktree(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "vcs_entity_worktrees_list",
		Description: "List worktrees for a repository, optionally filtered by status.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WorktreeListInput) (*mcp.CallToolResult, WorktreeListOutput, error) {
		out, err := t.ListWorktrees(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "vcs_entity_worktree_assign",
		Description: "Assign a worktree to a session, marking it in_use.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WorktreeAssignInput) (*mcp.CallToolResult, WorktreeAssignOutput, error) {
		out, err := t.AssignWorktree(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "vcs_entity_worktree_release",
		Description: "Release a worktree held by a session, marking it active again.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WorktreeReleaseInput) (*mcp.CallToolResult, WorktreeReleaseOutput, error) {
		out, err := t.ReleaseWorktree(ctx, args)
		return nil, out, err
	})
}
