package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marlonsc/mcb/internal/indexing"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// ===== repository.index_repository =====

type RepositoryIndexInput struct {
	ProjectID      string `json:"project_id" jsonschema:"required,Project identifier"`
	RepoPath       string `json:"repo_path" jsonschema:"required,Absolute path to the repository's working copy"`
	Collection     string `json:"collection,omitempty" jsonschema:"Vector store collection override; derived from repo_path when omitted"`
	SubmoduleDepth *int   `json:"submodule_depth,omitempty" jsonschema:"Maximum submodule recursion depth; 0 disables it"`
	DetectProjects *bool  `json:"detect_projects,omitempty" jsonschema:"Detect ecosystem marker files at root and every visited submodule"`
	Incremental    *bool  `json:"incremental,omitempty" jsonschema:"Skip unchanged files by content hash and tombstone files that vanished"`
}

type RepositorySubmoduleOutput struct {
	Path         string   `json:"path"`
	Collection   string   `json:"collection"`
	FilesIndexed int      `json:"files_indexed"`
	FilesSkipped int      `json:"files_skipped"`
	Projects     []string `json:"projects,omitempty"`
}

type RepositoryIndexOutput struct {
	Collection   string                      `json:"collection"`
	FilesIndexed int                         `json:"files_indexed"`
	FilesSkipped int                         `json:"files_skipped"`
	Submodules   []RepositorySubmoduleOutput `json:"submodules,omitempty"`
	Projects     []string                    `json:"projects,omitempty"`
	DurationMS   int64                       `json:"duration_ms"`
}

// IndexRepository walks in.RepoPath and indexes it per in's overrides
// of indexing.DefaultOptions, matching internal/indexing.Service's
// walk + hash-diff + submodule-recursion pipeline.
func (t *Tools) IndexRepository(ctx context.Context, in RepositoryIndexInput) (RepositoryIndexOutput, error) {
	if in.ProjectID == "" || in.RepoPath == "" {
		return RepositoryIndexOutput{}, mcberrors.InvalidParams("project_id and repo_path are required")
	}
	if t.indexer == nil {
		return RepositoryIndexOutput{}, mcberrors.New(mcberrors.KindInternal, "indexing is not configured for this server")
	}

	opts := indexing.DefaultOptions()
	opts.Collection = in.Collection
	if in.SubmoduleDepth != nil {
		opts.SubmoduleDepth = *in.SubmoduleDepth
	}
	if in.DetectProjects != nil {
		opts.DetectProjects = *in.DetectProjects
	}
	if in.Incremental != nil {
		opts.Incremental = *in.Incremental
	}

	result, err := t.indexer.IndexRepository(ctx, in.ProjectID, in.RepoPath, opts)
	if err != nil {
		return RepositoryIndexOutput{}, err
	}
	return repositoryIndexOutputFrom(result), nil
}

func repositoryIndexOutputFrom(result *indexing.Result) RepositoryIndexOutput {
	out := RepositoryIndexOutput{
		Collection:   result.Collection,
		FilesIndexed: result.FilesIndexed,
		FilesSkipped: result.FilesSkipped,
		DurationMS:   result.DurationMS,
	}
	for _, p := range result.Projects {
		out.Projects = append(out.Projects, string(p.ProjectType))
	}
	for _, sub := range result.Submodules {
		subOut := RepositorySubmoduleOutput{
			Path:         sub.Path,
			Collection:   sub.Collection,
			FilesIndexed: sub.FilesIndexed,
			FilesSkipped: sub.FilesSkipped,
		}
		for _, pt := range sub.Projects {
			subOut.Projects = append(subOut.Projects, string(pt))
		}
		out.Submodules = append(out.Submodules, subOut)
	}
	return out
}

func (t *Tools) registerIndexingTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "repository_index",
		Description: "Walk a repository, chunk and embed changed files, and record them in the vector store and memory repository; recurses into submodules and tombstones deleted files when incremental.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RepositoryIndexInput) (*mcp.CallToolResult, RepositoryIndexOutput, error) {
		out, err := t.IndexRepository(ctx, args)
		return nil, out, err
	})
}
