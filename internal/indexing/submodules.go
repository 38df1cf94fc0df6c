package indexing

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// SubmoduleInfo is one discovered submodule, relative to the repo
// that references it.
type SubmoduleInfo struct {
	Path string // slash-separated, relative to the root repo
	URL  string
}

// SubmoduleCollector discovers submodules under a repository up to a
// bounded depth. Implementations may be mocked in tests; the default
// uses go-git against the on-disk checkout.
type SubmoduleCollector interface {
	Collect(repoPath string, maxDepth int) ([]SubmoduleInfo, error)
}

// gitSubmoduleCollector walks go-git's submodule config recursively,
// matching the original's "submodules are always indexed when present"
// policy — depth is the only knob, there is no opt-in/opt-out flag.
type gitSubmoduleCollector struct{}

// NewGitSubmoduleCollector builds the go-git-backed SubmoduleCollector.
func NewGitSubmoduleCollector() SubmoduleCollector { return gitSubmoduleCollector{} }

func (gitSubmoduleCollector) Collect(repoPath string, maxDepth int) ([]SubmoduleInfo, error) {
	if maxDepth <= 0 {
		return nil, nil
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		// Not a git repository (or submodules unavailable): no error,
		// just nothing to collect.
		return nil, nil
	}
	return collectRecursive(repo, "", maxDepth)
}

func collectRecursive(repo *git.Repository, prefix string, depth int) ([]SubmoduleInfo, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	subs, err := wt.Submodules()
	if err != nil {
		return nil, fmt.Errorf("listing submodules: %w", err)
	}

	var out []SubmoduleInfo
	for _, sub := range subs {
		cfg := sub.Config()
		relPath := cfg.Path
		if prefix != "" {
			relPath = prefix + "/" + cfg.Path
		}
		out = append(out, SubmoduleInfo{Path: relPath, URL: cfg.URL})

		if depth <= 1 {
			continue
		}
		subRepo, err := sub.Repository()
		if err != nil {
			// Submodule not initialized on disk; nothing further to recurse into.
			continue
		}
		nested, err := collectRecursive(subRepo, relPath, depth-1)
		if err != nil {
			continue
		}
		out = append(out, nested...)
	}
	return out, nil
}

// hierarchicalCollectionName derives the nested collection name for a
// submodule, per spec: parent/relative-with-slashes-replaced-by-dashes.
func hierarchicalCollectionName(parent, submodulePath string) string {
	flattened := strings.ReplaceAll(submodulePath, "/", "-")
	return parent + "/" + flattened
}

func absSubmodulePath(repoPath, submodulePath string) string {
	return filepath.Join(repoPath, filepath.FromSlash(submodulePath))
}
