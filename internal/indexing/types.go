// Package indexing implements the incremental indexing service: it
// walks a repository's file tree, skips generated/vendor directories,
// detects changed files by content hash, recurses into git submodules
// up to a bounded depth with hierarchical collection naming, and
// tombstones files that vanished between runs. The project-specific
// chunking/embedding pathway is delegated to a FileIndexer collaborator.
package indexing

// ProjectType names a detected ecosystem/build-tool at some path
// within the indexed tree.
type ProjectType string

const (
	ProjectGo     ProjectType = "go"
	ProjectRust   ProjectType = "rust"
	ProjectNode   ProjectType = "node"
	ProjectPython ProjectType = "python"
	ProjectMaven  ProjectType = "maven"
)

// defaultSkipDirs are always skipped during a walk, regardless of
// .gitignore content — generated code, dependency trees, and VCS
// metadata that is never worth indexing.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"build":        true,
	"dist":         true,
	".idea":        true,
	".vscode":      true,
}

// DefaultSubmoduleDepth matches the original's automatic-detection
// default: submodules are always indexed when present, bounded by depth.
const DefaultSubmoduleDepth = 2

// Options configures one index_repository invocation.
type Options struct {
	// Collection overrides the derived collection name entirely.
	Collection string
	// SubmoduleDepth bounds submodule recursion; 0 disables it.
	SubmoduleDepth int
	// DetectProjects runs the project type detector over root and
	// every visited submodule.
	DetectProjects bool
	// Incremental enables hash-diff skip + tombstone sweep. When
	// false every file is re-indexed unconditionally.
	Incremental bool
}

// DefaultOptions mirrors the original's GitIndexingOptions::default().
func DefaultOptions() Options {
	return Options{
		SubmoduleDepth: DefaultSubmoduleDepth,
		DetectProjects: true,
		Incremental:    true,
	}
}

// DetectedProject is one project-type hit at a path within the indexed tree.
type DetectedProject struct {
	Path            string
	ProjectType     ProjectType
	ParentRepoID    string
	HasParentRepoID bool
}

// SubmoduleResult summarizes indexing one submodule.
type SubmoduleResult struct {
	Path         string
	Collection   string
	FilesIndexed int
	FilesSkipped int
	Projects     []ProjectType
}

// Result summarizes a full index_repository run.
type Result struct {
	Collection   string
	FilesIndexed int
	FilesSkipped int
	Submodules   []SubmoduleResult
	Projects     []DetectedProject
	DurationMS   int64
}
