package indexing

import (
	"os"
	"path/filepath"
)

// ProjectDetector identifies ecosystems present at a directory. The
// default implementation looks for marker files; callers may supply
// their own to add ecosystems the default doesn't know about.
type ProjectDetector interface {
	DetectAll(path string) []ProjectType
}

// markerDetector is the default ProjectDetector: one marker file per
// ecosystem, checked independently so a polyglot directory (e.g. a Go
// service with a Python tooling script) reports every match.
type markerDetector struct{}

// NewDefaultDetector builds the marker-file-based ProjectDetector.
func NewDefaultDetector() ProjectDetector { return markerDetector{} }

var projectMarkers = []struct {
	file string
	typ  ProjectType
}{
	{"go.mod", ProjectGo},
	{"Cargo.toml", ProjectRust},
	{"package.json", ProjectNode},
	{"pyproject.toml", ProjectPython},
	{"requirements.txt", ProjectPython},
	{"setup.py", ProjectPython},
	{"pom.xml", ProjectMaven},
	{"build.gradle", ProjectMaven},
}

func (markerDetector) DetectAll(path string) []ProjectType {
	var found []ProjectType
	seen := make(map[ProjectType]bool)
	for _, m := range projectMarkers {
		if seen[m.typ] {
			continue
		}
		if _, err := os.Stat(filepath.Join(path, m.file)); err == nil {
			found = append(found, m.typ)
			seen[m.typ] = true
		}
	}
	return found
}
