package indexing

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/filehash"
)

// fakeRow and fakeExecutor provide a minimal in-memory dbexec.Executor,
// just enough of file_hashes' query shapes for the walk/diff/tombstone
// logic under test, mirroring internal/filehash's own test fake.
type fakeRow struct{ values map[string]any }

func (r *fakeRow) TryGetString(col string) (string, bool, error) {
	v, ok := r.values[col]
	if !ok || v == nil {
		return "", false, nil
	}
	return v.(string), true, nil
}
func (r *fakeRow) TryGetInt64(col string) (int64, bool, error) {
	v, ok := r.values[col]
	if !ok || v == nil {
		return 0, false, nil
	}
	return v.(int64), true, nil
}
func (r *fakeRow) TryGetFloat64(col string) (float64, bool, error) { return 0, false, nil }

type fakeRecord struct {
	projectID, collection, filePath, contentHash string
	deleted                                      bool
}

type fakeExecutor struct {
	records []*fakeRecord
}

func newFakeExecutor() *fakeExecutor { return &fakeExecutor{} }

func (f *fakeExecutor) find(projectID, collection, filePath string) *fakeRecord {
	for _, r := range f.records {
		if r.projectID == projectID && r.collection == collection && r.filePath == filePath {
			return r
		}
	}
	return nil
}

func (f *fakeExecutor) Execute(ctx context.Context, query string, params []dbexec.Param) (int64, error) {
	switch {
	case contains(query, "INSERT INTO file_hashes"):
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		filePath := params[2].Value().(string)
		hash := params[3].Value().(string)
		if r := f.find(projectID, collection, filePath); r != nil {
			r.contentHash = hash
			r.deleted = false
			return 1, nil
		}
		f.records = append(f.records, &fakeRecord{projectID: projectID, collection: collection, filePath: filePath, contentHash: hash})
		return 1, nil
	case contains(query, "UPDATE file_hashes SET deleted_at"):
		projectID := params[1].Value().(string)
		collection := params[2].Value().(string)
		filePath := params[3].Value().(string)
		if r := f.find(projectID, collection, filePath); r != nil {
			r.deleted = true
			return 1, nil
		}
		return 0, nil
	}
	return 0, nil
}

func (f *fakeExecutor) QueryOne(ctx context.Context, query string, params []dbexec.Param) (dbexec.Row, error) {
	if contains(query, "SELECT content_hash FROM file_hashes") {
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		filePath := params[2].Value().(string)
		r := f.find(projectID, collection, filePath)
		if r == nil || r.deleted {
			return nil, nil
		}
		return &fakeRow{values: map[string]any{"content_hash": r.contentHash}}, nil
	}
	return nil, nil
}

func (f *fakeExecutor) QueryAll(ctx context.Context, query string, params []dbexec.Param) ([]dbexec.Row, error) {
	if contains(query, "SELECT file_path FROM file_hashes") {
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		var rows []dbexec.Row
		for _, r := range f.records {
			if r.projectID == projectID && r.collection == collection && !r.deleted {
				rows = append(rows, &fakeRow{values: map[string]any{"file_path": r.filePath}})
			}
		}
		return rows, nil
	}
	return nil, nil
}

func (f *fakeExecutor) ApplyDDL(ctx context.Context, statements []string) error { return nil }
func (f *fakeExecutor) Close() error                                           { return nil }

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}

// fakeIndexer records every relative path it was asked to index.
type fakeIndexer struct {
	indexed []string
	fail    map[string]bool
}

func (f *fakeIndexer) IndexFile(ctx context.Context, projectID, collection, relPath, absPath string) error {
	f.indexed = append(f.indexed, relPath)
	return nil
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestService(t *testing.T) (*Service, *fakeIndexer) {
	t.Helper()
	store := filehash.New(newFakeExecutor(), nil)
	indexer := &fakeIndexer{}
	return New(store, indexer, nil, nil, nil), indexer
}

func TestIndexRepositoryIndexesAllFilesOnFirstRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "sub/b.go", "package sub")
	writeFile(t, root, "node_modules/skip.js", "skip me")

	svc, indexer := newTestService(t)
	result, err := svc.IndexRepository(context.Background(), "proj-1", root, DefaultOptions())
	if err != nil {
		t.Fatalf("IndexRepository: %v", err)
	}
	if result.FilesIndexed != 2 {
		t.Fatalf("expected 2 files indexed, got %d (%+v)", result.FilesIndexed, indexer.indexed)
	}
	if result.FilesSkipped != 0 {
		t.Fatalf("expected 0 skipped, got %d", result.FilesSkipped)
	}
	sort.Strings(indexer.indexed)
	if len(indexer.indexed) != 2 || indexer.indexed[0] != "a.go" || indexer.indexed[1] != "sub/b.go" {
		t.Fatalf("unexpected indexed set: %+v", indexer.indexed)
	}
}

func TestIndexRepositorySkipsUnchangedFilesOnSecondRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")

	store := filehash.New(newFakeExecutor(), nil)
	indexer := &fakeIndexer{}
	svc := New(store, indexer, nil, nil, nil)

	if _, err := svc.IndexRepository(context.Background(), "proj-1", root, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	indexer.indexed = nil

	result, err := svc.IndexRepository(context.Background(), "proj-1", root, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 0 || result.FilesSkipped != 1 {
		t.Fatalf("expected unchanged file to be skipped, got indexed=%d skipped=%d", result.FilesIndexed, result.FilesSkipped)
	}
	if len(indexer.indexed) != 0 {
		t.Fatalf("expected no re-index calls, got %+v", indexer.indexed)
	}
}

func TestIndexRepositoryReindexesChangedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")

	store := filehash.New(newFakeExecutor(), nil)
	indexer := &fakeIndexer{}
	svc := New(store, indexer, nil, nil, nil)

	if _, err := svc.IndexRepository(context.Background(), "proj-1", root, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "a.go", "package a // changed")

	result, err := svc.IndexRepository(context.Background(), "proj-1", root, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 1 {
		t.Fatalf("expected changed file to be reindexed, got indexed=%d", result.FilesIndexed)
	}
}

func TestIndexRepositoryTombstonesDeletedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "b.go", "package b")

	exec := newFakeExecutor()
	store := filehash.New(exec, nil)
	indexer := &fakeIndexer{}
	svc := New(store, indexer, nil, nil, nil)

	if _, err := svc.IndexRepository(context.Background(), "proj-1", root, DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(root, "b.go")); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.IndexRepository(context.Background(), "proj-1", root, DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	files, err := store.IndexedFiles(context.Background(), "proj-1", deriveCollectionName(root))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if f == "b.go" {
			t.Fatalf("expected b.go to be tombstoned out of live indexed files, got %+v", files)
		}
	}
}

func TestIndexRepositoryFullModeSkipsHashDiffAlways(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")

	svc, indexer := newTestService(t)
	opts := DefaultOptions()
	opts.Incremental = false

	if _, err := svc.IndexRepository(context.Background(), "proj-1", root, opts); err != nil {
		t.Fatal(err)
	}
	indexer.indexed = nil

	result, err := svc.IndexRepository(context.Background(), "proj-1", root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesIndexed != 1 || result.FilesSkipped != 0 {
		t.Fatalf("full mode should always reindex with 0 skipped, got indexed=%d skipped=%d", result.FilesIndexed, result.FilesSkipped)
	}
}

func TestDeriveCollectionNameUsesLastPathComponent(t *testing.T) {
	if got := deriveCollectionName("/home/user/projects/my-repo"); got != "my-repo" {
		t.Fatalf("expected 'my-repo', got %q", got)
	}
}

func TestDetectAllFindsGoModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/x\n")

	detector := NewDefaultDetector()
	types := detector.DetectAll(root)
	if len(types) != 1 || types[0] != ProjectGo {
		t.Fatalf("expected [go], got %+v", types)
	}
}
