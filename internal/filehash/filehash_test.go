package filehash

import (
	"context"
	"testing"
	"time"

	"github.com/marlonsc/mcb/internal/dbexec"
)

// fakeRow and fakeExecutor provide a minimal in-memory dbexec.Executor
// sufficient to exercise Store's upsert/tombstone/cleanup logic without
// a real SQLite connection, matching the original's in-memory-pool test
// style with a Go fake instead of an in-memory driver.
type fakeRecord struct {
	projectID, collection, filePath, contentHash string
	indexedAt                                    int64
	deletedAt                                    *int64
}

type fakeExecutor struct {
	records []*fakeRecord
	now     int64
}

func newFakeExecutor() *fakeExecutor { return &fakeExecutor{now: 1000} }

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
	case containsAll(query, "INSERT INTO file_hashes"):
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		filePath := params[2].Value().(string)
		hash := params[3].Value().(string)
		indexedAt := params[4].Value().(int64)
		if r := f.find(projectID, collection, filePath); r != nil {
			r.contentHash = hash
			r.indexedAt = indexedAt
			r.deletedAt = nil
			return 1, nil
		}
		f.records = append(f.records, &fakeRecord{
			projectID: projectID, collection: collection, filePath: filePath,
			contentHash: hash, indexedAt: indexedAt,
		})
		return 1, nil

	case containsAll(query, "UPDATE file_hashes SET deleted_at"):
		deletedAt := params[0].Value().(int64)
		projectID := params[1].Value().(string)
		collection := params[2].Value().(string)
		filePath := params[3].Value().(string)
		if r := f.find(projectID, collection, filePath); r != nil {
			d := deletedAt
			r.deletedAt = &d
			return 1, nil
		}
		return 0, nil

	case containsAll(query, "DELETE FROM file_hashes WHERE deleted_at IS NOT NULL"):
		cutoff := params[0].Value().(int64)
		var kept []*fakeRecord
		var removed int64
		for _, r := range f.records {
			if r.deletedAt != nil && *r.deletedAt < cutoff {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		f.records = kept
		return removed, nil

	case containsAll(query, "DELETE FROM file_hashes WHERE project_id"):
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		var kept []*fakeRecord
		var removed int64
		for _, r := range f.records {
			if r.projectID == projectID && r.collection == collection {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		f.records = kept
		return removed, nil
	}
	return 0, nil
}

func (f *fakeExecutor) QueryOne(ctx context.Context, query string, params []dbexec.Param) (dbexec.Row, error) {
	switch {
	case containsAll(query, "SELECT content_hash FROM file_hashes"):
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		filePath := params[2].Value().(string)
		r := f.find(projectID, collection, filePath)
		if r == nil || r.deletedAt != nil {
			return nil, nil
		}
		return &fakeRow{"content_hash": r.contentHash}, nil

	case containsAll(query, "SELECT COUNT(*) AS n"):
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		var n int64
		for _, r := range f.records {
			if r.projectID == projectID && r.collection == collection && r.deletedAt != nil {
				n++
			}
		}
		return &fakeRow{"n": n}, nil
	}
	return nil, nil
}

func (f *fakeExecutor) QueryAll(ctx context.Context, query string, params []dbexec.Param) ([]dbexec.Row, error) {
	if containsAll(query, "SELECT file_path FROM file_hashes") {
		projectID := params[0].Value().(string)
		collection := params[1].Value().(string)
		var rows []dbexec.Row
		for _, r := range f.records {
			if r.projectID == projectID && r.collection == collection && r.deletedAt == nil {
				rows = append(rows, &fakeRow{"file_path": r.filePath})
			}
		}
		return rows, nil
	}
	return nil, nil
}

func (f *fakeExecutor) ApplyDDL(ctx context.Context, statements []string) error { return nil }
func (f *fakeExecutor) Close() error                                           { return nil }

type fakeRow map[string]any

func (r *fakeRow) TryGetString(column string) (string, bool, error) {
	v, ok := (*r)[column]
	if !ok || v == nil {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (r *fakeRow) TryGetInt64(column string) (int64, bool, error) {
	v, ok := (*r)[column]
	if !ok || v == nil {
		return 0, false, nil
	}
	return v.(int64), true, nil
}

func (r *fakeRow) TryGetFloat64(column string) (float64, bool, error) {
	v, ok := (*r)[column]
	if !ok || v == nil {
		return 0, false, nil
	}
	return v.(float64), true, nil
}

func containsAll(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func newStore() (*Store, *fakeExecutor) {
	exec := newFakeExecutor()
	s := New(exec, nil)
	s.now = func() time.Time { return time.Unix(exec.now, 0) }
	return s, exec
}

func TestUpsertAndGetHash(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()

	if err := s.UpsertHash(ctx, "proj", "test-col", "src/main.go", "abc123"); err != nil {
		t.Fatalf("UpsertHash: %v", err)
	}

	hash, ok, err := s.GetHash(ctx, "proj", "test-col", "src/main.go")
	if err != nil {
		t.Fatalf("GetHash: %v", err)
	}
	if !ok || hash != "abc123" {
		t.Errorf("GetHash = (%q, %v), want (\"abc123\", true)", hash, ok)
	}
}

func TestHasChanged(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()

	changed, err := s.HasChanged(ctx, "proj", "test", "new.go", "hash1")
	if err != nil || !changed {
		t.Fatalf("new file should report changed=true, got %v, err=%v", changed, err)
	}

	if err := s.UpsertHash(ctx, "proj", "test", "new.go", "hash1"); err != nil {
		t.Fatalf("UpsertHash: %v", err)
	}

	if changed, err := s.HasChanged(ctx, "proj", "test", "new.go", "hash1"); err != nil || changed {
		t.Errorf("same hash should report changed=false, got %v, err=%v", changed, err)
	}

	if changed, err := s.HasChanged(ctx, "proj", "test", "new.go", "hash2"); err != nil || !changed {
		t.Errorf("different hash should report changed=true, got %v, err=%v", changed, err)
	}
}

func TestTombstoneAndResurrect(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()

	if err := s.UpsertHash(ctx, "proj", "test", "file.go", "hash1"); err != nil {
		t.Fatalf("UpsertHash: %v", err)
	}
	if err := s.MarkDeleted(ctx, "proj", "test", "file.go"); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}

	if _, ok, _ := s.GetHash(ctx, "proj", "test", "file.go"); ok {
		t.Error("tombstoned file should not be found")
	}

	if err := s.UpsertHash(ctx, "proj", "test", "file.go", "hash2"); err != nil {
		t.Fatalf("UpsertHash (resurrect): %v", err)
	}

	hash, ok, err := s.GetHash(ctx, "proj", "test", "file.go")
	if err != nil || !ok || hash != "hash2" {
		t.Errorf("resurrected file = (%q, %v), want (\"hash2\", true); err=%v", hash, ok, err)
	}
}

func TestIndexedFilesExcludesTombstones(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore()

	for _, path := range []string{"a.go", "b.go", "c.go"} {
		if err := s.UpsertHash(ctx, "proj", "col", path, "h"); err != nil {
			t.Fatalf("UpsertHash(%s): %v", path, err)
		}
	}
	if err := s.MarkDeleted(ctx, "proj", "col", "b.go"); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}

	files, err := s.IndexedFiles(ctx, "proj", "col")
	if err != nil {
		t.Fatalf("IndexedFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("IndexedFiles returned %d files, want 2: %v", len(files), files)
	}
	for _, f := range files {
		if f == "b.go" {
			t.Error("tombstoned file b.go should be excluded")
		}
	}
}

func TestCleanupTombstonesRespectsTTL(t *testing.T) {
	ctx := context.Background()
	s, exec := newStore()

	if err := s.UpsertHash(ctx, "proj", "col", "old.go", "h"); err != nil {
		t.Fatalf("UpsertHash: %v", err)
	}
	if err := s.MarkDeleted(ctx, "proj", "col", "old.go"); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}

	// Not yet past TTL.
	n, err := s.CleanupTombstones(ctx, DefaultTombstoneTTL)
	if err != nil {
		t.Fatalf("CleanupTombstones: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 tombstones cleaned before TTL elapses, got %d", n)
	}

	exec.now += int64(DefaultTombstoneTTL.Seconds()) + 1
	n, err = s.CleanupTombstones(ctx, DefaultTombstoneTTL)
	if err != nil {
		t.Fatalf("CleanupTombstones: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 tombstone cleaned after TTL elapses, got %d", n)
	}
}
