package indexing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonsc/mcb/internal/memory"
	"github.com/marlonsc/mcb/internal/vecstore"
)

type fakeRepo struct {
	stored []memory.Observation
}

func (f *fakeRepo) StoreObservation(ctx context.Context, obs memory.Observation) error {
	f.stored = append(f.stored, obs)
	return nil
}
func (f *fakeRepo) GetObservation(ctx context.Context, id string) (*memory.Observation, error) {
	return nil, nil
}
func (f *fakeRepo) FindByHash(ctx context.Context, hash string) (*memory.Observation, error) {
	return nil, nil
}
func (f *fakeRepo) GetObservationsByIDs(ctx context.Context, ids []string) ([]memory.Observation, error) {
	return nil, nil
}
func (f *fakeRepo) DeleteObservation(ctx context.Context, id string) error { return nil }
func (f *fakeRepo) SearchFTS(ctx context.Context, query string, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeRepo) SearchFTSRanked(ctx context.Context, query string, limit int) ([]memory.FtsResult, error) {
	return nil, nil
}
func (f *fakeRepo) SearchFiltered(ctx context.Context, filter memory.Filter, limit int) ([]memory.Observation, error) {
	return nil, nil
}
func (f *fakeRepo) GetTimeline(ctx context.Context, anchorID string, before, after int, filter *memory.Filter) ([]memory.Observation, error) {
	return nil, nil
}
func (f *fakeRepo) StoreSessionSummary(ctx context.Context, s memory.SessionSummary) error {
	return nil
}
func (f *fakeRepo) GetSessionSummary(ctx context.Context, sessionID string) (*memory.SessionSummary, error) {
	return nil, nil
}

var _ memory.Repository = (*fakeRepo)(nil)

type fakeVecStore struct {
	collections map[string]bool
	nextID      int
	inserted    map[string][]map[string]any
}

func newFakeVecStore() *fakeVecStore {
	return &fakeVecStore{collections: map[string]bool{}, inserted: map[string][]map[string]any{}}
}

func (v *fakeVecStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	return v.collections[name], nil
}
func (v *fakeVecStore) GetStats(ctx context.Context, collection string) (map[string]any, error) {
	return nil, nil
}
func (v *fakeVecStore) Flush(ctx context.Context, collection string) error { return nil }
func (v *fakeVecStore) ProviderName() string                              { return "fake" }
func (v *fakeVecStore) CreateCollection(ctx context.Context, name string, dimensions int) error {
	v.collections[name] = true
	return nil
}
func (v *fakeVecStore) DeleteCollection(ctx context.Context, name string) error { return nil }
func (v *fakeVecStore) InsertVectors(ctx context.Context, collection string, embeddings [][]float32, metadata []map[string]any) ([]string, error) {
	ids := make([]string, len(embeddings))
	for i := range embeddings {
		v.nextID++
		ids[i] = fmt.Sprintf("vec-%d", v.nextID)
		v.inserted[collection] = append(v.inserted[collection], metadata[i])
	}
	return ids, nil
}
func (v *fakeVecStore) SearchSimilar(ctx context.Context, collection string, queryVec []float32, limit int, filterExpr string) ([]vecstore.SearchResult, error) {
	return nil, nil
}
func (v *fakeVecStore) DeleteVectors(ctx context.Context, collection string, ids []string) error {
	return nil
}
func (v *fakeVecStore) GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]vecstore.SearchResult, error) {
	return nil, nil
}
func (v *fakeVecStore) ListVectors(ctx context.Context, collection string, limit int) ([]vecstore.SearchResult, error) {
	return nil, nil
}
func (v *fakeVecStore) ListCollections(ctx context.Context) ([]vecstore.CollectionInfo, error) {
	return nil, nil
}
func (v *fakeVecStore) ListFilePaths(ctx context.Context, collection string, limit int) ([]vecstore.FileInfo, error) {
	return nil, nil
}
func (v *fakeVecStore) GetChunksByFile(ctx context.Context, collection, filePath string) ([]vecstore.SearchResult, error) {
	return nil, nil
}

var _ vecstore.Store = (*fakeVecStore)(nil)

type fakeDocEmbedder struct {
	dim int
	err error
}

func (e *fakeDocEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

func TestIndexFileSkipsWhenEmbedderNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o600))

	repo := &fakeRepo{}
	store := newFakeVecStore()
	indexer := NewVectorFileIndexer(repo, store, nil, nil)

	err := indexer.IndexFile(context.Background(), "proj", "col", "main.go", path)
	require.NoError(t, err)
	assert.Empty(t, repo.stored)
}

func TestIndexFileChunksEmbedsAndStoresObservations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	content := "package main\n\nfunc main() {}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	repo := &fakeRepo{}
	store := newFakeVecStore()
	indexer := NewVectorFileIndexer(repo, store, &fakeDocEmbedder{dim: 8}, nil)

	err := indexer.IndexFile(context.Background(), "proj", "col", "main.go", path)
	require.NoError(t, err)

	require.Len(t, repo.stored, 1)
	obs := repo.stored[0]
	assert.Equal(t, "proj", obs.ProjectID)
	assert.Equal(t, "package main\n\nfunc main() {}", obs.Content)
	assert.Equal(t, "vec-1", obs.ID)
	assert.Contains(t, obs.Tags, "go")
	assert.True(t, store.collections["col"])
	assert.Equal(t, "main.go", store.inserted["col"][0][vecstore.MetaFilePath])
}

func TestIndexFileSkipsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.go")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	repo := &fakeRepo{}
	store := newFakeVecStore()
	indexer := NewVectorFileIndexer(repo, store, &fakeDocEmbedder{dim: 4}, nil)

	require.NoError(t, indexer.IndexFile(context.Background(), "proj", "col", "empty.go", path))
	assert.Empty(t, repo.stored)
}

func TestIndexFileSkipsBinaryContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0o600))

	repo := &fakeRepo{}
	store := newFakeVecStore()
	indexer := NewVectorFileIndexer(repo, store, &fakeDocEmbedder{dim: 4}, nil)

	require.NoError(t, indexer.IndexFile(context.Background(), "proj", "col", "blob.bin", path))
	assert.Empty(t, repo.stored)
}

func TestChunkByLinesWindowsLongFiles(t *testing.T) {
	lines := make([]string, 450)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}

	chunks := chunkByLines(content, 200)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].startLine)
	assert.Equal(t, 201, chunks[1].startLine)
	assert.Equal(t, 401, chunks[2].startLine)
}

func TestDetectLanguageFallsBackToText(t *testing.T) {
	assert.Equal(t, "go", detectLanguage("cmd/mcbd/main.go"))
	assert.Equal(t, "rust", detectLanguage("src/lib.rs"))
	assert.Equal(t, "text", detectLanguage("LICENSE"))
}
