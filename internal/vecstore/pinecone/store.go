// Package pinecone implements the vecstore.Store port against Pinecone's
// REST API. Pinecone has no native collection concept; collections are
// modeled as namespaces within one index, created implicitly on first
// upsert, and listing falls back to a zero-vector similarity search
// since Pinecone exposes no scroll/list endpoint.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marlonsc/mcb/internal/mcberrors"
	"github.com/marlonsc/mcb/internal/vecstore"
)

const upsertBatchSize = 100

// Config configures the Pinecone REST client.
type Config struct {
	APIKey  string
	Host    string // index host, e.g. https://your-index-abcdef.svc.aped-1234.pinecone.io
	Timeout time.Duration
}

// Store is a vecstore.Store backed by a Pinecone index, reached over
// its REST API with the standard library HTTP client.
type Store struct {
	apiKey     string
	host       string
	httpClient *http.Client

	mu          sync.Mutex
	collections map[string]int // name -> dimensions, tracked locally
}

var _ vecstore.Store = (*Store)(nil)

// New builds a Store from cfg. The API key is never logged; callers
// must redact it themselves if they log cfg.
func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		host:        strings.TrimRight(cfg.Host, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		collections: make(map[string]int),
	}
}

func (s *Store) ProviderName() string { return "pinecone" }

func (s *Store) request(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "pinecone marshal request", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.host+path, reader)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "pinecone build request", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, fmt.Sprintf("pinecone %s %s", method, path), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "pinecone read response", err)
	}

	if resp.StatusCode >= 500 {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB,
			fmt.Sprintf("pinecone %s %s: status %d", method, path, resp.StatusCode),
			fmt.Errorf("%s", string(respBody)))
	}
	if resp.StatusCode >= 400 {
		return nil, mcberrors.Wrap(mcberrors.KindVectorDB,
			fmt.Sprintf("pinecone %s %s: status %d", method, path, resp.StatusCode),
			fmt.Errorf("%s", string(respBody)))
	}

	if len(respBody) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "pinecone decode response", err)
	}
	return out, nil
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *Store) GetStats(ctx context.Context, collection string) (map[string]any, error) {
	resp, err := s.request(ctx, http.MethodPost, "/describe_index_stats", map[string]any{"filter": map[string]any{}})
	stats := map[string]any{
		"collection": collection,
		"provider":   s.ProviderName(),
	}
	if err != nil {
		stats["status"] = "unknown"
		stats["vectors_count"] = 0
		return stats, nil
	}
	stats["status"] = "active"
	if namespaces, ok := resp["namespaces"].(map[string]any); ok {
		if ns, ok := namespaces[collection].(map[string]any); ok {
			stats["vectors_count"] = ns["vectorCount"]
		}
	}
	return stats, nil
}

func (s *Store) Flush(ctx context.Context, collection string) error {
	// Pinecone writes are immediately consistent; nothing to flush.
	return nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return vecstore.ErrCollectionExists
	}
	// Namespace creation is implicit on first upsert; we only track it
	// locally so CollectionExists/ListCollections have something to report.
	s.collections[name] = dimensions
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if _, err := s.request(ctx, http.MethodPost, "/vectors/delete", map[string]any{
		"deleteAll": true,
		"namespace": name,
	}); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.collections, name)
	s.mu.Unlock()
	return nil
}

func (s *Store) InsertVectors(ctx context.Context, collection string, embeddings [][]float32, metadata []map[string]any) ([]string, error) {
	if len(embeddings) == 0 {
		return nil, vecstore.ErrEmptyVectors
	}

	s.mu.Lock()
	if _, ok := s.collections[collection]; !ok && len(embeddings) > 0 {
		s.collections[collection] = len(embeddings[0])
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(embeddings))
	batch := make([]map[string]any, 0, upsertBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.request(ctx, http.MethodPost, "/vectors/upsert", map[string]any{
			"vectors":   batch,
			"namespace": collection,
		})
		batch = batch[:0]
		return err
	}

	for i, vec := range embeddings {
		id := "vec_" + uuid.New().String()
		meta := map[string]any{}
		if i < len(metadata) {
			meta = metadata[i]
		}
		batch = append(batch, map[string]any{
			"id":       id,
			"values":   vec,
			"metadata": meta,
		})
		ids = append(ids, id)

		if len(batch) >= upsertBatchSize || i == len(embeddings)-1 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

func (s *Store) SearchSimilar(ctx context.Context, collection string, queryVec []float32, limit int, filterExpr string) ([]vecstore.SearchResult, error) {
	payload := map[string]any{
		"vector":          queryVec,
		"topK":            limit,
		"namespace":       collection,
		"includeMetadata": true,
	}
	if filterExpr != "" {
		var filter any
		if err := json.Unmarshal([]byte(filterExpr), &filter); err == nil {
			payload["filter"] = filter
		}
	}

	resp, err := s.request(ctx, http.MethodPost, "/query", payload)
	if err != nil {
		return nil, err
	}

	matches, _ := resp["matches"].([]any)
	results := make([]vecstore.SearchResult, 0, len(matches))
	for _, m := range matches {
		item, ok := m.(map[string]any)
		if !ok {
			continue
		}
		score, _ := item["score"].(float64)
		results = append(results, searchResultFromMatch(item, score))
	}
	return results, nil
}

func (s *Store) DeleteVectors(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.request(ctx, http.MethodPost, "/vectors/delete", map[string]any{
		"ids":       ids,
		"namespace": collection,
	})
	return err
}

func (s *Store) GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]vecstore.SearchResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	resp, err := s.request(ctx, http.MethodGet, "/vectors/fetch", map[string]any{
		"ids":       ids,
		"namespace": collection,
	})
	if err != nil {
		return nil, err
	}

	vectors, _ := resp["vectors"].(map[string]any)
	results := make([]vecstore.SearchResult, 0, len(vectors))
	for id, data := range vectors {
		item, ok := data.(map[string]any)
		if !ok {
			continue
		}
		meta, _ := item["metadata"].(map[string]any)
		r := searchResultFromMetadata(meta)
		r.ID = id
		r.Score = 1.0
		results = append(results, r)
	}
	return results, nil
}

// ListVectors has no native Pinecone equivalent; it searches with a
// zero vector, per the adapter's documented workaround.
func (s *Store) ListVectors(ctx context.Context, collection string, limit int) ([]vecstore.SearchResult, error) {
	dims := s.dimensionsOf(collection)
	zero := make([]float32, dims)
	return s.SearchSimilar(ctx, collection, zero, limit, "")
}

func (s *Store) ListCollections(ctx context.Context) ([]vecstore.CollectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]vecstore.CollectionInfo, 0, len(s.collections))
	for name := range s.collections {
		infos = append(infos, vecstore.CollectionInfo{Name: name, Provider: s.ProviderName()})
	}
	return infos, nil
}

func (s *Store) ListFilePaths(ctx context.Context, collection string, limit int) ([]vecstore.FileInfo, error) {
	results, err := s.ListVectors(ctx, collection, limit)
	if err != nil {
		return nil, err
	}
	type acc struct {
		count    int
		language string
	}
	files := make(map[string]*acc)
	for _, r := range results {
		if r.FilePath == "" {
			continue
		}
		if _, ok := files[r.FilePath]; !ok {
			files[r.FilePath] = &acc{language: r.Language}
		}
		files[r.FilePath].count++
	}
	out := make([]vecstore.FileInfo, 0, len(files))
	for path, a := range files {
		out = append(out, vecstore.FileInfo{Path: path, ChunkCount: a.count, Language: a.language})
	}
	return out, nil
}

func (s *Store) GetChunksByFile(ctx context.Context, collection, filePath string) ([]vecstore.SearchResult, error) {
	dims := s.dimensionsOf(collection)
	zero := make([]float32, dims)
	payload := map[string]any{
		"vector":          zero,
		"topK":            100,
		"namespace":       collection,
		"includeMetadata": true,
		"filter":          map[string]any{"file_path": map[string]any{"$eq": filePath}},
	}
	resp, err := s.request(ctx, http.MethodPost, "/query", payload)
	if err != nil {
		return nil, err
	}

	matches, _ := resp["matches"].([]any)
	results := make([]vecstore.SearchResult, 0, len(matches))
	for _, m := range matches {
		item, ok := m.(map[string]any)
		if !ok {
			continue
		}
		score, _ := item["score"].(float64)
		results = append(results, searchResultFromMatch(item, score))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StartLine < results[j].StartLine })
	return results, nil
}

func (s *Store) dimensionsOf(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.collections[collection]; ok && d > 0 {
		return d
	}
	return 1536
}

func searchResultFromMatch(item map[string]any, score float64) vecstore.SearchResult {
	id, _ := item["id"].(string)
	meta, _ := item["metadata"].(map[string]any)
	r := searchResultFromMetadata(meta)
	r.ID = id
	r.Score = score
	return r
}

func searchResultFromMetadata(meta map[string]any) vecstore.SearchResult {
	r := vecstore.SearchResult{Language: "unknown"}
	if meta == nil {
		return r
	}
	if fp, ok := meta[vecstore.MetaFilePath].(string); ok {
		r.FilePath = fp
	}
	if content, ok := meta[vecstore.MetaContent].(string); ok {
		r.Content = content
	}
	if lang, ok := meta[vecstore.MetaLanguage].(string); ok && lang != "" {
		r.Language = lang
	}
	switch v := meta[vecstore.MetaStartLine].(type) {
	case float64:
		r.StartLine = int(v)
	case int:
		r.StartLine = v
	}
	return r
}
