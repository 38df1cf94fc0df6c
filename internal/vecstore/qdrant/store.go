// Package qdrant adapts internal/qdrant's gRPC client onto the
// vecstore.Store port.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/marlonsc/mcb/internal/mcberrors"
	internalqdrant "github.com/marlonsc/mcb/internal/qdrant"
	"github.com/marlonsc/mcb/internal/vecstore"
)

// Store adapts internal/qdrant.Client to vecstore.Store.
type Store struct {
	client     internalqdrant.Client
	vectorSize int
}

var _ vecstore.Store = (*Store)(nil)

// New wraps an already-connected Qdrant client. Use internal/qdrant.NewGRPCClient
// to build client; vectorSize is used only when creating new collections
// whose caller didn't specify dimensions.
func New(client internalqdrant.Client, vectorSize int) *Store {
	return &Store{client: client, vectorSize: vectorSize}
}

func (s *Store) ProviderName() string { return "qdrant" }

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant collection_exists", err)
	}
	return exists, nil
}

func (s *Store) GetStats(ctx context.Context, collection string) (map[string]any, error) {
	count, err := s.client.PointCount(ctx, collection)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant get_stats", err)
	}
	return map[string]any{
		"collection":    collection,
		"vectors_count": count,
		"provider":      s.ProviderName(),
	}, nil
}

func (s *Store) Flush(ctx context.Context, collection string) error {
	// Qdrant gRPC upserts are acknowledged synchronously; nothing to flush.
	return nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, dimensions int) error {
	size := dimensions
	if size <= 0 {
		size = s.vectorSize
	}
	if err := s.client.CreateCollection(ctx, name, uint64(size)); err != nil {
		return mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant create_collection", err)
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant delete_collection", err)
	}
	return nil
}

func (s *Store) InsertVectors(ctx context.Context, collection string, embeddings [][]float32, metadata []map[string]any) ([]string, error) {
	if len(embeddings) == 0 {
		return nil, vecstore.ErrEmptyVectors
	}

	points := make([]*internalqdrant.Point, len(embeddings))
	ids := make([]string, len(embeddings))
	for i, vec := range embeddings {
		id := pointID(collection, i)
		ids[i] = id
		payload := map[string]any{}
		if i < len(metadata) {
			for k, v := range metadata[i] {
				payload[k] = v
			}
		}
		points[i] = &internalqdrant.Point{ID: id, Vector: vec, Payload: payload}
	}

	if err := s.client.Upsert(ctx, collection, points); err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant insert_vectors", err)
	}
	return ids, nil
}

func (s *Store) SearchSimilar(ctx context.Context, collection string, queryVec []float32, limit int, filterExpr string) ([]vecstore.SearchResult, error) {
	filter, err := parseFilterExpr(filterExpr)
	if err != nil {
		return nil, mcberrors.InvalidParams("qdrant search filter: " + err.Error())
	}

	scored, err := s.client.Search(ctx, collection, queryVec, uint64(limit), filter)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant search_similar", err)
	}

	results := make([]vecstore.SearchResult, len(scored))
	for i, p := range scored {
		results[i] = searchResultFromPoint(p.ID, p.Payload, float64(p.Score))
	}
	return results, nil
}

func (s *Store) DeleteVectors(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.client.Delete(ctx, collection, ids); err != nil {
		return mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant delete_vectors", err)
	}
	return nil
}

func (s *Store) GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]vecstore.SearchResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	points, err := s.client.Get(ctx, collection, ids)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant get_vectors_by_ids", err)
	}
	results := make([]vecstore.SearchResult, len(points))
	for i, p := range points {
		results[i] = searchResultFromPoint(p.ID, p.Payload, 1.0)
	}
	return results, nil
}

func (s *Store) ListVectors(ctx context.Context, collection string, limit int) ([]vecstore.SearchResult, error) {
	points, err := s.client.Scroll(ctx, collection, uint64(limit), nil)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant list_vectors", err)
	}
	results := make([]vecstore.SearchResult, len(points))
	for i, p := range points {
		results[i] = searchResultFromPoint(p.ID, p.Payload, 1.0)
	}
	return results, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]vecstore.CollectionInfo, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant list_collections", err)
	}
	infos := make([]vecstore.CollectionInfo, 0, len(names))
	for _, name := range names {
		count, err := s.client.PointCount(ctx, name)
		if err != nil {
			count = 0
		}
		infos = append(infos, vecstore.CollectionInfo{
			Name:        name,
			VectorCount: int64(count),
			Provider:    s.ProviderName(),
		})
	}
	return infos, nil
}

func (s *Store) ListFilePaths(ctx context.Context, collection string, limit int) ([]vecstore.FileInfo, error) {
	// Scroll without a vector query, cap at a generous multiple of limit
	// since distinct file paths are a subset of the points scanned.
	points, err := s.client.Scroll(ctx, collection, uint64(limit*10+100), nil)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant list_file_paths", err)
	}

	type acc struct {
		count    int
		language string
	}
	files := make(map[string]*acc)
	for _, p := range points {
		fp, _ := p.Payload[vecstore.MetaFilePath].(string)
		if fp == "" {
			continue
		}
		lang, _ := p.Payload[vecstore.MetaLanguage].(string)
		if lang == "" {
			lang = "unknown"
		}
		if _, ok := files[fp]; !ok {
			files[fp] = &acc{language: lang}
		}
		files[fp].count++
	}

	out := make([]vecstore.FileInfo, 0, len(files))
	for path, a := range files {
		if len(out) >= limit {
			break
		}
		out = append(out, vecstore.FileInfo{Path: path, ChunkCount: a.count, Language: a.language})
	}
	return out, nil
}

func (s *Store) GetChunksByFile(ctx context.Context, collection, filePath string) ([]vecstore.SearchResult, error) {
	filter := &internalqdrant.Filter{
		Must: []internalqdrant.Condition{{Field: vecstore.MetaFilePath, Match: filePath}},
	}
	points, err := s.client.Scroll(ctx, collection, 10000, filter)
	if err != nil {
		return nil, mcberrors.WrapRetryable(mcberrors.KindVectorDB, "qdrant get_chunks_by_file", err)
	}

	normalized := strings.ReplaceAll(filePath, "\\", "/")
	results := make([]vecstore.SearchResult, 0, len(points))
	for _, p := range points {
		fp, _ := p.Payload[vecstore.MetaFilePath].(string)
		if strings.ReplaceAll(fp, "\\", "/") != normalized {
			continue
		}
		results = append(results, searchResultFromPoint(p.ID, p.Payload, 1.0))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StartLine < results[j].StartLine })
	return results, nil
}

func pointID(collection string, index int) string {
	return fmt.Sprintf("%s_%d_%s", collection, index, uuid.New().String())
}

func searchResultFromPoint(id string, payload map[string]any, score float64) vecstore.SearchResult {
	r := vecstore.SearchResult{ID: id, Score: score, Language: "unknown"}
	if fp, ok := payload[vecstore.MetaFilePath].(string); ok {
		r.FilePath = fp
	}
	if content, ok := payload[vecstore.MetaContent].(string); ok {
		r.Content = content
	}
	if lang, ok := payload[vecstore.MetaLanguage].(string); ok && lang != "" {
		r.Language = lang
	}
	switch v := payload[vecstore.MetaStartLine].(type) {
	case int:
		r.StartLine = v
	case int64:
		r.StartLine = int(v)
	case float64:
		r.StartLine = int(v)
	}
	return r
}

// parseFilterExpr accepts "" (no filter) or a single "key=value"
// equality expression, turned into one Must match condition. Qdrant's
// JSON filter syntax is not parsed; an expression without "=" is
// rejected with an error.
func parseFilterExpr(expr string) (*internalqdrant.Filter, error) {
	if expr == "" {
		return nil, nil
	}
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("unsupported filter expression %q", expr)
	}
	return &internalqdrant.Filter{
		Must: []internalqdrant.Condition{{Field: parts[0], Match: parts[1]}},
	}, nil
}
