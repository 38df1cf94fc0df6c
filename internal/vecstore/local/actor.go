// Package local implements the vector store port with a single owning
// goroutine (the "actor") that serializes all access to an in-memory
// brute-force index, mirroring the edgevec actor's message-passing
// design without an external HNSW dependency.
package local

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/marlonsc/mcb/internal/vecstore"
)

// vectorEntry is a slot in the global index. Entries are never removed,
// only soft-deleted, so vector ids (slice positions) stay stable.
type vectorEntry struct {
	vector  []float32
	deleted bool
}

// message groups, named after the edgevec actor's Core/Query/Browse
// split. Each carries its own reply channel; the actor answers exactly
// once per message.
type createCollectionMsg struct {
	name  string
	reply chan<- error
}

type deleteCollectionMsg struct {
	name  string
	reply chan<- error
}

type insertVectorsMsg struct {
	collection string
	vectors    [][]float32
	metadata   []map[string]any
	reply      chan<- insertReply
}

type insertReply struct {
	ids []string
	err error
}

type searchSimilarMsg struct {
	collection string
	query      []float32
	limit      int
	reply      chan<- searchReply
}

type deleteVectorsMsg struct {
	collection string
	ids        []string
	reply      chan<- error
}

type searchReply struct {
	results []vecstore.SearchResult
	err     error
}

type getStatsMsg struct {
	collection string
	reply      chan<- statsReply
}

type statsReply struct {
	stats map[string]any
}

type listVectorsMsg struct {
	collection string
	limit      int
	reply      chan<- searchReply
}

type getVectorsByIDsMsg struct {
	collection string
	ids        []string
	reply      chan<- searchReply
}

type collectionExistsMsg struct {
	name  string
	reply chan<- bool
}

type listCollectionsMsg struct {
	reply chan<- []vecstore.CollectionInfo
}

type listFilePathsMsg struct {
	collection string
	limit      int
	reply      chan<- listFilePathsReply
}

type listFilePathsReply struct {
	files []vecstore.FileInfo
	err   error
}

type getChunksByFileMsg struct {
	collection string
	filePath   string
	reply      chan<- searchReply
}

// actor owns all mutable state. Only the run loop touches it; every
// other goroutine communicates exclusively through the three channels.
type actor struct {
	coreCh   chan any
	queryCh  chan any
	browseCh chan any
	done     chan struct{}

	dimensions int
	vectors    []vectorEntry
	// idMap maps an external vector id to its slot in vectors.
	idMap map[string]int
	// collections maps collection name -> external id -> metadata.
	collections map[string]map[string]map[string]any
}

func newActor(dimensions int) *actor {
	return &actor{
		coreCh:      make(chan any),
		queryCh:     make(chan any),
		browseCh:    make(chan any),
		done:        make(chan struct{}),
		dimensions:  dimensions,
		idMap:       make(map[string]int),
		collections: make(map[string]map[string]map[string]any),
	}
}

func (a *actor) run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.coreCh:
			a.handleCore(msg)
		case msg := <-a.queryCh:
			a.handleQuery(msg)
		case msg := <-a.browseCh:
			a.handleBrowse(msg)
		}
	}
}

func (a *actor) handleCore(msg any) {
	switch m := msg.(type) {
	case createCollectionMsg:
		m.reply <- a.createCollection(m.name)
	case deleteCollectionMsg:
		m.reply <- a.deleteCollection(m.name)
	case insertVectorsMsg:
		ids, err := a.insertVectors(m.collection, m.vectors, m.metadata)
		m.reply <- insertReply{ids: ids, err: err}
	case searchSimilarMsg:
		results, err := a.searchSimilar(m.collection, m.query, m.limit)
		m.reply <- searchReply{results: results, err: err}
	case deleteVectorsMsg:
		m.reply <- a.deleteVectors(m.collection, m.ids)
	}
}

func (a *actor) handleQuery(msg any) {
	switch m := msg.(type) {
	case getStatsMsg:
		m.reply <- statsReply{stats: a.getStats(m.collection)}
	case listVectorsMsg:
		results := a.listVectors(m.collection, m.limit)
		m.reply <- searchReply{results: results}
	case getVectorsByIDsMsg:
		results := a.getVectorsByIDs(m.collection, m.ids)
		m.reply <- searchReply{results: results}
	case collectionExistsMsg:
		_, ok := a.collections[m.name]
		m.reply <- ok
	}
}

func (a *actor) handleBrowse(msg any) {
	switch m := msg.(type) {
	case listCollectionsMsg:
		m.reply <- a.listCollections()
	case listFilePathsMsg:
		files, err := a.listFilePaths(m.collection, m.limit)
		m.reply <- listFilePathsReply{files: files, err: err}
	case getChunksByFileMsg:
		results, err := a.getChunksByFile(m.collection, m.filePath)
		m.reply <- searchReply{results: results, err: err}
	}
}

func (a *actor) createCollection(name string) error {
	if _, ok := a.collections[name]; !ok {
		a.collections[name] = make(map[string]map[string]any)
	}
	return nil
}

func (a *actor) deleteCollection(name string) error {
	meta, ok := a.collections[name]
	if !ok {
		return nil
	}
	for externalID := range meta {
		if idx, ok := a.idMap[externalID]; ok {
			a.vectors[idx].deleted = true
			delete(a.idMap, externalID)
		}
	}
	delete(a.collections, name)
	return nil
}

func (a *actor) insertVectors(collection string, vectors [][]float32, metadata []map[string]any) ([]string, error) {
	if len(vectors) == 0 {
		return nil, vecstore.ErrEmptyVectors
	}
	meta, ok := a.collections[collection]
	if !ok {
		meta = make(map[string]map[string]any)
		a.collections[collection] = meta
	}

	ids := make([]string, 0, len(vectors))
	for i, v := range vectors {
		externalID := collection + "_" + uuid.New().String()
		idx := len(a.vectors)
		a.vectors = append(a.vectors, vectorEntry{vector: v})
		a.idMap[externalID] = idx

		m := map[string]any{}
		if i < len(metadata) {
			for k, v := range metadata[i] {
				m[k] = v
			}
		}
		m["id"] = externalID
		meta[externalID] = m
		ids = append(ids, externalID)
	}
	return ids, nil
}

func (a *actor) deleteVectors(collection string, ids []string) error {
	meta, ok := a.collections[collection]
	if !ok {
		return nil
	}
	for _, id := range ids {
		if idx, ok := a.idMap[id]; ok {
			a.vectors[idx].deleted = true
			delete(a.idMap, id)
		}
		delete(meta, id)
	}
	return nil
}

// searchSimilar over-fetches from the global index by the ratio the
// edgevec actor uses (ceil(total/collectionSize)), then filters
// candidates down to ones that belong to collection, stopping once
// limit survivors are found.
func (a *actor) searchSimilar(collection string, query []float32, limit int) ([]vecstore.SearchResult, error) {
	meta := a.collections[collection]
	collectionSize := len(meta)
	total := len(a.vectors)

	fetchLimit := limit
	if collectionSize > 0 && total > collectionSize {
		ratio := math.Ceil(float64(total) / float64(collectionSize))
		fetchLimit = int(float64(limit) * ratio)
		if fetchLimit > total {
			fetchLimit = total
		}
	}
	if fetchLimit <= 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, total)
	for idx, entry := range a.vectors {
		if entry.deleted {
			continue
		}
		candidates = append(candidates, scored{idx: idx, score: cosineSimilarity(query, entry.vector)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > fetchLimit {
		candidates = candidates[:fetchLimit]
	}

	results := make([]vecstore.SearchResult, 0, limit)
	if meta == nil {
		return results, nil
	}
	for _, c := range candidates {
		if len(results) >= limit {
			break
		}
		externalID := externalIDForIndex(a.idMap, c.idx)
		if externalID == "" {
			continue
		}
		m, ok := meta[externalID]
		if !ok {
			continue
		}
		results = append(results, searchResultFromMetadata(externalID, m, c.score))
	}
	return results, nil
}

func externalIDForIndex(idMap map[string]int, idx int) string {
	for id, i := range idMap {
		if i == idx {
			return id
		}
	}
	return ""
}

func (a *actor) getStats(collection string) map[string]any {
	vectorCount := len(a.collections[collection])
	return map[string]any{
		"collection":            collection,
		"vectors_count":         vectorCount,
		"total_indexed_vectors": len(a.vectors),
		"dimensions":            a.dimensions,
	}
}

func (a *actor) listVectors(collection string, limit int) []vecstore.SearchResult {
	meta := a.collections[collection]
	results := make([]vecstore.SearchResult, 0, limit)
	for id, m := range meta {
		if len(results) >= limit {
			break
		}
		results = append(results, searchResultFromMetadata(id, m, 1.0))
	}
	return results
}

func (a *actor) getVectorsByIDs(collection string, ids []string) []vecstore.SearchResult {
	meta := a.collections[collection]
	results := make([]vecstore.SearchResult, 0, len(ids))
	if meta == nil {
		return results
	}
	for _, id := range ids {
		if m, ok := meta[id]; ok {
			results = append(results, searchResultFromMetadata(id, m, 1.0))
		}
	}
	return results
}

func (a *actor) listCollections() []vecstore.CollectionInfo {
	infos := make([]vecstore.CollectionInfo, 0, len(a.collections))
	for name, meta := range a.collections {
		filePaths := make(map[string]struct{})
		for _, m := range meta {
			if fp, ok := m[vecstore.MetaFilePath].(string); ok {
				filePaths[fp] = struct{}{}
			}
		}
		infos = append(infos, vecstore.CollectionInfo{
			Name:        name,
			VectorCount: int64(len(meta)),
			FileCount:   int64(len(filePaths)),
			Provider:    "local",
		})
	}
	return infos
}

func (a *actor) listFilePaths(collection string, limit int) ([]vecstore.FileInfo, error) {
	meta, ok := a.collections[collection]
	if !ok {
		return nil, vecstore.ErrCollectionNotFound
	}
	type acc struct {
		count    int
		language string
	}
	files := make(map[string]*acc)
	for _, m := range meta {
		fp, ok := m[vecstore.MetaFilePath].(string)
		if !ok {
			continue
		}
		lang, _ := m[vecstore.MetaLanguage].(string)
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

func (a *actor) getChunksByFile(collection, filePath string) ([]vecstore.SearchResult, error) {
	meta := a.collections[collection]
	normalized := strings.ReplaceAll(filePath, "\\", "/")
	results := make([]vecstore.SearchResult, 0)
	for id, m := range meta {
		fp, ok := m[vecstore.MetaFilePath].(string)
		if !ok || strings.ReplaceAll(fp, "\\", "/") != normalized {
			continue
		}
		r := searchResultFromMetadata(id, m, 1.0)
		r.FilePath = filePath
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StartLine < results[j].StartLine })
	return results, nil
}

func searchResultFromMetadata(id string, m map[string]any, score float64) vecstore.SearchResult {
	r := vecstore.SearchResult{ID: id, Score: score, Language: "unknown"}
	if fp, ok := m[vecstore.MetaFilePath].(string); ok {
		r.FilePath = fp
	}
	if content, ok := m[vecstore.MetaContent].(string); ok {
		r.Content = content
	}
	if lang, ok := m[vecstore.MetaLanguage].(string); ok && lang != "" {
		r.Language = lang
	}
	switch v := m[vecstore.MetaStartLine].(type) {
	case int:
		r.StartLine = v
	case int64:
		r.StartLine = int(v)
	case float64:
		r.StartLine = int(v)
	}
	return r
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
