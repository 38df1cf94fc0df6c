// Package hybrid implements the Hybrid Retrieval Engine: Reciprocal
// Rank Fusion over the Memory Repository's full-text search and the
// Vector Store's similarity search, with filter pushdown and a bounded
// retry loop when too few candidates survive post-fetch filtering.
package hybrid

import (
	"context"
	"sort"

	"github.com/marlonsc/mcb/internal/memory"
	"github.com/marlonsc/mcb/internal/vecstore"
)

// defaultK is RRF's smoothing constant; lower ranks dominate less as k grows.
const defaultK = 60.0

// maxRetries bounds step 5's "repeat 1-4 with increased L_fts/L_vec"
// loop. Each retry doubles both fetch widths, capped here at three
// attempts: wide enough to absorb a heavily-filtered query without
// unbounded repository load.
const maxRetries = 3

// EmbeddingProvider produces a query embedding. internal/embeddings.Service
// satisfies this.
type EmbeddingProvider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// MemorySearchResult is one fused, filtered, fetched hit.
type MemorySearchResult struct {
	ID              string
	Observation     memory.Observation
	SimilarityScore float64
}

// Engine fuses the Memory Repository's FTS ranking with the Vector
// Store's similarity ranking via RRF.
type Engine struct {
	repo     memory.Repository
	store    vecstore.Store
	embedder EmbeddingProvider
	k        float64
}

// New builds an Engine. embedder may be nil, in which case searches
// fall back to FTS-only fusion (spec's "embed failure" fallback path,
// applied unconditionally rather than only on error).
func New(repo memory.Repository, store vecstore.Store, embedder EmbeddingProvider) *Engine {
	return &Engine{repo: repo, store: store, embedder: embedder, k: defaultK}
}

type candidate struct {
	id      string
	score   float64
	ftsRank int // 1-based; 0 means "not in FTS list"
}

// Search runs the full RRF pipeline against collection (the vector
// store collection backing this project) and returns up to limit
// results ordered by descending normalized similarity score.
func (e *Engine) Search(ctx context.Context, query, collection string, filter memory.Filter, limit int) ([]MemorySearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	lFts := limit * 4
	lVec := limit * 4
	overfetch := limit * 2

	var results []MemorySearchResult
	for attempt := 0; attempt < maxRetries; attempt++ {
		ftsRanked, err := e.repo.SearchFTSRanked(ctx, query, lFts)
		if err != nil {
			return nil, err
		}

		var vecResults []vecstore.SearchResult
		if query != "" && e.embedder != nil && collection != "" {
			if qvec, err := e.embedder.EmbedQuery(ctx, query); err == nil {
				if vr, err := e.store.SearchSimilar(ctx, collection, qvec, lVec, ""); err == nil {
					vecResults = vr
				}
			}
		}

		candidates := fuse(ftsRanked, vecResults, e.k)
		if len(candidates) == 0 {
			return nil, nil
		}

		allIDs := make([]string, len(candidates))
		for i, c := range candidates {
			allIDs[i] = c.id
		}
		obs, err := e.repo.GetObservationsByIDs(ctx, allIDs)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]memory.Observation, len(obs))
		for _, o := range obs {
			byID[o.ID] = o
		}

		sortCandidates(candidates, byID)

		window := limit + overfetch
		if window > len(candidates) {
			window = len(candidates)
		}

		results = results[:0]
		var best float64
		for _, c := range candidates[:window] {
			o, ok := byID[c.id]
			if !ok || !matchesFilter(o, filter) {
				continue
			}
			if c.score > best {
				best = c.score
			}
			results = append(results, MemorySearchResult{ID: c.id, Observation: o, SimilarityScore: c.score})
			if len(results) >= limit {
				break
			}
		}

		if len(results) >= limit || attempt == maxRetries-1 {
			normalize(results, best)
			return results, nil
		}
		lFts *= 2
		lVec *= 2
	}
	return results, nil
}

// fuse computes RRF scores across the FTS-ranked list and the vector
// similarity list (ranked by descending score, ties by the order the
// store returned). A result appearing in both lists sums both terms.
func fuse(ftsRanked []memory.FtsResult, vecResults []vecstore.SearchResult, k float64) []candidate {
	scores := make(map[string]float64)
	ftsRank := make(map[string]int)

	for i, r := range ftsRanked {
		rank := i + 1
		scores[r.ID] += 1.0 / (k + float64(rank))
		ftsRank[r.ID] = rank
	}
	for i, r := range vecResults {
		rank := i + 1
		scores[r.ID] += 1.0 / (k + float64(rank))
	}

	out := make([]candidate, 0, len(scores))
	for id, s := range scores {
		out = append(out, candidate{id: id, score: s, ftsRank: ftsRank[id]})
	}
	return out
}

// sortCandidates orders by descending RRF score; ties broken by
// earliest FTS rank (0 — "not present" — sorts last), then by
// created_at descending, then by id ascending, matching the fusion
// step's documented determinism rule.
func sortCandidates(candidates []candidate, byID map[string]memory.Observation) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		ar, br := effectiveRank(a.ftsRank), effectiveRank(b.ftsRank)
		if ar != br {
			return ar < br
		}
		ao, aok := byID[a.id]
		bo, bok := byID[b.id]
		if aok && bok && ao.CreatedAt != bo.CreatedAt {
			return ao.CreatedAt > bo.CreatedAt
		}
		return a.id < b.id
	})
}

func effectiveRank(rank int) int {
	if rank == 0 {
		return int(^uint(0) >> 1) // sorts last
	}
	return rank
}

func normalize(results []MemorySearchResult, best float64) {
	if best <= 0 {
		return
	}
	for i := range results {
		results[i].SimilarityScore /= best
	}
}

// matchesFilter re-applies the filter in memory, since neither the
// vector store nor every repository backend is guaranteed to honor
// every filter key natively.
func matchesFilter(o memory.Observation, f memory.Filter) bool {
	if f.SessionID != "" && o.Metadata["session_id"] != f.SessionID {
		return false
	}
	if f.ParentSessionID != "" && o.Metadata["parent_session_id"] != f.ParentSessionID {
		return false
	}
	if f.RepoID != "" && o.Metadata["repo_id"] != f.RepoID {
		return false
	}
	if f.Branch != "" && o.Metadata["branch"] != f.Branch {
		return false
	}
	if f.Commit != "" && o.Metadata["commit"] != f.Commit {
		return false
	}
	if f.ObservationType != "" && o.Type != f.ObservationType {
		return false
	}
	if f.TimeRange != nil && (o.CreatedAt < f.TimeRange.Start || o.CreatedAt > f.TimeRange.End) {
		return false
	}
	if len(f.Tags) > 0 {
		have := make(map[string]bool, len(o.Tags))
		for _, t := range o.Tags {
			have[t] = true
		}
		for _, want := range f.Tags {
			if !have[want] {
				return false
			}
		}
	}
	return true
}
