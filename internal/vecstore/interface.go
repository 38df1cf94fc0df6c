package vecstore

import "context"

// Admin exposes collection-level housekeeping that doesn't touch vectors.
type Admin interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetStats(ctx context.Context, collection string) (map[string]any, error)
	Flush(ctx context.Context, collection string) error
	ProviderName() string
}

// Provider is the vector CRUD and search surface.
type Provider interface {
	CreateCollection(ctx context.Context, name string, dimensions int) error
	DeleteCollection(ctx context.Context, name string) error

	// InsertVectors stores embeddings with their metadata and returns the
	// backend-assigned ids, one per input vector, in order.
	InsertVectors(ctx context.Context, collection string, embeddings [][]float32, metadata []map[string]any) ([]string, error)

	// SearchSimilar returns up to limit nearest neighbors of queryVec.
	// filterExpr is adapter-defined: the Qdrant adapter accepts a single
	// "key=value" equality (not Qdrant's JSON filter syntax), the Pinecone
	// adapter a filter object serialized to JSON, and the local adapter
	// ignores it; pass "" for no native filter. Callers
	// must not assume the adapter honors every filter key — re-filter
	// the result in memory when it matters.
	SearchSimilar(ctx context.Context, collection string, queryVec []float32, limit int, filterExpr string) ([]SearchResult, error)

	DeleteVectors(ctx context.Context, collection string, ids []string) error
	GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]SearchResult, error)
	ListVectors(ctx context.Context, collection string, limit int) ([]SearchResult, error)
}

// Browser supports read-only exploration of what has been indexed.
type Browser interface {
	ListCollections(ctx context.Context) ([]CollectionInfo, error)
	ListFilePaths(ctx context.Context, collection string, limit int) ([]FileInfo, error)
	GetChunksByFile(ctx context.Context, collection string, filePath string) ([]SearchResult, error)
}

// Store is the full vector store port. Every adapter (local, Qdrant,
// Pinecone) implements all three facets on a single type.
type Store interface {
	Admin
	Provider
	Browser
}
