// Package vecstore defines the vector store port: the three-facet
// contract (Admin, Provider, Browser) that every backend — the local
// in-process actor, Qdrant, Pinecone — implements identically so the
// hybrid retrieval engine and indexing service never branch on backend.
package vecstore

import "errors"

// Sentinel errors. The local adapter wraps these with
// mcberrors.Wrap(mcberrors.KindVectorDB, ...); the qdrant and pinecone
// adapters return them unwrapped. Either way callers can errors.Is
// against them.
var (
	ErrCollectionNotFound    = errors.New("vecstore: collection not found")
	ErrCollectionExists      = errors.New("vecstore: collection already exists")
	ErrInvalidConfig         = errors.New("vecstore: invalid configuration")
	ErrEmptyVectors          = errors.New("vecstore: vectors cannot be empty")
	ErrConnectionFailed      = errors.New("vecstore: connection failed")
	ErrInvalidCollectionName = errors.New("vecstore: invalid collection name")
)

// CollectionInfo summarizes a collection for the Browser facet.
type CollectionInfo struct {
	Name        string
	VectorCount int64
	FileCount   int64
	Dimensions  *int
	Provider    string
}

// SearchResult is the contract from spec: adapters normalize Score to
// similarity (higher is better) regardless of their native metric.
type SearchResult struct {
	ID        string
	FilePath  string
	StartLine int
	Content   string
	Score     float64
	Language  string
}

// FileInfo describes a distinct file present in a collection's metadata.
type FileInfo struct {
	Path       string
	ChunkCount int
	Language   string
}

// Metadata keys shared across adapters for extracting file/language/line
// fields out of the free-form per-vector metadata map.
const (
	MetaFilePath  = "file_path"
	MetaStartLine = "start_line"
	MetaLanguage  = "language"
	MetaContent   = "content"
)
