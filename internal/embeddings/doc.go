// Package embeddings provides embedding generation via a Text Embeddings
// Inference (TEI) HTTP endpoint, used as the EmbeddingProvider behind the
// hybrid retrieval engine and the incremental indexing service.
package embeddings
