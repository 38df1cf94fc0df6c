package indexing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/memory"
	"github.com/marlonsc/mcb/internal/vecstore"
)

// chunkLines is the number of source lines grouped into one embedded
// chunk. A line-window split needs no language-aware parser and keeps
// every chunk small enough for an embedding model's context budget.
const chunkLines = 200

// maxIndexableBytes skips files too large to be worth chunking whole;
// these are almost always generated artifacts that slipped past
// defaultSkipDirs.
const maxIndexableBytes = 2 << 20 // 2 MiB

// DocumentEmbedder produces embeddings for a batch of chunk texts.
// internal/embeddings.Service satisfies this.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorFileIndexer is the default FileIndexer: it splits a file into
// line-window chunks, embeds them, stores the vectors in the
// configured vecstore.Store, and mirrors each chunk into the Memory
// Repository as an Observation under the vector store's own assigned
// ID, so the Hybrid Retrieval Engine can fuse full-text and vector
// ranking over the same identifiers.
type VectorFileIndexer struct {
	repo     memory.Repository
	store    vecstore.Store
	embedder DocumentEmbedder
	log      *zap.Logger
}

// NewVectorFileIndexer builds a VectorFileIndexer. embedder may be
// nil, in which case IndexFile is a no-op: the walk and hash-diff
// still run, but nothing new appears in the vector store until a real
// embedder is configured.
func NewVectorFileIndexer(repo memory.Repository, store vecstore.Store, embedder DocumentEmbedder, log *zap.Logger) *VectorFileIndexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &VectorFileIndexer{repo: repo, store: store, embedder: embedder, log: log}
}

var _ FileIndexer = (*VectorFileIndexer)(nil)

func (x *VectorFileIndexer) IndexFile(ctx context.Context, projectID, collection, relPath, absPath string) error {
	if x.embedder == nil {
		return nil
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", relPath, err)
	}
	if info.Size() == 0 || info.Size() > maxIndexableBytes {
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", relPath, err)
	}
	if bytes.IndexByte(content, 0) != -1 {
		return nil // binary, nothing to chunk
	}

	chunks := chunkByLines(string(content), chunkLines)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.text
	}
	vectors, err := x.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %s: %w", relPath, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding %s: expected %d vectors, got %d", relPath, len(chunks), len(vectors))
	}

	if err := x.ensureCollection(ctx, collection, len(vectors[0])); err != nil {
		return err
	}

	language := detectLanguage(relPath)
	metadata := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		metadata[i] = map[string]any{
			vecstore.MetaFilePath:  relPath,
			vecstore.MetaStartLine: c.startLine,
			vecstore.MetaLanguage:  language,
			vecstore.MetaContent:   c.text,
		}
	}

	ids, err := x.store.InsertVectors(ctx, collection, vectors, metadata)
	if err != nil {
		return fmt.Errorf("inserting vectors for %s: %w", relPath, err)
	}

	createdAt := info.ModTime().Unix()
	for i, id := range ids {
		sum := sha256.Sum256([]byte(chunks[i].text))
		obs := memory.Observation{
			ID:          id,
			ProjectID:   projectID,
			Content:     chunks[i].text,
			ContentHash: hex.EncodeToString(sum[:]),
			Tags:        []string{"code", language},
			Type:        memory.TypeContext,
			Metadata: map[string]any{
				"file_path":  relPath,
				"collection": collection,
				"start_line": chunks[i].startLine,
			},
			CreatedAt: createdAt,
		}
		if err := x.repo.StoreObservation(ctx, obs); err != nil {
			return fmt.Errorf("storing observation for %s chunk %d: %w", relPath, i, err)
		}
	}
	return nil
}

func (x *VectorFileIndexer) ensureCollection(ctx context.Context, collection string, dimensions int) error {
	exists, err := x.store.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", collection, err)
	}
	if exists {
		return nil
	}
	if err := x.store.CreateCollection(ctx, collection, dimensions); err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	return nil
}

type lineChunk struct {
	text      string
	startLine int
}

// chunkByLines groups content into windows of linesPerChunk lines,
// recording each window's 1-based starting line.
func chunkByLines(content string, linesPerChunk int) []lineChunk {
	lines := strings.Split(content, "\n")
	var chunks []lineChunk
	for start := 0; start < len(lines); start += linesPerChunk {
		end := start + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if text == "" {
			continue
		}
		chunks = append(chunks, lineChunk{text: text, startLine: start + 1})
	}
	return chunks
}

// languageByExt maps a file extension to the language tag attached to
// its chunks' metadata, extending the ecosystems detector.go already
// recognizes by marker file with the per-file extensions those
// ecosystems are made of.
var languageByExt = map[string]string{
	".go":    "go",
	".rs":    "rust",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".sh":    "shell",
	".sql":   "sql",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".md":    "markdown",
	".proto": "protobuf",
}

func detectLanguage(relPath string) string {
	ext := strings.ToLower(filepath.Ext(relPath))
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	return "text"
}
