// Package filehash tracks per-(project, collection, file) content
// hashes so the incremental indexing service can tell unchanged files
// apart from new or modified ones without re-embedding everything on
// every run. Deletions are soft (tombstoned via deleted_at) and swept
// by TTL rather than removed immediately, so a file that reappears
// within the TTL window is recognized as a resurrection rather than
// a brand new file.
package filehash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// DefaultTombstoneTTL matches the original's 30-day retention window.
const DefaultTombstoneTTL = 30 * 24 * time.Hour

// Record is one file's tracked hash state.
type Record struct {
	ProjectID   string
	Collection  string
	FilePath    string
	ContentHash string
	IndexedAt   int64
	DeletedAt   *int64
}

// Store tracks file content hashes for incremental indexing.
type Store struct {
	exec dbexec.Executor
	log  *zap.Logger
	now  func() time.Time
}

// New builds a Store over exec. Pass a nil logger to use a no-op logger.
func New(exec dbexec.Executor, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{exec: exec, log: log, now: time.Now}
}

// ComputeHash streams path through SHA-256, matching the original's
// buffered-reader approach so large files never load fully into memory.
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", mcberrors.Wrap(mcberrors.KindIO, fmt.Sprintf("open file %q", path), err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", mcberrors.Wrap(mcberrors.KindIO, fmt.Sprintf("read file %q", path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetHash returns the live (non-tombstoned) hash for a file, or
// ("", false, nil) if it is untracked or tombstoned.
func (s *Store) GetHash(ctx context.Context, projectID, collection, filePath string) (string, bool, error) {
	row, err := s.exec.QueryOne(ctx, `
		SELECT content_hash FROM file_hashes
		WHERE project_id = ? AND collection = ? AND file_path = ? AND deleted_at IS NULL`,
		[]dbexec.Param{dbexec.String(projectID), dbexec.String(collection), dbexec.String(filePath)})
	if err != nil {
		return "", false, mcberrors.Wrap(mcberrors.KindDatabase, "get file hash", err)
	}
	if row == nil {
		return "", false, nil
	}
	hash, ok, err := row.TryGetString("content_hash")
	if err != nil {
		return "", false, mcberrors.Wrap(mcberrors.KindDatabase, "scan file hash", err)
	}
	return hash, ok, nil
}

// HasChanged reports whether currentHash differs from the stored live
// hash, or is true for files that are untracked or tombstoned (treated
// as new).
func (s *Store) HasChanged(ctx context.Context, projectID, collection, filePath, currentHash string) (bool, error) {
	stored, ok, err := s.GetHash(ctx, projectID, collection, filePath)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return stored != currentHash, nil
}

// UpsertHash records hash as the file's current state, clearing any
// tombstone — a file that reappears after deletion is a resurrection,
// not a fresh insert.
func (s *Store) UpsertHash(ctx context.Context, projectID, collection, filePath, hash string) error {
	now := s.now().Unix()
	_, err := s.exec.Execute(ctx, `
		INSERT INTO file_hashes (project_id, collection, file_path, content_hash, indexed_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, NULL)
		ON CONFLICT(project_id, collection, file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			indexed_at = excluded.indexed_at,
			deleted_at = NULL`,
		[]dbexec.Param{
			dbexec.String(projectID), dbexec.String(collection), dbexec.String(filePath),
			dbexec.String(hash), dbexec.Int64(now),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "upsert file hash", err)
	}
	return nil
}

// MarkDeleted tombstones a file's record.
func (s *Store) MarkDeleted(ctx context.Context, projectID, collection, filePath string) error {
	now := s.now().Unix()
	_, err := s.exec.Execute(ctx,
		`UPDATE file_hashes SET deleted_at = ? WHERE project_id = ? AND collection = ? AND file_path = ?`,
		[]dbexec.Param{dbexec.Int64(now), dbexec.String(projectID), dbexec.String(collection), dbexec.String(filePath)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "mark file hash deleted", err)
	}
	return nil
}

// IndexedFiles returns every live (non-tombstoned) file path tracked
// for a collection, used to detect files removed from disk between
// indexing runs.
func (s *Store) IndexedFiles(ctx context.Context, projectID, collection string) ([]string, error) {
	rows, err := s.exec.QueryAll(ctx,
		`SELECT file_path FROM file_hashes WHERE project_id = ? AND collection = ? AND deleted_at IS NULL`,
		[]dbexec.Param{dbexec.String(projectID), dbexec.String(collection)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list indexed files", err)
	}

	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		path, ok, err := row.TryGetString("file_path")
		if err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindDatabase, "scan indexed file path", err)
		}
		if ok {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// CleanupTombstones deletes tombstones older than ttl, returning the
// number of rows removed.
func (s *Store) CleanupTombstones(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := s.now().Add(-ttl).Unix()
	n, err := s.exec.Execute(ctx,
		`DELETE FROM file_hashes WHERE deleted_at IS NOT NULL AND deleted_at < ?`,
		[]dbexec.Param{dbexec.Int64(cutoff)})
	if err != nil {
		return 0, mcberrors.Wrap(mcberrors.KindDatabase, "cleanup tombstones", err)
	}
	if n > 0 {
		s.log.Info("tombstone cleanup complete", zap.Int64("deleted", n))
	}
	return n, nil
}

// TombstoneCount returns the number of tombstoned records for a collection.
func (s *Store) TombstoneCount(ctx context.Context, projectID, collection string) (int64, error) {
	row, err := s.exec.QueryOne(ctx,
		`SELECT COUNT(*) AS n FROM file_hashes WHERE project_id = ? AND collection = ? AND deleted_at IS NOT NULL`,
		[]dbexec.Param{dbexec.String(projectID), dbexec.String(collection)})
	if err != nil {
		return 0, mcberrors.Wrap(mcberrors.KindDatabase, "count tombstones", err)
	}
	if row == nil {
		return 0, nil
	}
	n, _, err := row.TryGetInt64("n")
	if err != nil {
		return 0, mcberrors.Wrap(mcberrors.KindDatabase, "scan tombstone count", err)
	}
	return n, nil
}

// ClearCollection deletes every record (live and tombstoned) for a
// collection, used when a collection is dropped entirely.
func (s *Store) ClearCollection(ctx context.Context, projectID, collection string) (int64, error) {
	n, err := s.exec.Execute(ctx,
		`DELETE FROM file_hashes WHERE project_id = ? AND collection = ?`,
		[]dbexec.Param{dbexec.String(projectID), dbexec.String(collection)})
	if err != nil {
		return 0, mcberrors.Wrap(mcberrors.KindDatabase, "clear collection file hashes", err)
	}
	return n, nil
}
