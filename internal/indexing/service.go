package indexing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/filehash"
)

// FileIndexer performs the project-specific chunking/embedding for one
// changed file; the walk and hash-diff logic here never touches
// content directly. relPath is slash-separated and relative to the
// collection's root.
type FileIndexer interface {
	IndexFile(ctx context.Context, projectID, collection, relPath, absPath string) error
}

// Service implements index_repository: directory walk, incremental
// hash diffing, submodule recursion, and project detection.
type Service struct {
	hashes     *filehash.Store
	indexer    FileIndexer
	detector   ProjectDetector
	submodules SubmoduleCollector
	log        *zap.Logger
}

// New builds a Service. detector and submodules may be nil to disable
// project detection / submodule recursion even when Options requests them.
func New(hashes *filehash.Store, indexer FileIndexer, detector ProjectDetector, submodules SubmoduleCollector, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{hashes: hashes, indexer: indexer, detector: detector, submodules: submodules, log: log}
}

// IndexRepository walks repoPath and indexes it per opts, recursing
// into submodules up to opts.SubmoduleDepth.
func (s *Service) IndexRepository(ctx context.Context, projectID, repoPath string, opts Options) (*Result, error) {
	start := time.Now()

	collection := opts.Collection
	if collection == "" {
		collection = deriveCollectionName(repoPath)
	}

	var projects []DetectedProject
	if opts.DetectProjects && s.detector != nil {
		for _, pt := range s.detector.DetectAll(repoPath) {
			projects = append(projects, DetectedProject{Path: ".", ProjectType: pt})
		}
	}

	indexed, skipped, err := s.indexDirectory(ctx, projectID, repoPath, collection, opts.Incremental)
	if err != nil {
		return nil, err
	}

	var subResults []SubmoduleResult
	if opts.SubmoduleDepth > 0 && s.submodules != nil {
		repoID := deriveRepoID(repoPath)
		subs, err := s.submodules.Collect(repoPath, opts.SubmoduleDepth)
		if err != nil {
			return nil, fmt.Errorf("collecting submodules: %w", err)
		}

		for _, sub := range subs {
			subPath := absSubmodulePath(repoPath, sub.Path)
			if _, err := os.Stat(subPath); err != nil {
				s.log.Warn("submodule path does not exist, skipping", zap.String("path", sub.Path))
				continue
			}

			subCollection := hierarchicalCollectionName(collection, sub.Path)

			var subProjects []ProjectType
			if opts.DetectProjects && s.detector != nil {
				subProjects = s.detector.DetectAll(subPath)
				for _, pt := range subProjects {
					projects = append(projects, DetectedProject{
						Path: sub.Path, ProjectType: pt,
						ParentRepoID: repoID, HasParentRepoID: true,
					})
				}
			}

			subIndexed, subSkipped, err := s.indexDirectory(ctx, projectID, subPath, subCollection, opts.Incremental)
			if err != nil {
				return nil, err
			}
			subResults = append(subResults, SubmoduleResult{
				Path:         sub.Path,
				Collection:   subCollection,
				FilesIndexed: subIndexed,
				FilesSkipped: subSkipped,
				Projects:     subProjects,
			})
		}
	}

	return &Result{
		Collection:   collection,
		FilesIndexed: indexed,
		FilesSkipped: skipped,
		Submodules:   subResults,
		Projects:     projects,
		DurationMS:   time.Since(start).Milliseconds(),
	}, nil
}

func (s *Service) indexDirectory(ctx context.Context, projectID, rootPath, collection string, incremental bool) (indexedCount, skippedCount int, err error) {
	current := make(map[string]bool)

	walkErr := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && defaultSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		// do not follow symlinks
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(rootPath, path)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}
		rel = filepath.ToSlash(rel)
		current[rel] = true

		hash, hashErr := filehash.ComputeHash(path)
		if hashErr != nil {
			s.log.Warn("failed to hash file, skipping", zap.String("path", rel), zap.Error(hashErr))
			return nil
		}

		if !incremental {
			if err := s.indexer.IndexFile(ctx, projectID, collection, rel, path); err != nil {
				return fmt.Errorf("indexing %s: %w", rel, err)
			}
			if err := s.hashes.UpsertHash(ctx, projectID, collection, rel, hash); err != nil {
				return fmt.Errorf("upserting hash for %s: %w", rel, err)
			}
			indexedCount++
			return nil
		}

		changed, err := s.hashes.HasChanged(ctx, projectID, collection, rel, hash)
		if err != nil {
			return fmt.Errorf("checking change for %s: %w", rel, err)
		}
		if !changed {
			skippedCount++
			return nil
		}

		if err := s.indexer.IndexFile(ctx, projectID, collection, rel, path); err != nil {
			return fmt.Errorf("indexing %s: %w", rel, err)
		}
		if err := s.hashes.UpsertHash(ctx, projectID, collection, rel, hash); err != nil {
			return fmt.Errorf("upserting hash for %s: %w", rel, err)
		}
		indexedCount++
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return indexedCount, skippedCount, walkErr
		}
		return indexedCount, skippedCount, fmt.Errorf("walking %s: %w", rootPath, walkErr)
	}

	if incremental {
		if err := s.sweepTombstones(ctx, projectID, collection, current); err != nil {
			return indexedCount, skippedCount, err
		}
	}

	return indexedCount, skippedCount, nil
}

// sweepTombstones marks every previously-indexed file absent from the
// current walk as deleted.
func (s *Service) sweepTombstones(ctx context.Context, projectID, collection string, current map[string]bool) error {
	previous, err := s.hashes.IndexedFiles(ctx, projectID, collection)
	if err != nil {
		return fmt.Errorf("listing previously indexed files: %w", err)
	}
	for _, old := range previous {
		if current[old] {
			continue
		}
		if err := s.hashes.MarkDeleted(ctx, projectID, collection, old); err != nil {
			return fmt.Errorf("marking %s deleted: %w", old, err)
		}
	}
	return nil
}

func deriveCollectionName(path string) string {
	name := filepath.Base(filepath.Clean(path))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "default"
	}
	return name
}

// deriveRepoID identifies a repository for submodule parent-linking.
// A real deployment would use the root commit hash; lacking a cheap
// way to get that without opening the repo twice, the collection name
// is a stable enough proxy for correlating detected projects.
func deriveRepoID(path string) string {
	return deriveCollectionName(path)
}
