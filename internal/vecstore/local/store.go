package local

import (
	"context"

	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/mcberrors"
	"github.com/marlonsc/mcb/internal/vecstore"
)

// Store is the vecstore.Store adapter backed by the in-process actor.
// It is a single-process stand-in for a real vector database, used in
// tests and single-binary deployments.
type Store struct {
	actor  *actor
	cancel context.CancelFunc
	log    *zap.Logger
}

var _ vecstore.Store = (*Store)(nil)

// New starts the actor goroutine and returns a Store bound to it.
// dimensions is advisory (reported via GetStats); the brute-force index
// accepts vectors of any length at insert time.
func New(dimensions int, log *zap.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	a := newActor(dimensions)
	go a.run(ctx)
	return &Store{actor: a, cancel: cancel, log: log}
}

// Close stops the actor goroutine. The Store must not be used afterward.
func (s *Store) Close() {
	s.cancel()
}

func (s *Store) ProviderName() string { return "local" }

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case s.actor.queryCh <- collectionExistsMsg{name: name, reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case exists := <-reply:
		return exists, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *Store) GetStats(ctx context.Context, collection string) (map[string]any, error) {
	reply := make(chan statsReply, 1)
	select {
	case s.actor.queryCh <- getStatsMsg{collection: collection, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.stats, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) Flush(ctx context.Context, collection string) error {
	// The local index is entirely in-memory; there is nothing to flush.
	return nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, dimensions int) error {
	reply := make(chan error, 1)
	select {
	case s.actor.coreCh <- createCollectionMsg{name: name, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	reply := make(chan error, 1)
	select {
	case s.actor.coreCh <- deleteCollectionMsg{name: name, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) InsertVectors(ctx context.Context, collection string, embeddings [][]float32, metadata []map[string]any) ([]string, error) {
	reply := make(chan insertReply, 1)
	select {
	case s.actor.coreCh <- insertVectorsMsg{collection: collection, vectors: embeddings, metadata: metadata, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		if r.err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "insert vectors", r.err)
		}
		return r.ids, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) SearchSimilar(ctx context.Context, collection string, queryVec []float32, limit int, filterExpr string) ([]vecstore.SearchResult, error) {
	// filterExpr has no meaning for the local actor: it filters only by
	// collection membership, matching the edgevec actor it mirrors.
	reply := make(chan searchReply, 1)
	select {
	case s.actor.coreCh <- searchSimilarMsg{collection: collection, query: queryVec, limit: limit, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		if r.err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "search similar", r.err)
		}
		return r.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) DeleteVectors(ctx context.Context, collection string, ids []string) error {
	reply := make(chan error, 1)
	select {
	case s.actor.coreCh <- deleteVectorsMsg{collection: collection, ids: ids, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]vecstore.SearchResult, error) {
	reply := make(chan searchReply, 1)
	select {
	case s.actor.queryCh <- getVectorsByIDsMsg{collection: collection, ids: ids, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) ListVectors(ctx context.Context, collection string, limit int) ([]vecstore.SearchResult, error) {
	reply := make(chan searchReply, 1)
	select {
	case s.actor.queryCh <- listVectorsMsg{collection: collection, limit: limit, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) ListCollections(ctx context.Context) ([]vecstore.CollectionInfo, error) {
	reply := make(chan []vecstore.CollectionInfo, 1)
	select {
	case s.actor.browseCh <- listCollectionsMsg{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) ListFilePaths(ctx context.Context, collection string, limit int) ([]vecstore.FileInfo, error) {
	reply := make(chan listFilePathsReply, 1)
	select {
	case s.actor.browseCh <- listFilePathsMsg{collection: collection, limit: limit, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		if r.err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "list file paths", r.err)
		}
		return r.files, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) GetChunksByFile(ctx context.Context, collection string, filePath string) ([]vecstore.SearchResult, error) {
	reply := make(chan searchReply, 1)
	select {
	case s.actor.browseCh <- getChunksByFileMsg{collection: collection, filePath: filePath, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		if r.err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindVectorDB, "get chunks by file", r.err)
		}
		return r.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
