package memory

import "context"

// Repository is the Memory Repository port: durable storage for
// observations and session summaries, plus full-text search and
// timeline assembly. Implemented today by Store over internal/dbexec.
type Repository interface {
	StoreObservation(ctx context.Context, obs Observation) error
	GetObservation(ctx context.Context, id string) (*Observation, error)
	FindByHash(ctx context.Context, contentHash string) (*Observation, error)
	GetObservationsByIDs(ctx context.Context, ids []string) ([]Observation, error)
	DeleteObservation(ctx context.Context, id string) error

	// SearchFTS returns bare ids ranked by the backend's FTS score.
	SearchFTS(ctx context.Context, query string, limit int) ([]string, error)
	// SearchFTSRanked returns ids with their backend rank, for fusion by
	// the hybrid retrieval engine.
	SearchFTSRanked(ctx context.Context, query string, limit int) ([]FtsResult, error)

	// SearchFiltered applies Filter against stored observations (no
	// embedding-similarity scoring — that is the vector store's job),
	// returning up to limit matches ordered by created_at descending.
	SearchFiltered(ctx context.Context, filter Filter, limit int) ([]Observation, error)

	// GetTimeline returns the anchor plus up to `before` observations
	// strictly earlier and up to `after` strictly later (by created_at),
	// subject to filter. Empty if the anchor is not found.
	GetTimeline(ctx context.Context, anchorID string, before, after int, filter *Filter) ([]Observation, error)

	StoreSessionSummary(ctx context.Context, summary SessionSummary) error
	GetSessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error)
}
