// Package memory implements the Memory Repository: durable storage
// for observations and session summaries, full-text search over
// observation content, and timeline assembly around an anchor
// observation. It sits on top of internal/dbexec the way the
// original's SqliteMemoryRepository sits on top of its DatabaseExecutor
// port, decoupled from any one SQL driver.
package memory

// ObservationType classifies an observation, matching the fixed enum
// spec.md names.
type ObservationType string

const (
	TypeContext     ObservationType = "context"
	TypeDiscovery   ObservationType = "discovery"
	TypeDecision    ObservationType = "decision"
	TypeQualityGate ObservationType = "quality_gate"
	TypeExecution   ObservationType = "execution"
	TypeSession     ObservationType = "session"
)

// Observation is an immutable record of something an agent saw or
// decided. ContentHash is the dedup key: re-ingesting identical content
// replaces Tags and Metadata but preserves ID and CreatedAt.
type Observation struct {
	ID          string
	ProjectID   string
	Content     string
	ContentHash string
	Tags        []string
	Type        ObservationType
	Metadata    map[string]any
	CreatedAt   int64
	EmbeddingID *string
}

// SessionSummary is a distilled end-of-session artifact. The latest
// summary per SessionID wins for lookups; writes upsert by ID.
type SessionSummary struct {
	ID            string
	ProjectID     string
	SessionID     string
	Topics        []string
	Decisions     []string
	NextSteps     []string
	KeyFiles      []string
	OriginContext map[string]any
	CreatedAt     int64
}

// TimeRange bounds CreatedAt inclusively between Start and End.
type TimeRange struct {
	Start int64
	End   int64
}

// Filter narrows observation queries. All non-zero fields AND
// together; Tags requires every listed tag to be present. Unknown
// filter keys have no Go representation and are simply absent.
type Filter struct {
	SessionID       string
	ParentSessionID string
	RepoID          string
	Branch          string
	Commit          string
	ObservationType ObservationType
	TimeRange       *TimeRange
	Tags            []string
}

// FtsResult is one ranked full-text search hit. Rank is the backend's
// raw FTS score — SQLite FTS5's bm25() is ascending (lower is better);
// the hybrid engine normalizes this uniformly, see internal/hybrid.
type FtsResult struct {
	ID   string
	Rank float64
}
