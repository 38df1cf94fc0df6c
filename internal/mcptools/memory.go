package mcptools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/mcberrors"
	"github.com/marlonsc/mcb/internal/memory"
)

// ===== memory.store =====

type MemoryStoreInput struct {
	ProjectID string          `json:"project_id" jsonschema:"required,Project identifier"`
	Content   string          `json:"content" jsonschema:"required,Observation content"`
	Type      string          `json:"type,omitempty" jsonschema:"One of context|discovery|decision|quality_gate|execution|session (default: context)"`
	Tags      []string        `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Metadata  json.RawMessage `json:"metadata,omitempty" jsonschema:"Arbitrary structured metadata"`
}

type MemoryStoreOutput struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
}

// StoreObservation derives an id and content hash, applies the default
// observation type, and persists through the memory repository.
func (t *Tools) StoreObservation(ctx context.Context, in MemoryStoreInput) (MemoryStoreOutput, error) {
	if in.ProjectID == "" {
		return MemoryStoreOutput{}, mcberrors.InvalidParams("project_id is required")
	}
	if in.Content == "" {
		return MemoryStoreOutput{}, mcberrors.InvalidParams("content is required")
	}

	obsType := memory.ObservationType(in.Type)
	if obsType == "" {
		obsType = memory.TypeContext
	}

	metadata, err := marshalMetadata(in.Metadata)
	if err != nil {
		return MemoryStoreOutput{}, mcberrors.InvalidParams("invalid metadata: " + err.Error())
	}

	contentHash := hashContent(in.Content)
	obs := memory.Observation{
		ID:          newID("obs"),
		ProjectID:   in.ProjectID,
		Content:     in.Content,
		ContentHash: contentHash,
		Tags:        in.Tags,
		Type:        obsType,
		Metadata:    metadata,
		CreatedAt:   t.nowUnix(),
	}

	if err := t.memRepo.StoreObservation(ctx, obs); err != nil {
		return MemoryStoreOutput{}, err
	}
	return MemoryStoreOutput{ID: obs.ID, ContentHash: contentHash}, nil
}

// ===== memory.get =====

type MemoryGetInput struct {
	ID string `json:"id" jsonschema:"required,Observation id"`
}

type MemoryGetOutput struct {
	Observation *memory.Observation `json:"observation"`
}

func (t *Tools) GetObservation(ctx context.Context, in MemoryGetInput) (MemoryGetOutput, error) {
	if in.ID == "" {
		return MemoryGetOutput{}, mcberrors.InvalidParams("id is required")
	}
	obs, err := t.memRepo.GetObservation(ctx, in.ID)
	if err != nil {
		return MemoryGetOutput{}, err
	}
	return MemoryGetOutput{Observation: obs}, nil
}

// ===== memory.search =====

type MemorySearchInput struct {
	ProjectID  string   `json:"project_id" jsonschema:"required,Project identifier"`
	Query      string   `json:"query" jsonschema:"required,Search query"`
	Collection string   `json:"collection,omitempty" jsonschema:"Vector store collection backing this project (default: project_id)"`
	SessionID  string   `json:"session_id,omitempty" jsonschema:"Filter by session"`
	RepoID     string   `json:"repo_id,omitempty" jsonschema:"Filter by repository"`
	Branch     string   `json:"branch,omitempty" jsonschema:"Filter by branch"`
	Tags       []string `json:"tags,omitempty" jsonschema:"Filter: every listed tag must be present"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum results (default: 10)"`
}

type MemorySearchOutput struct {
	Results []hybridResult `json:"results"`
	Count   int            `json:"count"`
}

type hybridResult struct {
	ID              string  `json:"id"`
	Content         string  `json:"content"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Search runs the hybrid retrieval engine's RRF pipeline, matching the
// engine's own filter and limit semantics. The memory repository alone
// (FTS-only) cannot be asked for this: the engine is required.
func (t *Tools) Search(ctx context.Context, in MemorySearchInput) (MemorySearchOutput, error) {
	if in.ProjectID == "" {
		return MemorySearchOutput{}, mcberrors.InvalidParams("project_id is required")
	}
	if in.Query == "" {
		return MemorySearchOutput{}, mcberrors.InvalidParams("query is required")
	}
	if t.engine == nil {
		return MemorySearchOutput{}, mcberrors.New(mcberrors.KindInternal, "hybrid engine not configured")
	}

	collection := in.Collection
	if collection == "" {
		collection = in.ProjectID
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}

	filter := memory.Filter{
		SessionID: in.SessionID,
		RepoID:    in.RepoID,
		Branch:    in.Branch,
		Tags:      in.Tags,
	}

	hits, err := t.engine.Search(ctx, in.Query, collection, filter, limit)
	if err != nil {
		return MemorySearchOutput{}, err
	}

	results := make([]hybridResult, len(hits))
	for i, h := range hits {
		results[i] = hybridResult{
			ID:              h.ID,
			Content:         h.Observation.Content,
			SimilarityScore: h.SimilarityScore,
		}
	}
	return MemorySearchOutput{Results: results, Count: len(results)}, nil
}

// ===== memory.timeline =====

type MemoryTimelineInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project identifier"`
	AnchorID  string `json:"anchor_id" jsonschema:"required,Observation id to center the window on"`
	Before    int    `json:"before,omitempty" jsonschema:"Observations strictly earlier than the anchor (default: 5)"`
	After     int    `json:"after,omitempty" jsonschema:"Observations strictly later than the anchor (default: 5)"`
}

type MemoryTimelineOutput struct {
	Observations []memory.Observation `json:"observations"`
}

func (t *Tools) Timeline(ctx context.Context, in MemoryTimelineInput) (MemoryTimelineOutput, error) {
	if in.AnchorID == "" {
		return MemoryTimelineOutput{}, mcberrors.InvalidParams("anchor_id is required")
	}
	before, after := in.Before, in.After
	if before <= 0 {
		before = 5
	}
	if after <= 0 {
		after = 5
	}
	filter := &memory.Filter{}
	obs, err := t.memRepo.GetTimeline(ctx, in.AnchorID, before, after, filter)
	if err != nil {
		return MemoryTimelineOutput{}, err
	}
	return MemoryTimelineOutput{Observations: obs}, nil
}

// ===== session_summary.store / .get =====

type SessionSummaryStoreInput struct {
	ProjectID string   `json:"project_id" jsonschema:"required,Project identifier"`
	SessionID string   `json:"session_id" jsonschema:"required,Session identifier"`
	Topics    []string `json:"topics,omitempty"`
	Decisions []string `json:"decisions,omitempty"`
	NextSteps []string `json:"next_steps,omitempty"`
	KeyFiles  []string `json:"key_files,omitempty"`
}

type SessionSummaryStoreOutput struct {
	ID string `json:"id"`
}

func (t *Tools) StoreSessionSummary(ctx context.Context, in SessionSummaryStoreInput) (SessionSummaryStoreOutput, error) {
	if in.ProjectID == "" || in.SessionID == "" {
		return SessionSummaryStoreOutput{}, mcberrors.InvalidParams("project_id and session_id are required")
	}
	summary := memory.SessionSummary{
		ID:        newID("sum"),
		ProjectID: in.ProjectID,
		SessionID: in.SessionID,
		Topics:    in.Topics,
		Decisions: in.Decisions,
		NextSteps: in.NextSteps,
		KeyFiles:  in.KeyFiles,
		CreatedAt: t.nowUnix(),
	}
	if err := t.memRepo.StoreSessionSummary(ctx, summary); err != nil {
		return SessionSummaryStoreOutput{}, err
	}
	return SessionSummaryStoreOutput{ID: summary.ID}, nil
}

type SessionSummaryGetInput struct {
	SessionID string `json:"session_id" jsonschema:"required,Session identifier"`
}

type SessionSummaryGetOutput struct {
	Summary *memory.SessionSummary `json:"summary"`
}

func (t *Tools) GetSessionSummary(ctx context.Context, in SessionSummaryGetInput) (SessionSummaryGetOutput, error) {
	if in.SessionID == "" {
		return SessionSummaryGetOutput{}, mcberrors.InvalidParams("session_id is required")
	}
	summary, err := t.memRepo.GetSessionSummary(ctx, in.SessionID)
	if err != nil {
		return SessionSummaryGetOutput{}, err
	}
	return SessionSummaryGetOutput{Summary: summary}, nil
}

func (t *Tools) registerMemoryTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "memory_store",
		Description: "Store an observation in the memory repository, deduplicated by content hash.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args MemoryStoreInput) (*mcp.CallToolResult, MemoryStoreOutput, error) {
		out, err := t.StoreObservation(ctx, args)
		if err != nil {
			t.toolLogger(ctx, "memory_store").Warn("store failed", zap.Error(err))
			return nil, MemoryStoreOutput{}, err
		}
		return nil, out, nil
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "memory_get",
		Description: "Fetch a single observation by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args MemoryGetInput) (*mcp.CallToolResult, MemoryGetOutput, error) {
		out, err := t.GetObservation(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "memory_search",
		Description: "Hybrid (full-text + vector) search over stored observations, fused via Reciprocal Rank Fusion.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args MemorySearchInput) (*mcp.CallToolResult, MemorySearchOutput, error) {
		out, err := t.Search(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "memory_timeline",
		Description: "Return observations around an anchor, ordered by creation time.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args MemoryTimelineInput) (*mcp.CallToolResult, MemoryTimelineOutput, error) {
		out, err := t.Timeline(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "session_summary_store",
		Description: "Store an end-of-session distilled summary.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SessionSummaryStoreInput) (*mcp.CallToolResult, SessionSummaryStoreOutput, error) {
		out, err := t.StoreSessionSummary(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "session_summary_get",
		Description: "Fetch the latest session summary for a session id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SessionSummaryGetInput) (*mcp.CallToolResult, SessionSummaryGetOutput, error) {
		out, err := t.GetSessionSummary(ctx, args)
		return nil, out, err
	})
}
