package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// Store is the SQLite-backed Repository implementation.
type Store struct {
	exec dbexec.Executor
	log  *zap.Logger
}

// New builds a Store over exec. Pass a nil logger to use a no-op logger.
func New(exec dbexec.Executor, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{exec: exec, log: log}
}

var _ Repository = (*Store)(nil)

// ensureOrgAndProject provisions a default organization and project
// row before a write whose tenancy has not been explicitly created,
// the one documented exception to "repositories never invent
// synthetic parents silently".
func (s *Store) ensureOrgAndProject(ctx context.Context, projectID string, createdAt int64) error {
	const defaultOrgID = "default"

	if _, err := s.exec.Execute(ctx,
		`INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		[]dbexec.Param{dbexec.String(defaultOrgID), dbexec.String("default"), dbexec.Int64(createdAt)}); err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "ensure default organization", err)
	}

	if _, err := s.exec.Execute(ctx,
		`INSERT INTO projects (id, org_id, name, path, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		[]dbexec.Param{
			dbexec.String(projectID), dbexec.String(defaultOrgID), dbexec.String(projectID),
			dbexec.String(""), dbexec.Int64(createdAt), dbexec.Int64(createdAt),
		}); err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "ensure default project", err)
	}
	return nil
}

func (s *Store) StoreObservation(ctx context.Context, obs Observation) error {
	if err := s.ensureOrgAndProject(ctx, obs.ProjectID, obs.CreatedAt); err != nil {
		return err
	}

	tagsJSON, err := json.Marshal(obs.Tags)
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindMemory, "serialize tags", err)
	}
	metadataJSON, err := json.Marshal(obs.Metadata)
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindMemory, "serialize metadata", err)
	}

	embeddingID := dbexec.Null()
	if obs.EmbeddingID != nil {
		embeddingID = dbexec.String(*obs.EmbeddingID)
	}

	_, err = s.exec.Execute(ctx, `
		INSERT INTO observations (id, project_id, content, content_hash, tags, observation_type, metadata, created_at, embedding_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			tags = excluded.tags,
			metadata = excluded.metadata`,
		[]dbexec.Param{
			dbexec.String(obs.ID), dbexec.String(obs.ProjectID), dbexec.String(obs.Content),
			dbexec.String(obs.ContentHash), dbexec.String(string(tagsJSON)), dbexec.String(string(obs.Type)),
			dbexec.String(string(metadataJSON)), dbexec.Int64(obs.CreatedAt), embeddingID,
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "store observation", err)
	}
	return nil
}

func (s *Store) GetObservation(ctx context.Context, id string) (*Observation, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM observations WHERE id = ?", []dbexec.Param{dbexec.String(id)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get observation", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToObservation(row)
}

func (s *Store) FindByHash(ctx context.Context, contentHash string) (*Observation, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM observations WHERE content_hash = ?", []dbexec.Param{dbexec.String(contentHash)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "find observation by hash", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToObservation(row)
}

func (s *Store) DeleteObservation(ctx context.Context, id string) error {
	if _, err := s.exec.Execute(ctx, "DELETE FROM observations WHERE id = ?", []dbexec.Param{dbexec.String(id)}); err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "delete observation", err)
	}
	return nil
}

func (s *Store) GetObservationsByIDs(ctx context.Context, ids []string) ([]Observation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	params := make([]dbexec.Param, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		params[i] = dbexec.String(id)
	}
	query := fmt.Sprintf("SELECT * FROM observations WHERE id IN (%s)", strings.Join(placeholders, ","))

	rows, err := s.exec.QueryAll(ctx, query, params)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get observations by ids", err)
	}
	return rowsToObservations(rows)
}

func (s *Store) SearchFTS(ctx context.Context, query string, limit int) ([]string, error) {
	ranked, err := s.SearchFTSRanked(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids, nil
}

func (s *Store) SearchFTSRanked(ctx context.Context, query string, limit int) ([]FtsResult, error) {
	rows, err := s.exec.QueryAll(ctx,
		"SELECT id, rank FROM observations_fts WHERE observations_fts MATCH ? ORDER BY rank LIMIT ?",
		[]dbexec.Param{dbexec.String(query), dbexec.Int64(int64(limit))})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "fts search", err)
	}

	results := make([]FtsResult, 0, len(rows))
	for _, row := range rows {
		id, ok, err := row.TryGetString("id")
		if err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindDatabase, "scan fts result id", err)
		}
		if !ok {
			return nil, mcberrors.New(mcberrors.KindMemory, "fts result missing id")
		}
		rank, _, err := row.TryGetFloat64("rank")
		if err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindDatabase, "scan fts result rank", err)
		}
		results = append(results, FtsResult{ID: id, Rank: rank})
	}
	return results, nil
}

// buildFilterSQL renders Filter as a WHERE-clause suffix over
// JSON-extracted metadata keys, matching the original's
// build_timeline_filter_sql.
func buildFilterSQL(filter *Filter) (string, []dbexec.Param) {
	var b strings.Builder
	var params []dbexec.Param

	if filter == nil {
		return "", params
	}
	if filter.SessionID != "" {
		b.WriteString(" AND json_extract(metadata, '$.session_id') = ?")
		params = append(params, dbexec.String(filter.SessionID))
	}
	if filter.ParentSessionID != "" {
		b.WriteString(" AND json_extract(metadata, '$.parent_session_id') = ?")
		params = append(params, dbexec.String(filter.ParentSessionID))
	}
	if filter.RepoID != "" {
		b.WriteString(" AND json_extract(metadata, '$.repo_id') = ?")
		params = append(params, dbexec.String(filter.RepoID))
	}
	if filter.Branch != "" {
		b.WriteString(" AND json_extract(metadata, '$.branch') = ?")
		params = append(params, dbexec.String(filter.Branch))
	}
	if filter.Commit != "" {
		b.WriteString(" AND json_extract(metadata, '$.commit') = ?")
		params = append(params, dbexec.String(filter.Commit))
	}
	if filter.ObservationType != "" {
		b.WriteString(" AND observation_type = ?")
		params = append(params, dbexec.String(string(filter.ObservationType)))
	}
	if filter.TimeRange != nil {
		b.WriteString(" AND created_at >= ? AND created_at <= ?")
		params = append(params, dbexec.Int64(filter.TimeRange.Start), dbexec.Int64(filter.TimeRange.End))
	}
	return b.String(), params
}

// matchesTags reports whether every tag in filter.Tags is present in
// obs.Tags; tag membership is checked in Go after the row is decoded
// since SQLite's JSON functions make an exact "superset" predicate
// awkward to express portably across dialects.
func matchesTags(obs Observation, want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]bool, len(obs.Tags))
	for _, t := range obs.Tags {
		have[t] = true
	}
	for _, t := range want {
		if !have[t] {
			return false
		}
	}
	return true
}

func (s *Store) SearchFiltered(ctx context.Context, filter Filter, limit int) ([]Observation, error) {
	whereSQL, params := buildFilterSQL(&filter)
	query := "SELECT * FROM observations WHERE 1=1" + whereSQL + " ORDER BY created_at DESC"

	rows, err := s.exec.QueryAll(ctx, query, params)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "search filtered observations", err)
	}
	observations, err := rowsToObservations(rows)
	if err != nil {
		return nil, err
	}

	var out []Observation
	for _, obs := range observations {
		if !matchesTags(obs, filter.Tags) {
			continue
		}
		out = append(out, obs)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetTimeline(ctx context.Context, anchorID string, before, after int, filter *Filter) ([]Observation, error) {
	anchor, err := s.GetObservation(ctx, anchorID)
	if err != nil {
		return nil, err
	}
	if anchor == nil {
		return nil, nil
	}

	baseSQL := "SELECT * FROM observations WHERE 1=1"
	whereSQL, baseParams := buildFilterSQL(filter)
	baseSQL += whereSQL

	beforeRows, err := s.queryTimelineWindow(ctx, baseSQL, baseParams, anchor.CreatedAt, before, "DESC")
	if err != nil {
		return nil, err
	}
	afterRows, err := s.queryTimelineWindow(ctx, baseSQL, baseParams, anchor.CreatedAt, after, "ASC")
	if err != nil {
		return nil, err
	}

	timeline := make([]Observation, 0, len(beforeRows)+len(afterRows)+1)
	for i := len(beforeRows) - 1; i >= 0; i-- {
		timeline = append(timeline, beforeRows[i])
	}
	timeline = append(timeline, *anchor)
	timeline = append(timeline, afterRows...)
	return timeline, nil
}

func (s *Store) queryTimelineWindow(ctx context.Context, baseSQL string, baseParams []dbexec.Param, anchorTime int64, limit int, order string) ([]Observation, error) {
	op := ">"
	if order == "DESC" {
		op = "<"
	}
	query := fmt.Sprintf("%s AND created_at %s ? ORDER BY created_at %s LIMIT ?", baseSQL, op, order)

	params := make([]dbexec.Param, 0, len(baseParams)+2)
	params = append(params, baseParams...)
	params = append(params, dbexec.Int64(anchorTime), dbexec.Int64(int64(limit)))

	rows, err := s.exec.QueryAll(ctx, query, params)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "query timeline window", err)
	}
	return rowsToObservations(rows)
}

func (s *Store) StoreSessionSummary(ctx context.Context, summary SessionSummary) error {
	if err := s.ensureOrgAndProject(ctx, summary.ProjectID, summary.CreatedAt); err != nil {
		return err
	}

	topics, err := json.Marshal(summary.Topics)
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindMemory, "serialize topics", err)
	}
	decisions, err := json.Marshal(summary.Decisions)
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindMemory, "serialize decisions", err)
	}
	nextSteps, err := json.Marshal(summary.NextSteps)
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindMemory, "serialize next_steps", err)
	}
	keyFiles, err := json.Marshal(summary.KeyFiles)
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindMemory, "serialize key_files", err)
	}
	originContext, err := json.Marshal(summary.OriginContext)
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindMemory, "serialize origin_context", err)
	}

	_, err = s.exec.Execute(ctx, `
		INSERT INTO session_summaries (id, project_id, session_id, topics, decisions, next_steps, key_files, origin_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topics = excluded.topics,
			decisions = excluded.decisions,
			next_steps = excluded.next_steps,
			key_files = excluded.key_files,
			origin_context = excluded.origin_context`,
		[]dbexec.Param{
			dbexec.String(summary.ID), dbexec.String(summary.ProjectID), dbexec.String(summary.SessionID),
			dbexec.String(string(topics)), dbexec.String(string(decisions)), dbexec.String(string(nextSteps)),
			dbexec.String(string(keyFiles)), dbexec.String(string(originContext)), dbexec.Int64(summary.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "store session summary", err)
	}
	return nil
}

func (s *Store) GetSessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	row, err := s.exec.QueryOne(ctx,
		"SELECT * FROM session_summaries WHERE session_id = ? ORDER BY created_at DESC LIMIT 1",
		[]dbexec.Param{dbexec.String(sessionID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get session summary", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToSessionSummary(row)
}
