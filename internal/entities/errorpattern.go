package entities

import (
	"context"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// ErrorPattern is a known failure signature tracked per project.
type ErrorPattern struct {
	ID          string
	ProjectID   string
	Pattern     string
	Description *string
	CreatedAt   int64
}

// ErrorPatternMatch records one occurrence of an ErrorPattern, optionally
// correlated to the memory observation that surfaced it.
type ErrorPatternMatch struct {
	ID             string
	ErrorPatternID string
	ObservationID  *string
	MatchedText    string
	CreatedAt      int64
}

// ErrorPatternRepository is the port over error_patterns and error_pattern_matches.
type ErrorPatternRepository interface {
	CreatePattern(ctx context.Context, p ErrorPattern) error
	ListPatterns(ctx context.Context, projectID string) ([]ErrorPattern, error)

	RecordMatch(ctx context.Context, m ErrorPatternMatch) error
	ListMatches(ctx context.Context, errorPatternID string) ([]ErrorPatternMatch, error)
	MatchCount(ctx context.Context, errorPatternID string) (int64, error)
}

// ErrorPatternStore is the SQLite-backed ErrorPatternRepository implementation.
type ErrorPatternStore struct {
	exec dbexec.Executor
}

// NewErrorPatternStore builds an ErrorPatternStore over exec.
func NewErrorPatternStore(exec dbexec.Executor) *ErrorPatternStore {
	return &ErrorPatternStore{exec: exec}
}

var _ ErrorPatternRepository = (*ErrorPatternStore)(nil)

func (s *ErrorPatternStore) CreatePattern(ctx context.Context, p ErrorPattern) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO error_patterns (id, project_id, pattern, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(p.ID), dbexec.String(p.ProjectID), dbexec.String(p.Pattern),
			nullableParam(p.Description), dbexec.Int64(p.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create error pattern", err)
	}
	return nil
}

func (s *ErrorPatternStore) ListPatterns(ctx context.Context, projectID string) ([]ErrorPattern, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM error_patterns WHERE project_id = ? ORDER BY created_at DESC",
		[]dbexec.Param{dbexec.String(projectID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list error patterns", err)
	}
	out := make([]ErrorPattern, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		pattern, _, err := row.TryGetString("pattern")
		if err != nil {
			return nil, err
		}
		description, err := optString(row, "description")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, ErrorPattern{ID: id, ProjectID: projectID, Pattern: pattern, Description: description, CreatedAt: createdAt})
	}
	return out, nil
}

func (s *ErrorPatternStore) RecordMatch(ctx context.Context, m ErrorPatternMatch) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO error_pattern_matches (id, error_pattern_id, observation_id, matched_text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(m.ID), dbexec.String(m.ErrorPatternID), nullableParam(m.ObservationID),
			dbexec.String(m.MatchedText), dbexec.Int64(m.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "record error pattern match", err)
	}
	return nil
}

func (s *ErrorPatternStore) ListMatches(ctx context.Context, errorPatternID string) ([]ErrorPatternMatch, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM error_pattern_matches WHERE error_pattern_id = ? ORDER BY created_at DESC",
		[]dbexec.Param{dbexec.String(errorPatternID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list error pattern matches", err)
	}
	out := make([]ErrorPatternMatch, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		observationID, err := optString(row, "observation_id")
		if err != nil {
			return nil, err
		}
		matchedText, _, err := row.TryGetString("matched_text")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, ErrorPatternMatch{
			ID: id, ErrorPatternID: errorPatternID, ObservationID: observationID,
			MatchedText: matchedText, CreatedAt: createdAt,
		})
	}
	return out, nil
}

func (s *ErrorPatternStore) MatchCount(ctx context.Context, errorPatternID string) (int64, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT COUNT(*) AS cnt FROM error_pattern_matches WHERE error_pattern_id = ?",
		[]dbexec.Param{dbexec.String(errorPatternID)})
	if err != nil {
		return 0, mcberrors.Wrap(mcberrors.KindDatabase, "count error pattern matches", err)
	}
	if row == nil {
		return 0, nil
	}
	count, _, err := row.TryGetInt64("cnt")
	if err != nil {
		return 0, mcberrors.Wrap(mcberrors.KindDatabase, "scan match count", err)
	}
	return count, nil
}
