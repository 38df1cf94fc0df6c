package entities

import (
	"context"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// Plan is one agent planning artifact, revised over a sequence of
// PlanVersions and reviewed by zero or more PlanReviews per version.
type Plan struct {
	ID        string
	ProjectID string
	SessionID *string
	Title     string
	Status    string
	CreatedAt int64
	UpdatedAt int64
}

// PlanVersion is one numbered revision of a Plan's content.
type PlanVersion struct {
	ID            string
	PlanID        string
	VersionNumber int64
	Content       string
	CreatedAt     int64
}

// PlanReview is one reviewer's verdict on a PlanVersion.
type PlanReview struct {
	ID            string
	PlanVersionID string
	Reviewer      string
	Verdict       string
	Comments      *string
	CreatedAt     int64
}

// PlanRepository is the port over plans, plan_versions, and plan_reviews.
type PlanRepository interface {
	CreatePlan(ctx context.Context, p Plan) error
	GetPlan(ctx context.Context, id string) (*Plan, error)
	UpdatePlanStatus(ctx context.Context, id, status string, updatedAt int64) error
	ListPlans(ctx context.Context, projectID string) ([]Plan, error)

	AddVersion(ctx context.Context, v PlanVersion) error
	LatestVersion(ctx context.Context, planID string) (*PlanVersion, error)
	ListVersions(ctx context.Context, planID string) ([]PlanVersion, error)

	AddReview(ctx context.Context, r PlanReview) error
	ListReviews(ctx context.Context, planVersionID string) ([]PlanReview, error)
}

// PlanStore is the SQLite-backed PlanRepository implementation.
type PlanStore struct {
	exec dbexec.Executor
}

// NewPlanStore builds a PlanStore over exec.
func NewPlanStore(exec dbexec.Executor) *PlanStore { return &PlanStore{exec: exec} }

var _ PlanRepository = (*PlanStore)(nil)

func (s *PlanStore) CreatePlan(ctx context.Context, p Plan) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO plans (id, project_id, session_id, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(p.ID), dbexec.String(p.ProjectID), nullableParam(p.SessionID), dbexec.String(p.Title),
			dbexec.String(p.Status), dbexec.Int64(p.CreatedAt), dbexec.Int64(p.UpdatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create plan", err)
	}
	return nil
}

func rowToPlan(row dbexec.Row) (*Plan, error) {
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	projectID, _, err := row.TryGetString("project_id")
	if err != nil {
		return nil, err
	}
	sessionID, err := optString(row, "session_id")
	if err != nil {
		return nil, err
	}
	title, _, err := row.TryGetString("title")
	if err != nil {
		return nil, err
	}
	status, _, err := row.TryGetString("status")
	if err != nil {
		return nil, err
	}
	createdAt, _, err := row.TryGetInt64("created_at")
	if err != nil {
		return nil, err
	}
	updatedAt, _, err := row.TryGetInt64("updated_at")
	if err != nil {
		return nil, err
	}
	return &Plan{
		ID: id, ProjectID: projectID, SessionID: sessionID, Title: title,
		Status: status, CreatedAt: createdAt, UpdatedAt: updatedAt,
	}, nil
}

func (s *PlanStore) GetPlan(ctx context.Context, id string) (*Plan, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM plans WHERE id = ?", []dbexec.Param{dbexec.String(id)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get plan", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToPlan(row)
}

func (s *PlanStore) UpdatePlanStatus(ctx context.Context, id, status string, updatedAt int64) error {
	_, err := s.exec.Execute(ctx, "UPDATE plans SET status = ?, updated_at = ? WHERE id = ?",
		[]dbexec.Param{dbexec.String(status), dbexec.Int64(updatedAt), dbexec.String(id)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "update plan status", err)
	}
	return nil
}

func (s *PlanStore) ListPlans(ctx context.Context, projectID string) ([]Plan, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM plans WHERE project_id = ? ORDER BY updated_at DESC",
		[]dbexec.Param{dbexec.String(projectID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list plans", err)
	}
	out := make([]Plan, 0, len(rows))
	for _, row := range rows {
		plan, err := rowToPlan(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *plan)
	}
	return out, nil
}

func (s *PlanStore) AddVersion(ctx context.Context, v PlanVersion) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO plan_versions (id, plan_id, version_number, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(v.ID), dbexec.String(v.PlanID), dbexec.Int64(v.VersionNumber),
			dbexec.String(v.Content), dbexec.Int64(v.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "add plan version", err)
	}
	return nil
}

func rowToPlanVersion(row dbexec.Row) (*PlanVersion, error) {
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	planID, _, err := row.TryGetString("plan_id")
	if err != nil {
		return nil, err
	}
	versionNumber, _, err := row.TryGetInt64("version_number")
	if err != nil {
		return nil, err
	}
	content, _, err := row.TryGetString("content")
	if err != nil {
		return nil, err
	}
	createdAt, _, err := row.TryGetInt64("created_at")
	if err != nil {
		return nil, err
	}
	return &PlanVersion{ID: id, PlanID: planID, VersionNumber: versionNumber, Content: content, CreatedAt: createdAt}, nil
}

func (s *PlanStore) LatestVersion(ctx context.Context, planID string) (*PlanVersion, error) {
	row, err := s.exec.QueryOne(ctx,
		"SELECT * FROM plan_versions WHERE plan_id = ? ORDER BY version_number DESC LIMIT 1",
		[]dbexec.Param{dbexec.String(planID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get latest plan version", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToPlanVersion(row)
}

func (s *PlanStore) ListVersions(ctx context.Context, planID string) ([]PlanVersion, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM plan_versions WHERE plan_id = ? ORDER BY version_number ASC",
		[]dbexec.Param{dbexec.String(planID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list plan versions", err)
	}
	out := make([]PlanVersion, 0, len(rows))
	for _, row := range rows {
		v, err := rowToPlanVersion(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *PlanStore) AddReview(ctx context.Context, r PlanReview) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO plan_reviews (id, plan_version_id, reviewer, verdict, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(r.ID), dbexec.String(r.PlanVersionID), dbexec.String(r.Reviewer),
			dbexec.String(r.Verdict), nullableParam(r.Comments), dbexec.Int64(r.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "add plan review", err)
	}
	return nil
}

func (s *PlanStore) ListReviews(ctx context.Context, planVersionID string) ([]PlanReview, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM plan_reviews WHERE plan_version_id = ? ORDER BY created_at ASC",
		[]dbexec.Param{dbexec.String(planVersionID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list plan reviews", err)
	}
	out := make([]PlanReview, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		versionID, _, err := row.TryGetString("plan_version_id")
		if err != nil {
			return nil, err
		}
		reviewer, _, err := row.TryGetString("reviewer")
		if err != nil {
			return nil, err
		}
		verdict, _, err := row.TryGetString("verdict")
		if err != nil {
			return nil, err
		}
		comments, err := optString(row, "comments")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, PlanReview{
			ID: id, PlanVersionID: versionID, Reviewer: reviewer, Verdict: verdict,
			Comments: comments, CreatedAt: createdAt,
		})
	}
	return out, nil
}
