package entities

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// Issue is one tracked project issue.
type Issue struct {
	ID        string
	ProjectID string
	Number    int64
	Title     string
	Body      *string
	State     string
	CreatedAt int64
	UpdatedAt int64
}

// IssueComment is one comment on an Issue.
type IssueComment struct {
	ID        string
	IssueID   string
	Author    string
	Body      string
	CreatedAt int64
}

// IssueLabel is a project-scoped label definition.
type IssueLabel struct {
	ID        string
	ProjectID string
	Name      string
	Color     string
}

// IssueLabelAssignment links a Label to an Issue.
type IssueLabelAssignment struct {
	ID        string
	IssueID   string
	LabelID   string
	CreatedAt int64
}

// IssueQuery filters ListIssues; zero-valued fields are not applied.
type IssueQuery struct {
	ProjectID string
	State     string
	Limit     int
}

// IssueRepository is the port over the project issue tracker tables.
type IssueRepository interface {
	CreateIssue(ctx context.Context, i Issue) error
	GetIssue(ctx context.Context, id string) (*Issue, error)
	UpdateIssueState(ctx context.Context, id, state string, updatedAt int64) error
	ListIssues(ctx context.Context, q IssueQuery) ([]Issue, error)

	AddComment(ctx context.Context, c IssueComment) error
	ListComments(ctx context.Context, issueID string) ([]IssueComment, error)

	CreateLabel(ctx context.Context, l IssueLabel) error
	ListLabels(ctx context.Context, projectID string) ([]IssueLabel, error)

	AssignLabel(ctx context.Context, a IssueLabelAssignment) error
	ListLabelsForIssue(ctx context.Context, issueID string) ([]IssueLabel, error)
}

// IssueStore is the SQLite-backed IssueRepository implementation.
type IssueStore struct {
	exec dbexec.Executor
}

// NewIssueStore builds an IssueStore over exec.
func NewIssueStore(exec dbexec.Executor) *IssueStore { return &IssueStore{exec: exec} }

var _ IssueRepository = (*IssueStore)(nil)

func (s *IssueStore) CreateIssue(ctx context.Context, i Issue) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO project_issues (id, project_id, number, title, body, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(i.ID), dbexec.String(i.ProjectID), dbexec.Int64(i.Number), dbexec.String(i.Title),
			nullableParam(i.Body), dbexec.String(i.State), dbexec.Int64(i.CreatedAt), dbexec.Int64(i.UpdatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create issue", err)
	}
	return nil
}

func rowToIssue(row dbexec.Row) (*Issue, error) {
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	projectID, _, err := row.TryGetString("project_id")
	if err != nil {
		return nil, err
	}
	number, _, err := row.TryGetInt64("number")
	if err != nil {
		return nil, err
	}
	title, _, err := row.TryGetString("title")
	if err != nil {
		return nil, err
	}
	body, err := optString(row, "body")
	if err != nil {
		return nil, err
	}
	state, _, err := row.TryGetString("state")
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
	return &Issue{
		ID: id, ProjectID: projectID, Number: number, Title: title, Body: body,
		State: state, CreatedAt: createdAt, UpdatedAt: updatedAt,
	}, nil
}

func (s *IssueStore) GetIssue(ctx context.Context, id string) (*Issue, error) {
	row, err := s.exec.QueryOne(ctx, "SELECT * FROM project_issues WHERE id = ?", []dbexec.Param{dbexec.String(id)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "get issue", err)
	}
	if row == nil {
		return nil, nil
	}
	return rowToIssue(row)
}

func (s *IssueStore) UpdateIssueState(ctx context.Context, id, state string, updatedAt int64) error {
	_, err := s.exec.Execute(ctx, "UPDATE project_issues SET state = ?, updated_at = ? WHERE id = ?",
		[]dbexec.Param{dbexec.String(state), dbexec.Int64(updatedAt), dbexec.String(id)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "update issue state", err)
	}
	return nil
}

func (s *IssueStore) ListIssues(ctx context.Context, q IssueQuery) ([]Issue, error) {
	builder := sq.Select("*").From("project_issues")
	if q.ProjectID != "" {
		builder = builder.Where(sq.Eq{"project_id": q.ProjectID})
	}
	if q.State != "" {
		builder = builder.Where(sq.Eq{"state": q.State})
	}
	builder = builder.OrderBy("number DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "build list issues query", err)
	}
	params := make([]dbexec.Param, len(args))
	for i, a := range args {
		params[i] = toParam(a)
	}

	rows, err := s.exec.QueryAll(ctx, query, params)
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list issues", err)
	}
	out := make([]Issue, 0, len(rows))
	for _, row := range rows {
		issue, err := rowToIssue(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *issue)
	}
	return out, nil
}

func (s *IssueStore) AddComment(ctx context.Context, c IssueComment) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO issue_comments (id, issue_id, author, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		[]dbexec.Param{
			dbexec.String(c.ID), dbexec.String(c.IssueID), dbexec.String(c.Author),
			dbexec.String(c.Body), dbexec.Int64(c.CreatedAt),
		})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "add issue comment", err)
	}
	return nil
}

func (s *IssueStore) ListComments(ctx context.Context, issueID string) ([]IssueComment, error) {
	rows, err := s.exec.QueryAll(ctx,
		"SELECT * FROM issue_comments WHERE issue_id = ? ORDER BY created_at ASC",
		[]dbexec.Param{dbexec.String(issueID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list issue comments", err)
	}
	out := make([]IssueComment, 0, len(rows))
	for _, row := range rows {
		id, _, err := row.TryGetString("id")
		if err != nil {
			return nil, err
		}
		issueIDCol, _, err := row.TryGetString("issue_id")
		if err != nil {
			return nil, err
		}
		author, _, err := row.TryGetString("author")
		if err != nil {
			return nil, err
		}
		body, _, err := row.TryGetString("body")
		if err != nil {
			return nil, err
		}
		createdAt, _, err := row.TryGetInt64("created_at")
		if err != nil {
			return nil, err
		}
		out = append(out, IssueComment{ID: id, IssueID: issueIDCol, Author: author, Body: body, CreatedAt: createdAt})
	}
	return out, nil
}

func (s *IssueStore) CreateLabel(ctx context.Context, l IssueLabel) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO issue_labels (id, project_id, name, color)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, name) DO UPDATE SET color = excluded.color`,
		[]dbexec.Param{dbexec.String(l.ID), dbexec.String(l.ProjectID), dbexec.String(l.Name), dbexec.String(l.Color)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "create issue label", err)
	}
	return nil
}

func rowToLabel(row dbexec.Row) (*IssueLabel, error) {
	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, err
	}
	projectID, _, err := row.TryGetString("project_id")
	if err != nil {
		return nil, err
	}
	name, _, err := row.TryGetString("name")
	if err != nil {
		return nil, err
	}
	color, _, err := row.TryGetString("color")
	if err != nil {
		return nil, err
	}
	return &IssueLabel{ID: id, ProjectID: projectID, Name: name, Color: color}, nil
}

func (s *IssueStore) ListLabels(ctx context.Context, projectID string) ([]IssueLabel, error) {
	rows, err := s.exec.QueryAll(ctx, "SELECT * FROM issue_labels WHERE project_id = ? ORDER BY name ASC",
		[]dbexec.Param{dbexec.String(projectID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list issue labels", err)
	}
	out := make([]IssueLabel, 0, len(rows))
	for _, row := range rows {
		label, err := rowToLabel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *label)
	}
	return out, nil
}

func (s *IssueStore) AssignLabel(ctx context.Context, a IssueLabelAssignment) error {
	_, err := s.exec.Execute(ctx, `
		INSERT INTO issue_label_assignments (id, issue_id, label_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(issue_id, label_id) DO NOTHING`,
		[]dbexec.Param{dbexec.String(a.ID), dbexec.String(a.IssueID), dbexec.String(a.LabelID), dbexec.Int64(a.CreatedAt)})
	if err != nil {
		return mcberrors.Wrap(mcberrors.KindDatabase, "assign issue label", err)
	}
	return nil
}

func (s *IssueStore) ListLabelsForIssue(ctx context.Context, issueID string) ([]IssueLabel, error) {
	rows, err := s.exec.QueryAll(ctx, `
		SELECT l.* FROM issue_labels l
		JOIN issue_label_assignments a ON a.label_id = l.id
		WHERE a.issue_id = ?
		ORDER BY l.name ASC`,
		[]dbexec.Param{dbexec.String(issueID)})
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindDatabase, "list labels for issue", err)
	}
	out := make([]IssueLabel, 0, len(rows))
	for _, row := range rows {
		label, err := rowToLabel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *label)
	}
	return out, nil
}
