package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

// ===== issue_entity.create / .get / .list / .update_state =====

type IssueCreateInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project identifier"`
	Number    int64  `json:"number" jsonschema:"required,Issue number, unique per project"`
	Title     string `json:"title" jsonschema:"required,Issue title"`
	Body      string `json:"body,omitempty" jsonschema:"Issue body"`
}

type IssueCreateOutput struct {
	ID string `json:"id"`
}

func (t *Tools) CreateIssue(ctx context.Context, in IssueCreateInput) (IssueCreateOutput, error) {
	if in.ProjectID == "" || in.Title == "" {
		return IssueCreateOutput{}, mcberrors.InvalidParams("project_id and title are required")
	}
	now := t.nowUnix()
	issue := entities.Issue{
		ID:        newID("issue"),
		ProjectID: in.ProjectID,
		Number:    in.Number,
		Title:     in.Title,
		Body:      optStringIfSet(in.Body),
		State:     "open",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.issues.CreateIssue(ctx, issue); err != nil {
		return IssueCreateOutput{}, err
	}
	return IssueCreateOutput{ID: issue.ID}, nil
}

type IssueGetInput struct {
	ID string `json:"id" jsonschema:"required,Issue id"`
}

type IssueGetOutput struct {
	Issue *entities.Issue `json:"issue"`
}

func (t *Tools) GetIssue(ctx context.Context, in IssueGetInput) (IssueGetOutput, error) {
	if in.ID == "" {
		return IssueGetOutput{}, mcberrors.InvalidParams("id is required")
	}
	issue, err := t.issues.GetIssue(ctx, in.ID)
	if err != nil {
		return IssueGetOutput{}, err
	}
	return IssueGetOutput{Issue: issue}, nil
}

type IssueListInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project identifier"`
	State     string `json:"state,omitempty" jsonschema:"Filter by state (e.g. open, closed)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum results (default: 20)"`
}

type IssueListOutput struct {
	Issues []entities.Issue `json:"issues"`
}

func (t *Tools) ListIssues(ctx context.Context, in IssueListInput) (IssueListOutput, error) {
	if in.ProjectID == "" {
		return IssueListOutput{}, mcberrors.InvalidParams("project_id is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}
	issues, err := t.issues.ListIssues(ctx, entities.IssueQuery{ProjectID: in.ProjectID, State: in.State, Limit: limit})
	if err != nil {
		return IssueListOutput{}, err
	}
	return IssueListOutput{Issues: issues}, nil
}

type IssueUpdateStateInput struct {
	ID    string `json:"id" jsonschema:"required,Issue id"`
	State string `json:"state" jsonschema:"required,New state"`
}

type IssueUpdateStateOutput struct {
	Updated bool `json:"updated"`
}

func (t *Tools) UpdateIssueState(ctx context.Context, in IssueUpdateStateInput) (IssueUpdateStateOutput, error) {
	if in.ID == "" || in.State == "" {
		return IssueUpdateStateOutput{}, mcberrors.InvalidParams("id and state are required")
	}
	if err := t.issues.UpdateIssueState(ctx, in.ID, in.State, t.nowUnix()); err != nil {
		return IssueUpdateStateOutput{}, err
	}
	return IssueUpdateStateOutput{Updated: true}, nil
}

// ===== issue_entity.comment_add / comments_list =====

type IssueCommentAddInput struct {
	IssueID string `json:"issue_id" jsonschema:"required,Issue id"`
	Author  string `json:"author" jsonschema:"required,Comment author"`
	Body    string `json:"body" jsonschema:"required,Comment body"`
}

type IssueCommentAddOutput struct {
	ID string `json:"id"`
}

func (t *Tools) AddIssueComment(ctx context.Context, in IssueCommentAddInput) (IssueCommentAddOutput, error) {
	if in.IssueID == "" || in.Author == "" || in.Body == "" {
		return IssueCommentAddOutput{}, mcberrors.InvalidParams("issue_id, author, and body are required")
	}
	comment := entities.IssueComment{
		ID:        newID("comment"),
		IssueID:   in.IssueID,
		Author:    in.Author,
		Body:      in.Body,
		CreatedAt: t.nowUnix(),
	}
	if err := t.issues.AddComment(ctx, comment); err != nil {
		return IssueCommentAddOutput{}, err
	}
	return IssueCommentAddOutput{ID: comment.ID}, nil
}

type IssueCommentListInput struct {
	IssueID string `json:"issue_id" jsonschema:"required,Issue id"`
}

type IssueCommentListOutput struct {
	Comments []entities.IssueComment `json:"comments"`
}

func (t *Tools) ListIssueComments(ctx context.Context, in IssueCommentListInput) (IssueCommentListOutput, error) {
	if in.IssueID == "" {
		return IssueCommentListOutput{}, mcberrors.InvalidParams("issue_id is required")
	}
	comments, err := t.issues.ListComments(ctx, in.IssueID)
	if err != nil {
		return IssueCommentListOutput{}, err
	}
	return IssueCommentListOutput{Comments: comments}, nil
}

// ===== issue_entity.label_create / label_assign / labels_list =====

type IssueLabelCreateInput struct {
	ProjectID string `json:"project_id" jsonschema:"required,Project identifier"`
	Name      string `json:"name" jsonschema:"required,Label name"`
	Color     string `json:"color,omitempty" jsonschema:"Hex color (default: #cccccc)"`
}

type IssueLabelCreateOutput struct {
	ID string `json:"id"`
}

func (t *Tools) CreateIssueLabel(ctx context.Context, in IssueLabelCreateInput) (IssueLabelCreateOutput, error) {
	if in.ProjectID == "" || in.Name == "" {
		return IssueLabelCreateOutput{}, mcberrors.InvalidParams("project_id and name are required")
	}
	color := in.Color
	if color == "" {
		color = "#cccccc"
	}
	label := entities.IssueLabel{ID: newID("label"), ProjectID: in.ProjectID, Name: in.Name, Color: color}
	if err := t.issues.CreateLabel(ctx, label); err != nil {
		return IssueLabelCreateOutput{}, err
	}
	return IssueLabelCreateOutput{ID: label.ID}, nil
}

type IssueLabelAssignInput struct {
	IssueID string `json:"issue_id" jsonschema:"required,Issue id"`
	LabelID string `json:"label_id" jsonschema:"required,Label id"`
}

type IssueLabelAssignOutput struct {
	Assigned bool `json:"assigned"`
}

func (t *Tools) AssignIssueLabel(ctx context.Context, in IssueLabelAssignInput) (IssueLabelAssignOutput, error) {
	if in.IssueID == "" || in.LabelID == "" {
		return IssueLabelAssignOutput{}, mcberrors.InvalidParams("issue_id and label_id are required")
	}
	assignment := entities.IssueLabelAssignment{ID: newID("labelassign"), IssueID: in.IssueID, LabelID: in.LabelID, CreatedAt: t.nowUnix()}
	if err := t.issues.AssignLabel(ctx, assignment); err != nil {
		return IssueLabelAssignOutput{}, err
	}
	return IssueLabelAssignOutput{Assigned: true}, nil
}

type IssueLabelsForIssueInput struct {
	IssueID string `json:"issue_id" jsonschema:"required,Issue id"`
}

type IssueLabelsForIssueOutput struct {
	Labels []entities.IssueLabel `json:"labels"`
}

func (t *Tools) ListIssueLabels(ctx context.Context, in IssueLabelsForIssueInput) (IssueLabelsForIssueOutput, error) {
	if in.IssueID == "" {
		return IssueLabelsForIssueOutput{}, mcberrors.InvalidParams("issue_id is required")
	}
	labels, err := t.issues.ListLabelsForIssue(ctx, in.IssueID)
	if err != nil {
		return IssueLabelsForIssueOutput{}, err
	}
	return IssueLabelsForIssueOutput{Labels: labels}, nil
}

func (t *Tools) registerIssueTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_create",
		Description: "Create a project issue.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueCreateInput) (*mcp.CallToolResult, IssueCreateOutput, error) {
		out, err := t.CreateIssue(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_get",
		Description: "Fetch an issue by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueGetInput) (*mcp.CallToolResult, IssueGetOutput, error) {
		out, err := t.GetIssue(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_list",
		Description: "List issues for a project, optionally filtered by state.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueListInput) (*mcp.CallToolResult, IssueListOutput, error) {
		out, err := t.ListIssues(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_update_state",
		Description: "Update an issue's state.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueUpdateStateInput) (*mcp.CallToolResult, IssueUpdateStateOutput, error) {
		out, err := t.UpdateIssueState(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_comment_add",
		Description: "Add a comment to an issue.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueCommentAddInput) (*mcp.CallToolResult, IssueCommentAddOutput, error) {
		out, err := t.AddIssueComment(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_comments_list",
		Description: "List comments on an issue.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueCommentListInput) (*mcp.CallToolResult, IssueCommentListOutput, error) {
		out, err := t.ListIssueComments(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_label_create",
		Description: "Create a reusable issue label for a project.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueLabelCreateInput) (*mcp.CallToolResult, IssueLabelCreateOutput, error) {
		out, err := t.CreateIssueLabel(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_label_assign",
		Description: "Assign a label to an issue.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueLabelAssignInput) (*mcp.CallToolResult, IssueLabelAssignOutput, error) {
		out, err := t.AssignIssueLabel(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "issue_entity_labels_list",
		Description: "List labels assigned to an issue.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IssueLabelsForIssueInput) (*mcp.CallToolResult, IssueLabelsForIssueOutput, error) {
		out, err := t.ListIssueLabels(ctx, args)
		return nil, out, err
	})
}
