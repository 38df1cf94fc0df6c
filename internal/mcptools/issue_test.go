package mcptools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonsc/mcb/internal/mcptools"
)

func TestIssueCreateGetListUpdateState(t *testing.T) {
	tools, _ := newTestTools(t)
	ctx := context.Background()

	created, err := tools.CreateIssue(ctx, mcptools.IssueCreateInput{
		ProjectID: "proj1", Number: 1, Title: "bug: crash on startup",
	})
	require.NoError(t, err)

	got, err := tools.GetIssue(ctx, mcptools.IssueGetInput{ID: created.ID})
	require.NoError(t, err)
	require.NotNil(t, got.Issue)
	assert.Equal(t, "open", got.Issue.State)

	_, err = tools.UpdateIssueState(ctx, mcptools.IssueUpdateStateInput{ID: created.ID, State: "closed"})
	require.NoError(t, err)

	list, err := tools.ListIssues(ctx, mcptools.IssueListInput{ProjectID: "proj1", State: "closed"})
	require.NoError(t, err)
	require.Len(t, list.Issues, 1)
	assert.Equal(t, created.ID, list.Issues[0].ID)
}

func TestIssueCommentsRoundTrip(t *testing.T) {
	tools, _ := newTestTools(t)
	ctx := context.Background()

	issue, err := tools.CreateIssue(ctx, mcptools.IssueCreateInput{ProjectID: "p1", Number: 1, Title: "t"})
	require.NoError(t, err)

	_, err = tools.AddIssueComment(ctx, mcptools.IssueCommentAddInput{IssueID: issue.ID, Author: "alice", Body: "looking into it"})
	require.NoError(t, err)

	comments, err := tools.ListIssueComments(ctx, mcptools.IssueCommentListInput{IssueID: issue.ID})
	require.NoError(t, err)
	require.Len(t, comments.Comments, 1)
	assert.Equal(t, "alice", comments.Comments[0].Author)
}

func TestIssueLabelCreateAssignAndList(t *testing.T) {
	tools, _ := newTestTools(t)
	ctx := context.Background()

	issue, err := tools.CreateIssue(ctx, mcptools.IssueCreateInput{ProjectID: "p1", Number: 1, Title: "t"})
	require.NoError(t, err)

	label, err := tools.CreateIssueLabel(ctx, mcptools.IssueLabelCreateInput{ProjectID: "p1", Name: "bug"})
	require.NoError(t, err)

	_, err = tools.AssignIssueLabel(ctx, mcptools.IssueLabelAssignInput{IssueID: issue.ID, LabelID: label.ID})
	require.NoError(t, err)

	labels, err := tools.ListIssueLabels(ctx, mcptools.IssueLabelsForIssueInput{IssueID: issue.ID})
	require.NoError(t, err)
	require.Len(t, labels.Labels, 1)
	assert.Equal(t, "bug", labels.Labels[0].Name)
}
