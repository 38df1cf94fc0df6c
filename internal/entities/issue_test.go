package entities_test

import (
	"context"
	"testing"

	"github.com/marlonsc/mcb/internal/entities"
)

func TestIssueStoreCreateGetUpdateState(t *testing.T) {
	store := entities.NewIssueStore(newMemExecutor())
	ctx := context.Background()

	if err := store.CreateIssue(ctx, entities.Issue{ID: "i1", ProjectID: "p1", Number: 1, Title: "bug", State: "open", CreatedAt: 1, UpdatedAt: 1}); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	got, err := store.GetIssue(ctx, "i1")
	if err != nil || got == nil || got.State != "open" {
		t.Fatalf("GetIssue: %v %+v", err, got)
	}

	if err := store.UpdateIssueState(ctx, "i1", "closed", 2); err != nil {
		t.Fatalf("UpdateIssueState: %v", err)
	}
	got, err = store.GetIssue(ctx, "i1")
	if err != nil || got.State != "closed" || got.UpdatedAt != 2 {
		t.Fatalf("unexpected issue after update: %v %+v", err, got)
	}
}

func TestIssueStoreListIssuesFiltersByState(t *testing.T) {
	store := entities.NewIssueStore(newMemExecutor())
	ctx := context.Background()

	store.CreateIssue(ctx, entities.Issue{ID: "i1", ProjectID: "p1", Number: 1, Title: "a", State: "open", CreatedAt: 1, UpdatedAt: 1})
	store.CreateIssue(ctx, entities.Issue{ID: "i2", ProjectID: "p1", Number: 2, Title: "b", State: "closed", CreatedAt: 2, UpdatedAt: 2})

	open, err := store.ListIssues(ctx, entities.IssueQuery{ProjectID: "p1", State: "open"})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(open) != 1 || open[0].ID != "i1" {
		t.Fatalf("expected only i1 open, got %+v", open)
	}
}

func TestIssueStoreComments(t *testing.T) {
	store := entities.NewIssueStore(newMemExecutor())
	ctx := context.Background()
	store.CreateIssue(ctx, entities.Issue{ID: "i1", ProjectID: "p1", Number: 1, Title: "a", State: "open", CreatedAt: 1, UpdatedAt: 1})

	if err := store.AddComment(ctx, entities.IssueComment{ID: "c1", IssueID: "i1", Author: "bob", Body: "fixed", CreatedAt: 2}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	comments, err := store.ListComments(ctx, "i1")
	if err != nil || len(comments) != 1 || comments[0].Author != "bob" {
		t.Fatalf("unexpected comments: %v %+v", err, comments)
	}
}

func TestIssueStoreLabelsAndAssignments(t *testing.T) {
	store := entities.NewIssueStore(newMemExecutor())
	ctx := context.Background()
	store.CreateIssue(ctx, entities.Issue{ID: "i1", ProjectID: "p1", Number: 1, Title: "a", State: "open", CreatedAt: 1, UpdatedAt: 1})

	if err := store.CreateLabel(ctx, entities.IssueLabel{ID: "l1", ProjectID: "p1", Name: "bug", Color: "red"}); err != nil {
		t.Fatalf("CreateLabel: %v", err)
	}
	if err := store.CreateLabel(ctx, entities.IssueLabel{ID: "l2", ProjectID: "p1", Name: "feature", Color: "green"}); err != nil {
		t.Fatal(err)
	}

	labels, err := store.ListLabels(ctx, "p1")
	if err != nil || len(labels) != 2 {
		t.Fatalf("ListLabels: %v %+v", err, labels)
	}

	if err := store.AssignLabel(ctx, entities.IssueLabelAssignment{ID: "a1", IssueID: "i1", LabelID: "l1", CreatedAt: 3}); err != nil {
		t.Fatalf("AssignLabel: %v", err)
	}

	assigned, err := store.ListLabelsForIssue(ctx, "i1")
	if err != nil || len(assigned) != 1 || assigned[0].Name != "bug" {
		t.Fatalf("ListLabelsForIssue: %v %+v", err, assigned)
	}
}
