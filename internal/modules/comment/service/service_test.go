package service

import (
	"context"
	"errors"
	"testing"

	commentDto "anoa.com/softdesk/internal/modules/comment/dto"
	"anoa.com/softdesk/pkg/apperror"
	commonDto "anoa.com/softdesk/pkg/dto"
	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestCreateComment(t *testing.T) {
	store, svc := newFixture()
	ctx := context.Background()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	carol := store.addUser("carol")
	p := store.addProject(alice.ID, bob.ID)
	issue := store.addIssue(p.ID, alice.ID)

	c, err := svc.CreateComment(ctx, bob.ID, p.ID, issue.ID, commentDto.CreateCommentRequest{Title: "repro", Content: "steps"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IssueID != issue.ID || c.Author == nil || c.Author.Username != "bob" {
		t.Fatalf("issue and author must be forced, got %+v", c)
	}

	if _, err := svc.CreateComment(ctx, carol.ID, p.ID, issue.ID, commentDto.CreateCommentRequest{Title: "x"}); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("stranger create should be forbidden, got %v", err)
	}

	other := store.addProject(alice.ID)
	if _, err := svc.CreateComment(ctx, alice.ID, other.ID, issue.ID, commentDto.CreateCommentRequest{Title: "x"}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("foreign nesting should be not found, got %v", err)
	}
}

func TestGetComment_Nesting(t *testing.T) {
	store, svc := newFixture()
	ctx := context.Background()
	alice := store.addUser("alice")
	carol := store.addUser("carol")
	p := store.addProject(alice.ID)
	i1 := store.addIssue(p.ID, alice.ID)
	i2 := store.addIssue(p.ID, alice.ID)

	c, _ := svc.CreateComment(ctx, alice.ID, p.ID, i1.ID, commentDto.CreateCommentRequest{Title: "x"})

	if _, err := svc.GetComment(ctx, alice.ID, p.ID, i1.ID, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetComment(ctx, alice.ID, p.ID, i2.ID, c.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("comment under the wrong issue should be not found, got %v", err)
	}
	if _, err := svc.GetComment(ctx, carol.ID, p.ID, i1.ID, c.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("stranger should get not found, got %v", err)
	}
	if _, err := svc.GetComment(ctx, alice.ID, p.ID, i1.ID, uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("missing comment should be not found, got %v", err)
	}
}

func TestUpdateAndDeleteComment_AuthorOnly(t *testing.T) {
	store, svc := newFixture()
	ctx := context.Background()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	p := store.addProject(alice.ID, bob.ID)
	issue := store.addIssue(p.ID, alice.ID)

	c, _ := svc.CreateComment(ctx, bob.ID, p.ID, issue.ID, commentDto.CreateCommentRequest{Title: "x"})

	if _, err := svc.UpdateComment(ctx, alice.ID, p.ID, issue.ID, c.ID, commentDto.UpdateCommentRequest{Title: strPtr("y")}); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	updated, err := svc.UpdateComment(ctx, bob.ID, p.ID, issue.ID, c.ID, commentDto.UpdateCommentRequest{Content: strPtr("more detail")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "x" || updated.Content != "more detail" {
		t.Fatalf("unexpected comment %+v", updated)
	}

	if err := svc.DeleteComment(ctx, alice.ID, p.ID, issue.ID, c.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.DeleteComment(ctx, bob.ID, p.ID, issue.ID, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListComments_ReadableOnly(t *testing.T) {
	store, svc := newFixture()
	ctx := context.Background()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	carol := store.addUser("carol")
	p := store.addProject(alice.ID, bob.ID)
	issue := store.addIssue(p.ID, alice.ID)

	svc.CreateComment(ctx, alice.ID, p.ID, issue.ID, commentDto.CreateCommentRequest{Title: "a"})
	svc.CreateComment(ctx, bob.ID, p.ID, issue.ID, commentDto.CreateCommentRequest{Title: "b"})

	page, err := svc.ListComments(ctx, bob.ID, p.ID, issue.ID, commonDto.PageQuery{})
	if err != nil || len(page.Data) != 2 {
		t.Fatalf("member should see both comments, got %v", err)
	}

	page, _ = svc.ListComments(ctx, carol.ID, p.ID, issue.ID, commonDto.PageQuery{})
	if page.Data == nil || len(page.Data) != 0 {
		t.Fatalf("stranger should get an empty list")
	}

	store.removeMember(p.ID, bob.ID)
	page, _ = svc.ListComments(ctx, bob.ID, p.ID, issue.ID, commonDto.PageQuery{})
	if len(page.Data) != 1 || page.Data[0].Title != "b" {
		t.Fatalf("former member should only see own comment, got %+v", page.Data)
	}
}
