// Package scope resolves nested resource paths (project, issue, comment,
// contributor) and applies the access predicates to the result.
package scope

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/internal/metrics"
	"anoa.com/softdesk/internal/policy"
	"anoa.com/softdesk/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
}

type MembershipChecker interface {
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

type IssueFinder interface {
	FindInProject(ctx context.Context, projectID, issueID uuid.UUID) (*entity.Issue, error)
}

type CommentFinder interface {
	FindInIssue(ctx context.Context, issueID, commentID uuid.UUID) (*entity.Comment, error)
}

type ContributorFinder interface {
	FindInProject(ctx context.Context, projectID, contributorID uuid.UUID) (*entity.Contributor, error)
}

// Path names a resource by its ancestors. Unset ids are not resolved.
type Path struct {
	ProjectID     uuid.UUID
	IssueID       *uuid.UUID
	CommentID     *uuid.UUID
	ContributorID *uuid.UUID
}

// Chain is a resolved Path together with the actor it was resolved for.
type Chain struct {
	Actor       uuid.UUID
	Project     *entity.Project
	Issue       *entity.Issue
	Comment     *entity.Comment
	Contributor *entity.Contributor
	// IsMember is true when Actor has a contributor row on Project.
	IsMember bool
}

// ChainResolver is what services depend on; *Resolver implements it.
type ChainResolver interface {
	Resolve(ctx context.Context, actor uuid.UUID, path Path) (Chain, error)
}

type Resolver struct {
	projects     ProjectFinder
	members      MembershipChecker
	issues       IssueFinder
	comments     CommentFinder
	contributors ContributorFinder
}

func NewResolver(projects ProjectFinder, members MembershipChecker, issues IssueFinder, comments CommentFinder, contributors ContributorFinder) *Resolver {
	return &Resolver{
		projects:     projects,
		members:      members,
		issues:       issues,
		comments:     comments,
		contributors: contributors,
	}
}

// Resolve fetches every id in path, each one filtered by its resolved parent,
// so an issue reached through the wrong project is indistinguishable from a
// missing one. Existence is checked before any permission.
func (r *Resolver) Resolve(ctx context.Context, actor uuid.UUID, path Path) (Chain, error) {
	chain := Chain{Actor: actor}

	project, err := r.projects.FindByID(ctx, path.ProjectID)
	if err != nil {
		return Chain{}, notFound("project", err)
	}
	chain.Project = project

	chain.IsMember, err = r.members.IsMember(ctx, project.ID, actor)
	if err != nil {
		return Chain{}, err
	}

	if path.ContributorID != nil {
		contributor, err := r.contributors.FindInProject(ctx, project.ID, *path.ContributorID)
		if err != nil {
			return Chain{}, notFound("contributor", err)
		}
		chain.Contributor = contributor
	}

	if path.IssueID != nil {
		issue, err := r.issues.FindInProject(ctx, project.ID, *path.IssueID)
		if err != nil {
			return Chain{}, notFound("issue", err)
		}
		chain.Issue = issue
	}

	if path.CommentID != nil {
		if chain.Issue == nil {
			return Chain{}, fmt.Errorf("comment without issue: %w", apperror.ErrNotFound)
		}
		comment, err := r.comments.FindInIssue(ctx, chain.Issue.ID, *path.CommentID)
		if err != nil {
			return Chain{}, notFound("comment", err)
		}
		chain.Comment = comment
	}

	return chain, nil
}

func notFound(kind string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("%s not found: %w", kind, apperror.ErrNotFound)
	}
	return err
}

// InProject reports whether the actor is the project author or a contributor.
func (c Chain) InProject() bool {
	return c.Project != nil && (c.Project.AuthorID == c.Actor || c.IsMember)
}

// CanRead applies the read predicate to obj within this chain's project.
func (c Chain) CanRead(obj policy.HasAuthor) bool {
	if c.Project == nil {
		return false
	}
	return policy.CanRead(c.Actor, policy.AuthorOf(obj), c.Project.AuthorID, c.IsMember)
}

// RequireRead hides obj from actors who may not read it.
func (c Chain) RequireRead(kind string, obj policy.HasAuthor) error {
	if !c.CanRead(obj) {
		metrics.AccessDeniedTotal.WithLabelValues("not_found").Inc()
		return fmt.Errorf("%s not found: %w", kind, apperror.ErrNotFound)
	}
	return nil
}

// RequireWrite hides obj from actors who cannot see it and forbids writes by
// anyone who can see it but does not satisfy rule.
func (c Chain) RequireWrite(kind string, obj policy.HasAuthor, rule policy.WriteRule) error {
	if err := c.RequireRead(kind, obj); err != nil {
		return err
	}
	if !rule(c.Actor, obj) {
		metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
		return fmt.Errorf("only the author can modify this %s: %w", kind, apperror.ErrForbidden)
	}
	return nil
}

// RequireMember guards collection creates under the project.
func (c Chain) RequireMember() error {
	if !c.InProject() {
		metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
		return fmt.Errorf("you are not a contributor of this project: %w", apperror.ErrForbidden)
	}
	return nil
}

// RequireProjectAuthor guards membership changes.
func (c Chain) RequireProjectAuthor() error {
	if !policy.CanWrite(c.Actor, c.Project) {
		metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
		return fmt.Errorf("only the project author can manage contributors: %w", apperror.ErrForbidden)
	}
	return nil
}
