package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/internal/metrics"
	commentDto "anoa.com/softdesk/internal/modules/comment/dto"
	"anoa.com/softdesk/internal/modules/comment/repository"
	"anoa.com/softdesk/internal/policy"
	"anoa.com/softdesk/internal/scope"
	"anoa.com/softdesk/pkg/apperror"
	commonDto "anoa.com/softdesk/pkg/dto"
	"anoa.com/softdesk/pkg/ratelimiter"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentService interface {
	ListComments(ctx context.Context, actorID, projectID, issueID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[commentDto.CommentResponse], error)
	CreateComment(ctx context.Context, actorID, projectID, issueID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error)
	GetComment(ctx context.Context, actorID, projectID, issueID, commentID uuid.UUID) (*commentDto.CommentResponse, error)
	UpdateComment(ctx context.Context, actorID, projectID, issueID, commentID uuid.UUID, req commentDto.UpdateCommentRequest) (*commentDto.CommentResponse, error)
	DeleteComment(ctx context.Context, actorID, projectID, issueID, commentID uuid.UUID) error
}

type commentService struct {
	repo        repository.CommentRepository
	resolver    scope.ChainResolver
	cooldown    *ratelimiter.Cooldown
	globalLimit time.Duration
}

func NewCommentService(repo repository.CommentRepository, resolver scope.ChainResolver, cooldown *ratelimiter.Cooldown, globalLimit time.Duration) CommentService {
	return &commentService{
		repo:        repo,
		resolver:    resolver,
		cooldown:    cooldown,
		globalLimit: globalLimit,
	}
}

func (s *commentService) resolve(ctx context.Context, actorID, projectID, issueID uuid.UUID, commentID *uuid.UUID) (scope.Chain, error) {
	return s.resolver.Resolve(ctx, actorID, scope.Path{
		ProjectID: projectID,
		IssueID:   &issueID,
		CommentID: commentID,
	})
}

func (s *commentService) ListComments(ctx context.Context, actorID, projectID, issueID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[commentDto.CommentResponse], error) {
	chain, err := s.resolve(ctx, actorID, projectID, issueID, nil)
	if err != nil {
		return nil, err
	}

	q = q.Normalize()
	comments, total, err := s.repo.ListReadable(ctx, chain.Issue.ID, actorID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]commentDto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		data = append(data, toCommentResponse(c))
	}

	page := commonDto.NewPaginated(data, total, q)
	return &page, nil
}

func (s *commentService) CreateComment(ctx context.Context, actorID, projectID, issueID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error) {
	chain, err := s.resolve(ctx, actorID, projectID, issueID, nil)
	if err != nil {
		return nil, err
	}

	if err := chain.RequireMember(); err != nil {
		return nil, err
	}

	release, err := s.cooldown.Acquire(ctx, actorID, ratelimiter.Limit{Action: ratelimiter.ScopeGlobal, Window: s.globalLimit})
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		IssueID:  chain.Issue.ID,
		AuthorID: &actorID,
		Title:    req.Title,
		Content:  req.Content,
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		release()
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("issue no longer exists: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	metrics.ResourcesCreatedTotal.WithLabelValues("comment").Inc()

	created, err := s.repo.FindInIssue(ctx, chain.Issue.ID, comment.ID)
	if err != nil {
		return nil, err
	}

	resp := toCommentResponse(created)
	return &resp, nil
}

func (s *commentService) GetComment(ctx context.Context, actorID, projectID, issueID, commentID uuid.UUID) (*commentDto.CommentResponse, error) {
	chain, err := s.resolve(ctx, actorID, projectID, issueID, &commentID)
	if err != nil {
		return nil, err
	}

	if err := chain.RequireRead("comment", chain.Comment); err != nil {
		return nil, err
	}

	resp := toCommentResponse(chain.Comment)
	return &resp, nil
}

func (s *commentService) UpdateComment(ctx context.Context, actorID, projectID, issueID, commentID uuid.UUID, req commentDto.UpdateCommentRequest) (*commentDto.CommentResponse, error) {
	chain, err := s.resolve(ctx, actorID, projectID, issueID, &commentID)
	if err != nil {
		return nil, err
	}

	if err := chain.RequireWrite("comment", chain.Comment, policy.CanWrite); err != nil {
		return nil, err
	}

	comment := chain.Comment
	if req.Title != nil {
		comment.Title = *req.Title
	}
	if req.Content != nil {
		comment.Content = *req.Content
	}

	if err := s.repo.Update(ctx, comment); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindInIssue(ctx, chain.Issue.ID, comment.ID)
	if err != nil {
		return nil, err
	}

	resp := toCommentResponse(updated)
	return &resp, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actorID, projectID, issueID, commentID uuid.UUID) error {
	chain, err := s.resolve(ctx, actorID, projectID, issueID, &commentID)
	if err != nil {
		return err
	}

	if err := chain.RequireWrite("comment", chain.Comment, policy.CanWrite); err != nil {
		return err
	}

	return s.repo.Delete(ctx, commentID)
}

func toCommentResponse(c *entity.Comment) commentDto.CommentResponse {
	resp := commentDto.CommentResponse{
		ID:        c.ID,
		IssueID:   c.IssueID,
		Title:     c.Title,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.AuthorID != nil {
		author := &commonDto.AuthorResponse{ID: *c.AuthorID}
		if c.Author != nil {
			author.Username = c.Author.Username
		}
		resp.Author = author
	}
	return resp
}
