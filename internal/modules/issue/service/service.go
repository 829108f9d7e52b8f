package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/internal/metrics"
	issueDto "anoa.com/softdesk/internal/modules/issue/dto"
	"anoa.com/softdesk/internal/modules/issue/repository"
	search "anoa.com/softdesk/internal/modules/search/service"
	"anoa.com/softdesk/internal/policy"
	"anoa.com/softdesk/internal/scope"
	"anoa.com/softdesk/pkg/apperror"
	commonDto "anoa.com/softdesk/pkg/dto"
	"anoa.com/softdesk/pkg/logger"
	"anoa.com/softdesk/pkg/ratelimiter"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssueService interface {
	ListIssues(ctx context.Context, actorID, projectID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[issueDto.IssueResponse], error)
	CreateIssue(ctx context.Context, actorID, projectID uuid.UUID, req issueDto.CreateIssueRequest) (*issueDto.IssueResponse, error)
	GetIssue(ctx context.Context, actorID, projectID, issueID uuid.UUID) (*issueDto.IssueResponse, error)
	UpdateIssue(ctx context.Context, actorID, projectID, issueID uuid.UUID, req issueDto.UpdateIssueRequest) (*issueDto.IssueResponse, error)
	DeleteIssue(ctx context.Context, actorID, projectID, issueID uuid.UUID) error
	SearchIssues(ctx context.Context, actorID, projectID uuid.UUID, q issueDto.SearchIssuesQuery) (*commonDto.Paginated[issueDto.IssueSearchHit], error)
}

type issueService struct {
	repo        repository.IssueRepository
	resolver    scope.ChainResolver
	meili       search.MeiliSearchService
	cooldown    *ratelimiter.Cooldown
	globalLimit time.Duration
	issueLimit  time.Duration
}

// NewIssueService builds the issue service. meili and cooldown may be nil,
// which disables indexing and rate limiting respectively.
func NewIssueService(
	repo repository.IssueRepository,
	resolver scope.ChainResolver,
	meili search.MeiliSearchService,
	cooldown *ratelimiter.Cooldown,
	globalLimit, issueLimit time.Duration,
) IssueService {
	return &issueService{
		repo:        repo,
		resolver:    resolver,
		meili:       meili,
		cooldown:    cooldown,
		globalLimit: globalLimit,
		issueLimit:  issueLimit,
	}
}

func (s *issueService) ListIssues(ctx context.Context, actorID, projectID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[issueDto.IssueResponse], error) {
	if _, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID}); err != nil {
		return nil, err
	}

	q = q.Normalize()
	issues, total, err := s.repo.ListReadable(ctx, projectID, actorID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]issueDto.IssueResponse, 0, len(issues))
	for _, issue := range issues {
		data = append(data, toIssueResponse(issue))
	}

	page := commonDto.NewPaginated(data, total, q)
	return &page, nil
}

func (s *issueService) CreateIssue(ctx context.Context, actorID, projectID uuid.UUID, req issueDto.CreateIssueRequest) (*issueDto.IssueResponse, error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireMember(); err != nil {
		return nil, err
	}

	release, err := s.cooldown.Acquire(ctx, actorID,
		ratelimiter.Limit{Action: ratelimiter.ScopeGlobal, Window: s.globalLimit},
		ratelimiter.Limit{Action: ratelimiter.ScopeIssue, Window: s.issueLimit},
	)
	if err != nil {
		return nil, err
	}

	issue := &entity.Issue{
		ProjectID: chain.Project.ID,
		AuthorID:  &actorID,
		Title:     req.Title,
		Content:   req.Content,
		Status:    req.Status,
		Priority:  req.Priority,
		Tag:       req.Tag,
	}

	if err := s.repo.Create(ctx, issue); err != nil {
		release()
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("project no longer exists: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	metrics.ResourcesCreatedTotal.WithLabelValues("issue").Inc()

	created, err := s.repo.FindInProject(ctx, chain.Project.ID, issue.ID)
	if err != nil {
		return nil, err
	}

	s.index(created)

	resp := toIssueResponse(created)
	return &resp, nil
}

func (s *issueService) GetIssue(ctx context.Context, actorID, projectID, issueID uuid.UUID) (*issueDto.IssueResponse, error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID, IssueID: &issueID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireRead("issue", chain.Issue); err != nil {
		return nil, err
	}

	resp := toIssueResponse(chain.Issue)
	return &resp, nil
}

// UpdateIssue applies a partial update. Status may move between any two
// values.
func (s *issueService) UpdateIssue(ctx context.Context, actorID, projectID, issueID uuid.UUID, req issueDto.UpdateIssueRequest) (*issueDto.IssueResponse, error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID, IssueID: &issueID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireWrite("issue", chain.Issue, policy.CanWrite); err != nil {
		return nil, err
	}

	issue := chain.Issue
	if req.Title != nil {
		issue.Title = *req.Title
	}
	if req.Content != nil {
		issue.Content = *req.Content
	}
	if req.Status != nil {
		issue.Status = *req.Status
	}
	if req.Priority != nil {
		issue.Priority = *req.Priority
	}
	if req.Tag != nil {
		issue.Tag = *req.Tag
	}

	if err := s.repo.Update(ctx, issue); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindInProject(ctx, chain.Project.ID, issue.ID)
	if err != nil {
		return nil, err
	}

	s.index(updated)

	resp := toIssueResponse(updated)
	return &resp, nil
}

func (s *issueService) DeleteIssue(ctx context.Context, actorID, projectID, issueID uuid.UUID) error {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID, IssueID: &issueID})
	if err != nil {
		return err
	}

	if err := chain.RequireWrite("issue", chain.Issue, policy.CanWrite); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, issueID); err != nil {
		return err
	}

	if s.meili != nil {
		if err := s.meili.DeleteIssue(issueID.String()); err != nil {
			log := logger.Get()
			log.Warn().Err(err).Str("issue_id", issueID.String()).Msg("failed to remove issue from search index")
		}
	}

	return nil
}

func (s *issueService) SearchIssues(ctx context.Context, actorID, projectID uuid.UUID, q issueDto.SearchIssuesQuery) (*commonDto.Paginated[issueDto.IssueSearchHit], error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireRead("project", chain.Project); err != nil {
		return nil, err
	}

	if s.meili == nil {
		return nil, fmt.Errorf("search is not configured: %w", apperror.ErrInternal)
	}

	page := q.PageQuery.Normalize()
	docs, total, err := s.meili.SearchIssues(chain.Project.ID, q.Q, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}

	hits := make([]issueDto.IssueSearchHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, issueDto.IssueSearchHit{
			ID:       d.ID,
			Title:    d.Title,
			Content:  d.Content,
			Status:   d.Status,
			Priority: d.Priority,
			Tag:      d.Tag,
		})
	}

	result := commonDto.NewPaginated(hits, total, page)
	return &result, nil
}

// index pushes the issue to the search index. Failures are only logged.
func (s *issueService) index(issue *entity.Issue) {
	if s.meili == nil {
		return
	}
	if err := s.meili.IndexIssue(issue); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Str("issue_id", issue.ID.String()).Msg("failed to index issue")
	}
}

func toIssueResponse(issue *entity.Issue) issueDto.IssueResponse {
	resp := issueDto.IssueResponse{
		ID:        issue.ID,
		ProjectID: issue.ProjectID,
		Title:     issue.Title,
		Content:   issue.Content,
		Status:    issue.Status,
		Priority:  issue.Priority,
		Tag:       issue.Tag,
		CreatedAt: issue.CreatedAt,
		UpdatedAt: issue.UpdatedAt,
	}
	if issue.AuthorID != nil {
		author := &commonDto.AuthorResponse{ID: *issue.AuthorID}
		if issue.Author != nil {
			author.Username = issue.Author.Username
		}
		resp.Author = author
	}
	return resp
}
