package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/internal/metrics"
	projectDto "anoa.com/softdesk/internal/modules/project/dto"
	"anoa.com/softdesk/internal/modules/project/repository"
	userRepo "anoa.com/softdesk/internal/modules/user/repository"
	"anoa.com/softdesk/internal/policy"
	"anoa.com/softdesk/internal/scope"
	"anoa.com/softdesk/pkg/apperror"
	commonDto "anoa.com/softdesk/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContributorService interface {
	ListContributors(ctx context.Context, actorID, projectID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[projectDto.ContributorResponse], error)
	AddContributor(ctx context.Context, actorID, projectID uuid.UUID, req projectDto.AddContributorRequest) (*projectDto.ContributorResponse, error)
	GetContributor(ctx context.Context, actorID, projectID, contributorID uuid.UUID) (*projectDto.ContributorResponse, error)
	RemoveContributor(ctx context.Context, actorID, projectID, contributorID uuid.UUID) error
}

type contributorService struct {
	repo     repository.ContributorRepository
	userRepo userRepo.UserRepository
	resolver scope.ChainResolver
}

func NewContributorService(repo repository.ContributorRepository, userRepo userRepo.UserRepository, resolver scope.ChainResolver) ContributorService {
	return &contributorService{
		repo:     repo,
		userRepo: userRepo,
		resolver: resolver,
	}
}

// ListContributors returns an empty page to actors outside the project.
func (s *contributorService) ListContributors(ctx context.Context, actorID, projectID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[projectDto.ContributorResponse], error) {
	q = q.Normalize()

	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	if !chain.InProject() {
		page := commonDto.NewPaginated([]projectDto.ContributorResponse{}, 0, q)
		return &page, nil
	}

	contributors, total, err := s.repo.ListByProject(ctx, projectID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]projectDto.ContributorResponse, 0, len(contributors))
	for _, c := range contributors {
		data = append(data, toContributorResponse(c))
	}

	page := commonDto.NewPaginated(data, total, q)
	return &page, nil
}

func (s *contributorService) AddContributor(ctx context.Context, actorID, projectID uuid.UUID, req projectDto.AddContributorRequest) (*projectDto.ContributorResponse, error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireProjectAuthor(); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperror.Validation("user_id must be a valid id")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("user does not exist")
		}
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = entity.ContributorRoleContributor
	}

	contributor := &entity.Contributor{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      role,
	}

	if err := s.repo.Create(ctx, contributor); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user is already a contributor of this project: %w", apperror.ErrConflict)
		}
		return nil, err
	}
	contributor.User = *user

	metrics.ResourcesCreatedTotal.WithLabelValues("contributor").Inc()

	resp := toContributorResponse(contributor)
	return &resp, nil
}

func (s *contributorService) GetContributor(ctx context.Context, actorID, projectID, contributorID uuid.UUID) (*projectDto.ContributorResponse, error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID, ContributorID: &contributorID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireRead("contributor", chain.Project); err != nil {
		return nil, err
	}

	resp := toContributorResponse(chain.Contributor)
	return &resp, nil
}

// RemoveContributor lets the project author drop any membership except their own.
func (s *contributorService) RemoveContributor(ctx context.Context, actorID, projectID, contributorID uuid.UUID) error {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID, ContributorID: &contributorID})
	if err != nil {
		return err
	}

	// Membership rows have no author of their own; writes fall to the project author.
	if err := chain.RequireWrite("contributor", chain.Project, policy.AllowAll); err != nil {
		return err
	}
	if err := chain.RequireProjectAuthor(); err != nil {
		return err
	}

	if chain.Contributor.UserID == chain.Project.AuthorID {
		return apperror.Validation("the project author cannot be removed from the project")
	}

	return s.repo.Delete(ctx, contributorID)
}

func toContributorResponse(c *entity.Contributor) projectDto.ContributorResponse {
	return projectDto.ContributorResponse{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		User: commonDto.AuthorResponse{
			ID:       c.UserID,
			Username: c.User.Username,
		},
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
	}
}
