package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/internal/metrics"
	projectDto "anoa.com/softdesk/internal/modules/project/dto"
	"anoa.com/softdesk/internal/modules/project/repository"
	search "anoa.com/softdesk/internal/modules/search/service"
	userRepo "anoa.com/softdesk/internal/modules/user/repository"
	"anoa.com/softdesk/internal/policy"
	"anoa.com/softdesk/internal/scope"
	"anoa.com/softdesk/pkg/apperror"
	commonDto "anoa.com/softdesk/pkg/dto"
	"anoa.com/softdesk/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectService interface {
	ListProjects(ctx context.Context, actorID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[projectDto.ProjectResponse], error)
	CreateProject(ctx context.Context, actorID uuid.UUID, req projectDto.CreateProjectRequest) (*projectDto.ProjectResponse, error)
	GetProject(ctx context.Context, actorID, projectID uuid.UUID) (*projectDto.ProjectResponse, error)
	UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, req projectDto.UpdateProjectRequest) (*projectDto.ProjectResponse, error)
	DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error
}

type projectService struct {
	repo     repository.ProjectRepository
	userRepo userRepo.UserRepository
	resolver scope.ChainResolver
	meili    search.MeiliSearchService
}

func NewProjectService(repo repository.ProjectRepository, userRepo userRepo.UserRepository, resolver scope.ChainResolver, meili search.MeiliSearchService) ProjectService {
	return &projectService{
		repo:     repo,
		userRepo: userRepo,
		resolver: resolver,
		meili:    meili,
	}
}

func (s *projectService) ListProjects(ctx context.Context, actorID uuid.UUID, q commonDto.PageQuery) (*commonDto.Paginated[projectDto.ProjectResponse], error) {
	q = q.Normalize()

	projects, total, err := s.repo.ListForUser(ctx, actorID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]projectDto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		data = append(data, toProjectResponse(p))
	}

	page := commonDto.NewPaginated(data, total, q)
	return &page, nil
}

func (s *projectService) CreateProject(ctx context.Context, actorID uuid.UUID, req projectDto.CreateProjectRequest) (*projectDto.ProjectResponse, error) {
	project := &entity.Project{
		AuthorID:    actorID,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
	}

	if err := s.repo.Create(ctx, project); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("author no longer exists: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	metrics.ResourcesCreatedTotal.WithLabelValues("project").Inc()

	created, err := s.repo.FindByID(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	resp := toProjectResponse(created)
	return &resp, nil
}

func (s *projectService) GetProject(ctx context.Context, actorID, projectID uuid.UUID) (*projectDto.ProjectResponse, error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireRead("project", chain.Project); err != nil {
		return nil, err
	}

	resp := toProjectResponse(chain.Project)
	return &resp, nil
}

func (s *projectService) UpdateProject(ctx context.Context, actorID, projectID uuid.UUID, req projectDto.UpdateProjectRequest) (*projectDto.ProjectResponse, error) {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	if err := chain.RequireWrite("project", chain.Project, policy.CanWrite); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	project := chain.Project
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Type != nil {
		project.Type = *req.Type
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if req.AuthorID.Set {
		if err := s.transferOwnership(ctx, project, req.AuthorID.Value); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	resp := toProjectResponse(updated)
	return &resp, nil
}

// transferOwnership points project at a new author. The repository update
// records the new author's admin membership in the same transaction.
func (s *projectService) transferOwnership(ctx context.Context, project *entity.Project, rawAuthorID string) error {
	newAuthorID, err := uuid.Parse(rawAuthorID)
	if err != nil {
		return apperror.Validation("author_id must be a valid id")
	}

	if newAuthorID == project.AuthorID {
		return apperror.Validation("the new author must be different from the current author")
	}

	newAuthor, err := s.userRepo.FindByID(ctx, newAuthorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Validation("the new author does not exist")
		}
		return err
	}

	log := logger.Get()
	log.Info().
		Str("project_id", project.ID.String()).
		Str("from", project.AuthorID.String()).
		Str("to", newAuthor.ID.String()).
		Msg("transferring project ownership")

	project.AuthorID = newAuthor.ID
	project.Author = *newAuthor
	return nil
}

func (s *projectService) DeleteProject(ctx context.Context, actorID, projectID uuid.UUID) error {
	chain, err := s.resolver.Resolve(ctx, actorID, scope.Path{ProjectID: projectID})
	if err != nil {
		return err
	}

	if err := chain.RequireWrite("project", chain.Project, policy.CanWrite); err != nil {
		return err
	}

	issueIDs, err := s.repo.IssueIDs(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, projectID); err != nil {
		return err
	}

	if s.meili != nil {
		for _, id := range issueIDs {
			if err := s.meili.DeleteIssue(id.String()); err != nil {
				log := logger.Get()
				log.Warn().Err(err).Str("issue_id", id.String()).Msg("failed to remove issue from search index")
			}
		}
	}

	return nil
}

func toProjectResponse(p *entity.Project) projectDto.ProjectResponse {
	return projectDto.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Description: p.Description,
		Author: commonDto.AuthorResponse{
			ID:       p.AuthorID,
			Username: p.Author.Username,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
