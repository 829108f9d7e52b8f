package repository

import (
	"context"

	"anoa.com/softdesk/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entity.Project, int64, error)
	Update(ctx context.Context, project *entity.Project) error
	IssueIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// upsertAdmin makes userID an admin contributor of projectID.
func upsertAdmin(tx *gorm.DB, projectID, userID uuid.UUID) error {
	member := &entity.Contributor{
		ProjectID: projectID,
		UserID:    userID,
		Role:      entity.ContributorRoleAdmin,
	}
	return tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"role": entity.ContributorRoleAdmin}),
		}).
		Create(member).Error
}

// Create inserts the project and its author's admin membership together.
func (r *projectRepository) Create(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		return upsertAdmin(tx, project.ID, project.AuthorID)
	})
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	var project entity.Project
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", id).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForUser returns projects the user authors or contributes to. Membership
// is an EXISTS test so each project appears once.
func (r *projectRepository) ListForUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entity.Project, int64, error) {
	var projects []*entity.Project
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Where("projects.author_id = ? OR EXISTS (SELECT 1 FROM contributors c WHERE c.project_id = projects.id AND c.user_id = ?)", userID, userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Author").
		Order("projects.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update saves the project's own columns. The current author is (re)asserted
// as an admin contributor in the same transaction, which is what makes an
// ownership transfer atomic.
func (r *projectRepository) Update(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(project).
			Omit(clause.Associations).
			Select("author_id", "name", "type", "description", "updated_at").
			Updates(project).Error; err != nil {
			return err
		}
		return upsertAdmin(tx, project.ID, project.AuthorID)
	})
}

func (r *projectRepository) IssueIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.Issue{}).
		Where("project_id = ?", projectID).
		Pluck("id", &ids).Error
	return ids, err
}

// Delete removes the project; contributors, issues and their comments cascade.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Project{}, "id = ?", id).Error
}
