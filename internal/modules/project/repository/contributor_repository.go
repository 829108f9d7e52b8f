package repository

import (
	"context"

	"anoa.com/softdesk/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContributorRepository interface {
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	FindInProject(ctx context.Context, projectID, contributorID uuid.UUID) (*entity.Contributor, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]*entity.Contributor, int64, error)
	Create(ctx context.Context, contributor *entity.Contributor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type contributorRepository struct {
	db *gorm.DB
}

func NewContributorRepository(db *gorm.DB) ContributorRepository {
	return &contributorRepository{db: db}
}

func (r *contributorRepository) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Contributor{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *contributorRepository) FindInProject(ctx context.Context, projectID, contributorID uuid.UUID) (*entity.Contributor, error) {
	var contributor entity.Contributor
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND project_id = ?", contributorID, projectID).
		First(&contributor).Error; err != nil {
		return nil, err
	}
	return &contributor, nil
}

func (r *contributorRepository) ListByProject(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]*entity.Contributor, int64, error) {
	var contributors []*entity.Contributor
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.Contributor{}).
		Where("project_id = ?", projectID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("User").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&contributors).Error; err != nil {
		return nil, 0, err
	}

	return contributors, total, nil
}

// Create fails with gorm.ErrDuplicatedKey when the user is already a member.
func (r *contributorRepository) Create(ctx context.Context, contributor *entity.Contributor) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(contributor).Error
}

func (r *contributorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Contributor{}, "id = ?", id).Error
}
