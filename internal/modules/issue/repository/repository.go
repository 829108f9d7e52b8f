package repository

import (
	"context"

	"anoa.com/softdesk/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// readableIssue matches issues the actor authored, issues of a project the
// actor authors, and every issue of a project the actor contributes to.
const readableIssue = `issues.author_id = ?
	OR EXISTS (SELECT 1 FROM projects p WHERE p.id = issues.project_id AND p.author_id = ?)
	OR EXISTS (SELECT 1 FROM contributors c WHERE c.project_id = issues.project_id AND c.user_id = ?)`

type IssueRepository interface {
	Create(ctx context.Context, issue *entity.Issue) error
	FindInProject(ctx context.Context, projectID, issueID uuid.UUID) (*entity.Issue, error)
	ListReadable(ctx context.Context, projectID, actorID uuid.UUID, offset, limit int) ([]*entity.Issue, int64, error)
	Update(ctx context.Context, issue *entity.Issue) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type issueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Create(ctx context.Context, issue *entity.Issue) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(issue).Error
}

// FindInProject only matches an issue that belongs to projectID.
func (r *issueRepository) FindInProject(ctx context.Context, projectID, issueID uuid.UUID) (*entity.Issue, error) {
	var issue entity.Issue
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND project_id = ?", issueID, projectID).
		First(&issue).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) ListReadable(ctx context.Context, projectID, actorID uuid.UUID, offset, limit int) ([]*entity.Issue, int64, error) {
	var issues []*entity.Issue
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.Issue{}).
		Where("issues.project_id = ?", projectID).
		Where(readableIssue, actorID, actorID, actorID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Author").
		Order("issues.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&issues).Error; err != nil {
		return nil, 0, err
	}

	return issues, total, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *entity.Issue) error {
	return r.db.WithContext(ctx).
		Model(issue).
		Omit(clause.Associations).
		Select("title", "content", "status", "priority", "tag", "updated_at").
		Updates(issue).Error
}

// Delete removes the issue and, through the foreign key, its comments.
func (r *issueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Issue{}, "id = ?", id).Error
}
