package repository

import (
	"context"

	"anoa.com/softdesk/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const readableComment = `comments.author_id = ?
	OR EXISTS (SELECT 1 FROM issues i JOIN projects p ON p.id = i.project_id WHERE i.id = comments.issue_id AND p.author_id = ?)
	OR EXISTS (SELECT 1 FROM issues i JOIN contributors c ON c.project_id = i.project_id WHERE i.id = comments.issue_id AND c.user_id = ?)`

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindInIssue(ctx context.Context, issueID, commentID uuid.UUID) (*entity.Comment, error)
	ListReadable(ctx context.Context, issueID, actorID uuid.UUID, offset, limit int) ([]*entity.Comment, int64, error)
	Update(ctx context.Context, comment *entity.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *commentRepository) FindInIssue(ctx context.Context, issueID, commentID uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND issue_id = ?", commentID, issueID).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListReadable(ctx context.Context, issueID, actorID uuid.UUID, offset, limit int) ([]*entity.Comment, int64, error) {
	var comments []*entity.Comment
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Where("comments.issue_id = ?", issueID).
		Where(readableComment, actorID, actorID, actorID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Author").
		Order("comments.created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).
		Model(comment).
		Omit(clause.Associations).
		Select("title", "content", "updated_at").
		Updates(comment).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Comment{}, "id = ?", id).Error
}
