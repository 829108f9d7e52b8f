package dto

import (
	"time"

	commonDto "anoa.com/softdesk/pkg/dto"
	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"max=10000"`
}

type UpdateCommentRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content *string `json:"content" binding:"omitempty,max=10000"`
}

type CommentResponse struct {
	ID        uuid.UUID                 `json:"id"`
	IssueID   uuid.UUID                 `json:"issue_id"`
	Author    *commonDto.AuthorResponse `json:"author"`
	Title     string                    `json:"title"`
	Content   string                    `json:"content"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}
