package dto

import (
	"time"

	commonDto "anoa.com/softdesk/pkg/dto"
	"github.com/google/uuid"
)

// CreateIssueRequest has no project or author fields; both come from the
// request path and the token.
type CreateIssueRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Content  string `json:"content" binding:"max=20000"`
	Status   string `json:"status" binding:"omitempty,oneof=todo in_progress closed"`
	Priority string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Tag      string `json:"tag" binding:"omitempty,oneof=bug feature improvement"`
}

type UpdateIssueRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content  *string `json:"content" binding:"omitempty,max=20000"`
	Status   *string `json:"status" binding:"omitempty,oneof=todo in_progress closed"`
	Priority *string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Tag      *string `json:"tag" binding:"omitempty,oneof=bug feature improvement"`
}

type SearchIssuesQuery struct {
	Q string `form:"q" binding:"max=200"`
	commonDto.PageQuery
}

type IssueResponse struct {
	ID        uuid.UUID                 `json:"id"`
	ProjectID uuid.UUID                 `json:"project_id"`
	Author    *commonDto.AuthorResponse `json:"author"`
	Title     string                    `json:"title"`
	Content   string                    `json:"content"`
	Status    string                    `json:"status"`
	Priority  string                    `json:"priority"`
	Tag       string                    `json:"tag"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// IssueSearchHit is an issue as stored in the search index.
type IssueSearchHit struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Tag      string `json:"tag"`
}
