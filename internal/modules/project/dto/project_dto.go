package dto

import (
	"time"

	"anoa.com/softdesk/pkg/apperror"
	commonDto "anoa.com/softdesk/pkg/dto"
	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Type        string `json:"type" binding:"required,oneof=backend frontend ios android"`
	Description string `json:"description" binding:"max=10000"`
}

// UpdateProjectRequest serves both PUT and PATCH. Sending author_id transfers
// ownership of the project; an explicit null is rejected.
type UpdateProjectRequest struct {
	Name        *string                  `json:"name" binding:"omitempty,min=1,max=255"`
	Type        *string                  `json:"type" binding:"omitempty,oneof=backend frontend ios android"`
	Description *string                  `json:"description" binding:"omitempty,max=10000"`
	AuthorID    commonDto.NullableString `json:"author_id"`
}

func (r UpdateProjectRequest) Validate() error {
	if r.AuthorID.IsNull() {
		return apperror.Validation("the new author must be a valid user")
	}
	return nil
}

type ProjectResponse struct {
	ID          uuid.UUID                `json:"id"`
	Name        string                   `json:"name"`
	Type        string                   `json:"type"`
	Description string                   `json:"description"`
	Author      commonDto.AuthorResponse `json:"author"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

type AddContributorRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role" binding:"omitempty,oneof=admin contributor"`
}

type ContributorResponse struct {
	ID        uuid.UUID                `json:"id"`
	ProjectID uuid.UUID                `json:"project_id"`
	User      commonDto.AuthorResponse `json:"user"`
	Role      string                   `json:"role"`
	CreatedAt time.Time                `json:"created_at"`
}
