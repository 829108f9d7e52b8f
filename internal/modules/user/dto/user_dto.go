package dto

import (
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

type SignupRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=150"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8,max=72"`
	FirstName   string  `json:"first_name" binding:"max=150"`
	LastName    string  `json:"last_name" binding:"max=150"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Consent     *bool   `json:"consent"`
}

// UpdateUserRequest serves both PUT and PATCH; absent fields are left unchanged.
type UpdateUserRequest struct {
	Username    *string `json:"username" binding:"omitempty,min=3,max=150"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=8,max=72"`
	FirstName   *string `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" binding:"omitempty,max=150"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Consent     *bool   `json:"consent"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *string    `json:"date_of_birth"`
	Age         *int       `json:"age"`
	Consent     bool       `json:"consent"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLogin   *time.Time `json:"last_login"`
}
