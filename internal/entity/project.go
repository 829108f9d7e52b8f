package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectTypeBackend  = "backend"
	ProjectTypeFrontend = "frontend"
	ProjectTypeIOS      = "ios"
	ProjectTypeAndroid  = "android"
)

const (
	ContributorRoleAdmin       = "admin"
	ContributorRoleContributor = "contributor"
)

type Project struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"author_id"`
	Author       User          `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author"`
	Name         string        `gorm:"size:255;not null" json:"name"`
	Type         string        `gorm:"size:20;not null" json:"type"`
	Description  string        `gorm:"type:text" json:"description"`
	Contributors []Contributor `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Issues       []Issue       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV7())
	}
	return nil
}

func (p *Project) AuthorUUID() (uuid.UUID, bool) {
	return p.AuthorID, p.AuthorID != uuid.Nil
}

// Contributor is a project membership. A user appears at most once per project.
type Contributor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contributor_project_user" json:"project_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contributor_project_user;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Role      string    `gorm:"size:20;not null;default:contributor" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Contributor) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.Must(uuid.NewV7())
	}
	return nil
}
