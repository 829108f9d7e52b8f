package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	IssueStatusTodo       = "todo"
	IssueStatusInProgress = "in_progress"
	IssueStatusClosed     = "closed"
)

const (
	IssuePriorityLow    = "low"
	IssuePriorityMedium = "medium"
	IssuePriorityHigh   = "high"
	IssuePriorityUrgent = "urgent"
)

const (
	IssueTagBug         = "bug"
	IssueTagFeature     = "feature"
	IssueTagImprovement = "improvement"
)

type Issue struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	AuthorID  *uuid.UUID `gorm:"type:uuid;index" json:"author_id"`
	Author    *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"author,omitempty"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Content   string     `gorm:"type:text" json:"content"`
	Status    string     `gorm:"size:20;not null;default:todo" json:"status"`
	Priority  string     `gorm:"size:20;not null;default:low" json:"priority"`
	Tag       string     `gorm:"size:20" json:"tag"`
	Comments  []Comment  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.Must(uuid.NewV7())
	}
	if i.Status == "" {
		i.Status = IssueStatusTodo
	}
	if i.Priority == "" {
		i.Priority = IssuePriorityLow
	}
	return nil
}

func (i *Issue) AuthorUUID() (uuid.UUID, bool) {
	if i.AuthorID == nil {
		return uuid.Nil, false
	}
	return *i.AuthorID, true
}

type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IssueID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"issue_id"`
	AuthorID  *uuid.UUID `gorm:"type:uuid;index" json:"author_id"`
	Author    *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"author,omitempty"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Content   string     `gorm:"type:text" json:"content"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.Must(uuid.NewV7())
	}
	return nil
}

func (c *Comment) AuthorUUID() (uuid.UUID, bool) {
	if c.AuthorID == nil {
		return uuid.Nil, false
	}
	return *c.AuthorID, true
}
