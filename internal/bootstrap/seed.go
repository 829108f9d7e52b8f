package bootstrap

import (
	"errors"
	"time"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "softdesk_api"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Project{},
		&entity.Contributor{},
		&entity.Issue{},
		&entity.Comment{},
	)
}

type seedUser struct {
	Username    string
	DateOfBirth string
	Consent     bool
}

var seedUsers = []seedUser{
	{Username: "Bob", DateOfBirth: "1990-01-01", Consent: true},
	{Username: "Tom", DateOfBirth: "2023-01-01", Consent: false},
}

// SeedDevelopment creates the test users and a demo project owned by the
// first of them. Rows that already exist are left alone.
func SeedDevelopment(db *gorm.DB) error {
	log := logger.Get()

	users := make([]*entity.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		user, created, err := seedOneUser(db, su)
		if err != nil {
			return err
		}
		if created {
			log.Info().Str("username", user.Username).Msg("seeded user")
		} else {
			log.Debug().Str("username", user.Username).Msg("user already exists, skipping seed")
		}
		users = append(users, user)
	}

	return seedDemoProject(db, users[0], users[1])
}

func seedOneUser(db *gorm.DB, su seedUser) (*entity.User, bool, error) {
	var existing entity.User
	err := db.Where("username = ?", su.Username).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	dob, err := time.Parse("2006-01-02", su.DateOfBirth)
	if err != nil {
		return nil, false, err
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}

	user := &entity.User{
		Username:     su.Username,
		Email:        su.Username + "@softdesk.local",
		PasswordHash: string(hashedPasswordBytes),
		DateOfBirth:  &dob,
		Consent:      su.Consent,
	}
	if !user.CanConsent(time.Now()) {
		user.Consent = false
	}

	if err := db.Create(user).Error; err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func seedDemoProject(db *gorm.DB, author, contributor *entity.User) error {
	var count int64
	if err := db.Model(&entity.Project{}).
		Where("author_id = ?", author.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		project := &entity.Project{
			AuthorID:    author.ID,
			Name:        "SoftDesk demo",
			Type:        entity.ProjectTypeBackend,
			Description: "Seeded project for local development",
		}
		if err := tx.Omit("Author").Create(project).Error; err != nil {
			return err
		}

		members := []entity.Contributor{
			{ProjectID: project.ID, UserID: author.ID, Role: entity.ContributorRoleAdmin},
			{ProjectID: project.ID, UserID: contributor.ID, Role: entity.ContributorRoleContributor},
		}
		if err := tx.Omit("User").Create(&members).Error; err != nil {
			return err
		}

		issue := &entity.Issue{
			ProjectID: project.ID,
			AuthorID:  &author.ID,
			Title:     "Login returns 500 on empty password",
			Content:   "Steps: POST /api/auth/login with an empty password field.",
			Priority:  entity.IssuePriorityHigh,
			Tag:       entity.IssueTagBug,
		}
		if err := tx.Omit("Author").Create(issue).Error; err != nil {
			return err
		}

		comment := &entity.Comment{
			IssueID:  issue.ID,
			AuthorID: &contributor.ID,
			Title:    "Reproduced",
			Content:  "Same result on the staging database.",
		}
		return tx.Omit("Author").Create(comment).Error
	})
	if err != nil {
		return err
	}

	log := logger.Get()
	log.Info().Str("author", author.Username).Msg("seeded demo project")
	return nil
}
