package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinConsentAge is the youngest age at which a user may give data-sharing consent.
const MinConsentAge = 15

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	DateOfBirth  *time.Time `gorm:"type:date" json:"date_of_birth"`
	Consent      bool       `gorm:"not null;default:false" json:"consent"`
	DateJoined   time.Time  `gorm:"autoCreateTime" json:"date_joined"`
	LastLogin    *time.Time `json:"last_login"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// AgeAt returns whole years between dob and now, minus one when this year's
// birthday has not happened yet.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// Age reports the user's age at now, or false when no birth date is set.
func (u *User) Age(now time.Time) (int, bool) {
	if u.DateOfBirth == nil {
		return 0, false
	}
	return AgeAt(*u.DateOfBirth, now), true
}

// CanConsent is false for users under MinConsentAge and for users without a birth date.
func (u *User) CanConsent(now time.Time) bool {
	age, ok := u.Age(now)
	return ok && age >= MinConsentAge
}
