package models

import "time"

// Role values stored on User.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered runner.
type User struct {
	ID             uint      `gorm:"primaryKey"`
	Username       string    `gorm:"size:255;uniqueIndex;not null"`
	Email          string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"size:255;not null"`
	Role           string    `gorm:"size:50;not null;default:'user';index"`
	ProfilePicture string    `gorm:"size:512"`
	Bio            string    `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Records  []Record  `gorm:"constraint:OnDelete:CASCADE;"`
	Comments []Comment `gorm:"constraint:OnDelete:CASCADE;"`
}

// IsAdmin reports whether the user may moderate records and manage games.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
