package models

import "time"

// Game represents a game that runs can be submitted for.
type Game struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null"`
	Slug        string `gorm:"size:255;uniqueIndex;not null"`
	Icon        string `gorm:"size:512"`
	ReleaseDate *time.Time
	Rules       string `gorm:"type:text"`
	Developer   string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Versions   []GameVersion `gorm:"constraint:OnDelete:CASCADE;"`
	Categories []Category    `gorm:"constraint:OnDelete:CASCADE;"`
	Records    []Record      `gorm:"constraint:OnDelete:CASCADE;"`
}
