package models

// GameVersion is a release or patch of a game that runs are timed on.
type GameVersion struct {
	ID     uint   `gorm:"primaryKey"`
	GameID uint   `gorm:"not null;index"`
	Name   string `gorm:"size:255;not null"`

	Records []Record `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE;"`
}
