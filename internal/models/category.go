package models

// Category groups runs of a game under a shared ruleset (Any%, 100%, ...).
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	GameID      uint   `gorm:"not null;index"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`

	RecordCategories []RecordCategory `gorm:"constraint:OnDelete:CASCADE;"`
}
