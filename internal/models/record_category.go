package models

// RecordCategory links a record to a category of the same game.
type RecordCategory struct {
	ID         uint `gorm:"primaryKey"`
	RecordID   uint `gorm:"not null;uniqueIndex:idx_record_category"`
	CategoryID uint `gorm:"not null;uniqueIndex:idx_record_category;index"`
}

// RecordCategoryView is a link joined with its category name.
type RecordCategoryView struct {
	ID           uint   `json:"id"`
	RecordID     uint   `json:"record_id"`
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
}
