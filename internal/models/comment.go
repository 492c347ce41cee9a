package models

import "time"

// Comment is a user's remark on a record.
type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	RecordID  uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null;index"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentView is a comment joined with its author's username.
type CommentView struct {
	ID        uint
	RecordID  uint
	UserID    uint
	Username  string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
