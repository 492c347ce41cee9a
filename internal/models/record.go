package models

import (
	"fmt"
	"strings"
	"time"
)

// RecordStatus is the moderation state of a record.
type RecordStatus string

const (
	StatusPending  RecordStatus = "Pending"
	StatusApproved RecordStatus = "Approved"
	StatusRejected RecordStatus = "Rejected"
)

// Valid reports whether s is one of the known statuses.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseRecordStatus accepts a status name regardless of case.
func ParseRecordStatus(s string) (RecordStatus, error) {
	for _, st := range []RecordStatus{StatusPending, StatusApproved, StatusRejected} {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown record status %q", s)
}

// Record is a single timed run submitted by a user.
type Record struct {
	ID        uint         `gorm:"primaryKey"`
	UserID    uint         `gorm:"not null;index"`
	GameID    uint         `gorm:"not null;index"`
	VersionID uint         `gorm:"not null;index"`
	TimeMs    int64        `gorm:"column:record_time_ms;not null;index"`
	VideoURL  string       `gorm:"size:1024"`
	Notes     string       `gorm:"type:text"`
	Status    RecordStatus `gorm:"size:20;not null;default:'Pending';index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	RecordCategories []RecordCategory `gorm:"constraint:OnDelete:CASCADE;"`
	Comments         []Comment        `gorm:"constraint:OnDelete:CASCADE;"`
}

// RecordView is a record joined with the names of its user, game, version
// and categories. Rank is only set on leaderboard rows.
type RecordView struct {
	ID          uint
	UserID      uint
	Username    string
	GameID      uint
	GameName    string
	VersionID   uint
	VersionName string
	TimeMs      int64 `gorm:"column:record_time_ms"`
	VideoURL    string
	Notes       string
	Status      RecordStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Categories  []string `gorm:"-"`
	Rank        int      `gorm:"-"`
}

