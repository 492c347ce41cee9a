package handler

import (
	"time"

	"speedrun/backend/internal/models"
)

// UserResponse is a user's public profile. The password hash never leaves
// the service.
type UserResponse struct {
	ID             uint      `json:"id" example:"1"`
	Username       string    `json:"username" example:"runner"`
	Email          string    `json:"email" example:"runner@example.com"`
	Role           string    `json:"role" example:"user"`
	ProfilePicture string    `json:"profile_picture" example:"/uploads/1700000000000-1a2b3c4d.png"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// GameResponse describes a game.
type GameResponse struct {
	ID          uint      `json:"id" example:"1"`
	Name        string    `json:"name" example:"Super Mario 64"`
	Slug        string    `json:"slug" example:"super-mario-64"`
	Icon        string    `json:"icon"`
	ReleaseDate *string   `json:"release_date" example:"1996-06-23"`
	Rules       string    `json:"rules"`
	Developer   string    `json:"developer" example:"Nintendo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGameResponse(g models.Game) GameResponse {
	resp := GameResponse{
		ID:        g.ID,
		Name:      g.Name,
		Slug:      g.Slug,
		Icon:      g.Icon,
		Rules:     g.Rules,
		Developer: g.Developer,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	if g.ReleaseDate != nil {
		d := g.ReleaseDate.Format("2006-01-02")
		resp.ReleaseDate = &d
	}
	return resp
}

// GameVersionResponse describes a game version.
type GameVersionResponse struct {
	ID     uint   `json:"id" example:"1"`
	GameID uint   `json:"game_id" example:"1"`
	Name   string `json:"name" example:"N64 JP"`
}

func newGameVersionResponse(v models.GameVersion) GameVersionResponse {
	return GameVersionResponse{ID: v.ID, GameID: v.GameID, Name: v.Name}
}

// CategoryResponse describes a category.
type CategoryResponse struct {
	ID          uint   `json:"id" example:"1"`
	GameID      uint   `json:"game_id" example:"1"`
	Name        string `json:"name" example:"Any%"`
	Description string `json:"description"`
}

func newCategoryResponse(c models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, GameID: c.GameID, Name: c.Name, Description: c.Description}
}

// RecordResponse is a record with the names of everything it references.
type RecordResponse struct {
	ID          uint      `json:"id" example:"1"`
	Rank        int       `json:"rank,omitempty" example:"1"`
	UserID      uint      `json:"user_id" example:"1"`
	Username    string    `json:"username" example:"runner"`
	GameID      uint      `json:"game_id" example:"1"`
	GameName    string    `json:"game_name" example:"Super Mario 64"`
	VersionID   uint      `json:"version_id" example:"1"`
	VersionName string    `json:"version_name" example:"N64 JP"`
	Time        string    `json:"time" example:"01:39:28"`
	TimeMs      int64     `json:"time_ms" example:"5968000"`
	VideoURL    string    `json:"video_url"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status" example:"Pending"`
	Categories  []string  `json:"categories"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newRecordResponse(r models.RecordView) RecordResponse {
	categories := r.Categories
	if categories == nil {
		categories = []string{}
	}
	return RecordResponse{
		ID:          r.ID,
		Rank:        r.Rank,
		UserID:      r.UserID,
		Username:    r.Username,
		GameID:      r.GameID,
		GameName:    r.GameName,
		VersionID:   r.VersionID,
		VersionName: r.VersionName,
		Time:        models.FormatRunTime(r.TimeMs),
		TimeMs:      r.TimeMs,
		VideoURL:    r.VideoURL,
		Notes:       r.Notes,
		Status:      string(r.Status),
		Categories:  categories,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// CommentResponse is a comment with its author's name.
type CommentResponse struct {
	ID        uint      `json:"id" example:"1"`
	RecordID  uint      `json:"record_id" example:"1"`
	UserID    uint      `json:"user_id" example:"1"`
	Username  string    `json:"username" example:"runner"`
	Comment   string    `json:"comment" example:"gg"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCommentResponse(c models.CommentView) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		RecordID:  c.RecordID,
		UserID:    c.UserID,
		Username:  c.Username,
		Comment:   c.Text,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// mapAll converts a slice with one of the mappers above, never returning nil.
func mapAll[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
