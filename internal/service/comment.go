package service

import (
	"context"
	"fmt"
	"strings"

	"speedrun/backend/internal/models"

	"gorm.io/gorm"
)

// CommentInput describes a new comment.
type CommentInput struct {
	RecordID uint
	UserID   uint
	Text     string
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func (s *CommentService) views(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("comments AS cm").
		Select("cm.id, cm.record_id, cm.user_id, u.username, cm.text, cm.created_at, cm.updated_at").
		Joins("JOIN users u ON u.id = cm.user_id").
		Order("cm.created_at, cm.id")
}

func (s *CommentService) List(ctx context.Context) ([]models.CommentView, error) {
	comments := []models.CommentView{}
	err := s.views(ctx).Scan(&comments).Error
	return comments, err
}

func (s *CommentService) Get(ctx context.Context, id uint) (models.CommentView, error) {
	var comments []models.CommentView
	if err := s.views(ctx).Where("cm.id = ?", id).Scan(&comments).Error; err != nil {
		return models.CommentView{}, err
	}
	if len(comments) == 0 {
		return models.CommentView{}, fmt.Errorf("%w: comment %d", ErrNotFound, id)
	}
	return comments[0], nil
}

// ListByRecord returns a record's comments, or ErrNotFound when there are none.
func (s *CommentService) ListByRecord(ctx context.Context, recordID uint) ([]models.CommentView, error) {
	var comments []models.CommentView
	if err := s.views(ctx).Where("cm.record_id = ?", recordID).Scan(&comments).Error; err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, fmt.Errorf("%w: no comments for record %d", ErrNotFound, recordID)
	}
	return comments, nil
}

// ListByUser returns a user's comments, or ErrNotFound when there are none.
func (s *CommentService) ListByUser(ctx context.Context, userID uint) ([]models.CommentView, error) {
	var comments []models.CommentView
	if err := s.views(ctx).Where("cm.user_id = ?", userID).Scan(&comments).Error; err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, fmt.Errorf("%w: no comments by user %d", ErrNotFound, userID)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, in CommentInput) (models.CommentView, error) {
	if strings.TrimSpace(in.Text) == "" {
		return models.CommentView{}, fmt.Errorf("%w: comment must not be empty", ErrValidation)
	}
	comment := models.Comment{RecordID: in.RecordID, UserID: in.UserID, Text: in.Text}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reference(tx, &models.Record{}, in.RecordID, "record"); err != nil {
			return err
		}
		if err := reference(tx, &models.User{}, in.UserID, "user"); err != nil {
			return err
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return models.CommentView{}, translate(err)
	}
	return s.Get(ctx, comment.ID)
}

// Update replaces the text of a comment and reports whether it existed.
func (s *CommentService) Update(ctx context.Context, id uint, text *string) (bool, error) {
	c := changeSet{}
	if text != nil {
		if strings.TrimSpace(*text) == "" {
			return false, fmt.Errorf("%w: comment must not be empty", ErrValidation)
		}
		c.set("text", *text)
	}
	set, err := c.finalize(true)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(set)
	return res.RowsAffected > 0, res.Error
}

func (s *CommentService) Delete(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	return res.RowsAffected > 0, res.Error
}
