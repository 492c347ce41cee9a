package service

import (
	"context"
	"errors"
	"fmt"

	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/models"

	"gorm.io/gorm"
)

// CategoryInput describes a new category.
type CategoryInput struct {
	GameID      uint
	Name        string
	Description string
}

// CategoryPatch lists the category fields an update may change.
type CategoryPatch struct {
	Name        *string
	Description *string
}

func (p CategoryPatch) changes() (map[string]any, error) {
	c := changeSet{}
	if p.Name != nil {
		c.set("name", *p.Name)
	}
	if p.Description != nil {
		c.set("description", *p.Description)
	}
	return c.finalize(false)
}

type CategoryService struct {
	db    *gorm.DB
	cache cache.LeaderboardCache
}

func NewCategoryService(db *gorm.DB, lc cache.LeaderboardCache) *CategoryService {
	if lc == nil {
		lc = cache.Nop{}
	}
	return &CategoryService{db: db, cache: lc}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}

func (s *CategoryService) Get(ctx context.Context, id uint) (models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).First(&category, id).Error
	return category, notFound(err, "category", id)
}

// ListByGame returns the categories of a game, or ErrNotFound when it has none.
func (s *CategoryService) ListByGame(ctx context.Context, gameID uint) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories for game %d", ErrNotFound, gameID)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (models.Category, error) {
	category := models.Category{GameID: in.GameID, Name: in.Name, Description: in.Description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reference(tx, &models.Game{}, in.GameID, "game"); err != nil {
			return err
		}
		return tx.Create(&category).Error
	})
	return category, translate(err)
}

// Update applies a partial change and reports whether the category existed.
func (s *CategoryService) Update(ctx context.Context, id uint, patch CategoryPatch) (bool, error) {
	set, err := patch.changes()
	if err != nil {
		return false, err
	}
	var category models.Category
	if err := s.db.WithContext(ctx).Select("id", "game_id").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	res := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(set)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	s.cache.InvalidateGame(ctx, category.GameID)
	return res.RowsAffected > 0, nil
}

// Delete removes a category together with its record links.
func (s *CategoryService) Delete(ctx context.Context, id uint) (bool, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Select("id", "game_id").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	res := s.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	s.cache.InvalidateGame(ctx, category.GameID)
	return res.RowsAffected > 0, nil
}
