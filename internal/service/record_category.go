package service

import (
	"context"
	"errors"
	"fmt"

	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/models"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// RecordCategoryInput links a record to a category.
type RecordCategoryInput struct {
	RecordID   uint
	CategoryID uint
}

// RecordCategoryService manages record-category links. A link is only
// valid when both sides belong to the same game.
type RecordCategoryService struct {
	db    *gorm.DB
	cache cache.LeaderboardCache
}

func NewRecordCategoryService(db *gorm.DB, lc cache.LeaderboardCache) *RecordCategoryService {
	if lc == nil {
		lc = cache.Nop{}
	}
	return &RecordCategoryService{db: db, cache: lc}
}

func linkViewQuery() sq.SelectBuilder {
	return sq.Select("rc.id", "rc.record_id", "rc.category_id", "c.name AS category_name").
		From("record_categories rc").
		Join("categories c ON c.id = rc.category_id").
		OrderBy("rc.id")
}

func (s *RecordCategoryService) query(ctx context.Context, q sq.SelectBuilder) ([]models.RecordCategoryView, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	views := []models.RecordCategoryView{}
	err = s.db.WithContext(ctx).Raw(query, args...).Scan(&views).Error
	return views, err
}

func (s *RecordCategoryService) List(ctx context.Context) ([]models.RecordCategoryView, error) {
	return s.query(ctx, linkViewQuery())
}

func (s *RecordCategoryService) Get(ctx context.Context, id uint) (models.RecordCategoryView, error) {
	views, err := s.query(ctx, linkViewQuery().Where(sq.Eq{"rc.id": id}))
	if err != nil {
		return models.RecordCategoryView{}, err
	}
	if len(views) == 0 {
		return models.RecordCategoryView{}, fmt.Errorf("%w: record category %d", ErrNotFound, id)
	}
	return views[0], nil
}

// checkPair loads both sides of a link and verifies they share a game.
func checkPair(tx *gorm.DB, recordID, categoryID uint) (models.Record, models.Category, error) {
	var record models.Record
	var category models.Category
	if err := reference(tx.Select("id", "game_id"), &record, recordID, "record"); err != nil {
		return record, category, err
	}
	if err := reference(tx.Select("id", "game_id", "name"), &category, categoryID, "category"); err != nil {
		return record, category, err
	}
	if record.GameID != category.GameID {
		return record, category, fmt.Errorf("%w: record %d is for game %d, category %d is for game %d",
			ErrCrossGameMismatch, recordID, record.GameID, categoryID, category.GameID)
	}
	return record, category, nil
}

func duplicateLink(tx *gorm.DB, recordID, categoryID, exceptID uint) error {
	var count int64
	q := tx.Model(&models.RecordCategory{}).Where("record_id = ? AND category_id = ?", recordID, categoryID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: record %d is already in category %d", ErrConflict, recordID, categoryID)
	}
	return nil
}

func (s *RecordCategoryService) Create(ctx context.Context, in RecordCategoryInput) (models.RecordCategoryView, error) {
	link := models.RecordCategory{RecordID: in.RecordID, CategoryID: in.CategoryID}
	var record models.Record
	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if record, category, err = checkPair(tx, in.RecordID, in.CategoryID); err != nil {
			return err
		}
		if err := duplicateLink(tx, in.RecordID, in.CategoryID, 0); err != nil {
			return err
		}
		return tx.Create(&link).Error
	})
	if err != nil {
		return models.RecordCategoryView{}, translate(err)
	}

	s.cache.InvalidateGame(ctx, record.GameID)
	return models.RecordCategoryView{
		ID:           link.ID,
		RecordID:     link.RecordID,
		CategoryID:   link.CategoryID,
		CategoryName: category.Name,
	}, nil
}

// Update moves a link to another category of the same game. The bool
// reports whether the link existed.
func (s *RecordCategoryService) Update(ctx context.Context, id, categoryID uint) (bool, error) {
	var record models.Record
	var affected bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link models.RecordCategory
		if err := forShare(tx).First(&link, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		var err error
		if record, _, err = checkPair(tx, link.RecordID, categoryID); err != nil {
			return err
		}
		if err := duplicateLink(tx, link.RecordID, categoryID, id); err != nil {
			return err
		}
		res := tx.Model(&models.RecordCategory{}).Where("id = ?", id).Update("category_id", categoryID)
		affected = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, translate(err)
	}
	if affected {
		s.cache.InvalidateGame(ctx, record.GameID)
	}
	return affected, nil
}

func (s *RecordCategoryService) Delete(ctx context.Context, id uint) (bool, error) {
	var link models.RecordCategory
	if err := s.db.WithContext(ctx).First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	var record models.Record
	if err := s.db.WithContext(ctx).Select("id", "game_id").First(&record, link.RecordID).Error; err != nil {
		return false, notFound(err, "record", link.RecordID)
	}
	res := s.db.WithContext(ctx).Delete(&models.RecordCategory{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	s.cache.InvalidateGame(ctx, record.GameID)
	return res.RowsAffected > 0, nil
}
