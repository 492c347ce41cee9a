package service

import (
	"context"
	"errors"
	"fmt"

	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/models"

	"gorm.io/gorm"
)

// GameVersionInput describes a new version.
type GameVersionInput struct {
	GameID uint
	Name   string
}

// GameVersionPatch lists the version fields an update may change.
type GameVersionPatch struct {
	Name *string
}

func (p GameVersionPatch) changes() (map[string]any, error) {
	c := changeSet{}
	if p.Name != nil {
		c.set("name", *p.Name)
	}
	return c.finalize(false)
}

type GameVersionService struct {
	db    *gorm.DB
	cache cache.LeaderboardCache
}

func NewGameVersionService(db *gorm.DB, lc cache.LeaderboardCache) *GameVersionService {
	if lc == nil {
		lc = cache.Nop{}
	}
	return &GameVersionService{db: db, cache: lc}
}

func (s *GameVersionService) List(ctx context.Context) ([]models.GameVersion, error) {
	versions := []models.GameVersion{}
	err := s.db.WithContext(ctx).Order("id").Find(&versions).Error
	return versions, err
}

func (s *GameVersionService) Get(ctx context.Context, id uint) (models.GameVersion, error) {
	var version models.GameVersion
	err := s.db.WithContext(ctx).First(&version, id).Error
	return version, notFound(err, "version", id)
}

// ListByGame returns the versions of a game, or ErrNotFound when it has none.
func (s *GameVersionService) ListByGame(ctx context.Context, gameID uint) ([]models.GameVersion, error) {
	var versions []models.GameVersion
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id").Find(&versions).Error; err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: no versions for game %d", ErrNotFound, gameID)
	}
	return versions, nil
}

func (s *GameVersionService) Create(ctx context.Context, in GameVersionInput) (models.GameVersion, error) {
	version := models.GameVersion{GameID: in.GameID, Name: in.Name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reference(tx, &models.Game{}, in.GameID, "game"); err != nil {
			return err
		}
		return tx.Create(&version).Error
	})
	return version, translate(err)
}

func (s *GameVersionService) Update(ctx context.Context, id uint, patch GameVersionPatch) (bool, error) {
	set, err := patch.changes()
	if err != nil {
		return false, err
	}
	var version models.GameVersion
	if err := s.db.WithContext(ctx).Select("id", "game_id").First(&version, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	res := s.db.WithContext(ctx).Model(&models.GameVersion{}).Where("id = ?", id).Updates(set)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	// leaderboard rows carry the version name
	s.cache.InvalidateGame(ctx, version.GameID)
	return res.RowsAffected > 0, nil
}

// Delete removes a version and every record timed on it.
func (s *GameVersionService) Delete(ctx context.Context, id uint) (bool, error) {
	var version models.GameVersion
	if err := s.db.WithContext(ctx).Select("id", "game_id").First(&version, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	res := s.db.WithContext(ctx).Delete(&models.GameVersion{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	s.cache.InvalidateGame(ctx, version.GameID)
	return res.RowsAffected > 0, nil
}
