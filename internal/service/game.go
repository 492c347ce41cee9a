package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// GameInput describes a new game.
type GameInput struct {
	Name        string
	Icon        string
	ReleaseDate *time.Time
	Rules       string
	Developer   string
}

// GamePatch lists the game fields an update may change.
type GamePatch struct {
	Name        *string
	Icon        *string
	ReleaseDate *time.Time
	Rules       *string
	Developer   *string
}

type GameService struct {
	db    *gorm.DB
	cache cache.LeaderboardCache
}

func NewGameService(db *gorm.DB, lc cache.LeaderboardCache) *GameService {
	if lc == nil {
		lc = cache.Nop{}
	}
	return &GameService{db: db, cache: lc}
}

// uniqueSlug derives a slug from name, suffixing -2, -3... on collision.
func uniqueSlug(tx *gorm.DB, name string, exceptID uint) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "game"
	}
	candidate := base
	for n := 2; ; n++ {
		var count int64
		q := tx.Model(&models.Game{}).Where("slug = ?", candidate)
		if exceptID != 0 {
			q = q.Where("id <> ?", exceptID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

func (s *GameService) List(ctx context.Context) ([]models.Game, error) {
	games := []models.Game{}
	err := s.db.WithContext(ctx).Order("name").Find(&games).Error
	return games, err
}

func (s *GameService) Get(ctx context.Context, id uint) (models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).First(&game, id).Error
	return game, notFound(err, "game", id)
}

// GetBySlug loads a game with its versions and categories.
func (s *GameService) GetBySlug(ctx context.Context, gameSlug string) (models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Where("slug = ?", gameSlug).
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game, fmt.Errorf("%w: game %q", ErrNotFound, gameSlug)
	}
	return game, err
}

// Search matches game names case-insensitively; no match is ErrNotFound.
func (s *GameService) Search(ctx context.Context, q string) ([]models.Game, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(q)).
		Order("name").
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: no games match %q", ErrNotFound, q)
	}
	return games, nil
}

func (s *GameService) Create(ctx context.Context, in GameInput) (models.Game, error) {
	game := models.Game{
		Name:        in.Name,
		Icon:        in.Icon,
		ReleaseDate: in.ReleaseDate,
		Rules:       in.Rules,
		Developer:   in.Developer,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if game.Slug, err = uniqueSlug(tx, in.Name, 0); err != nil {
			return err
		}
		return tx.Create(&game).Error
	})
	return game, translate(err)
}

// Update applies a partial change. Renaming a game regenerates its slug.
func (s *GameService) Update(ctx context.Context, id uint, patch GamePatch) (bool, error) {
	c := changeSet{}
	if patch.Icon != nil {
		c.set("icon", *patch.Icon)
	}
	if patch.ReleaseDate != nil {
		c.set("release_date", *patch.ReleaseDate)
	}
	if patch.Rules != nil {
		c.set("rules", *patch.Rules)
	}
	if patch.Developer != nil {
		c.set("developer", *patch.Developer)
	}
	if patch.Name != nil {
		c.set("name", *patch.Name)
	}
	set, err := c.finalize(true)
	if err != nil {
		return false, err
	}

	var affected bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if patch.Name != nil {
			newSlug, err := uniqueSlug(tx, *patch.Name, id)
			if err != nil {
				return err
			}
			set["slug"] = newSlug
		}
		res := tx.Model(&models.Game{}).Where("id = ?", id).Updates(set)
		affected = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, translate(err)
	}
	if affected && patch.Name != nil {
		s.cache.InvalidateGame(ctx, id)
	}
	return affected, nil
}

// Delete removes a game with its versions, categories and records.
func (s *GameService) Delete(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Game{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	s.cache.InvalidateGame(ctx, id)
	return res.RowsAffected > 0, nil
}
