package service

import (
	"context"
	"errors"
	"fmt"

	"speedrun/backend/internal/cache"
	"speedrun/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcryptCost is lowered by tests.
var bcryptCost = 12

// UserInput describes a new account.
type UserInput struct {
	Username       string
	Email          string
	Password       string
	Role           string
	ProfilePicture string
	Bio            string
}

// UserPatch lists the account fields an update may change.
type UserPatch struct {
	Username       *string
	Email          *string
	Password       *string
	ProfilePicture *string
	Bio            *string
}

type UserService struct {
	db    *gorm.DB
	cache cache.LeaderboardCache
}

func NewUserService(db *gorm.DB, lc cache.LeaderboardCache) *UserService {
	if lc == nil {
		lc = cache.Nop{}
	}
	return &UserService{db: db, cache: lc}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (s *UserService) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	return user, notFound(err, "user", id)
}

// Search matches usernames case-insensitively; no match is ErrNotFound.
func (s *UserService) Search(ctx context.Context, q string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, containsPattern(q)).
		Order("username").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: no users match %q", ErrNotFound, q)
	}
	return users, nil
}

// FindByLogin looks a user up by email or username.
func (s *UserService) FindByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ? OR username = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, fmt.Errorf("%w: user %q", ErrNotFound, login)
	}
	return user, err
}

func taken(tx *gorm.DB, column, value string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s %q is already in use", ErrConflict, column, value)
	}
	return nil
}

// Create hashes the password and stores a new user. A taken username or
// email is ErrConflict.
func (s *UserService) Create(ctx context.Context, in UserInput) (models.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	user := models.User{
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   hash,
		Role:           role,
		ProfilePicture: in.ProfilePicture,
		Bio:            in.Bio,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := taken(tx, "username", in.Username, 0); err != nil {
			return err
		}
		if err := taken(tx, "email", in.Email, 0); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	return user, translate(err)
}

// Update applies a partial change. Uniqueness is only checked for a
// username or email that actually changes.
func (s *UserService) Update(ctx context.Context, id uint, patch UserPatch) (bool, error) {
	c := changeSet{}
	if patch.Username != nil {
		c.set("username", *patch.Username)
	}
	if patch.Email != nil {
		c.set("email", *patch.Email)
	}
	if patch.Password != nil {
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return false, err
		}
		c.set("password_hash", hash)
	}
	if patch.ProfilePicture != nil {
		c.set("profile_picture", *patch.ProfilePicture)
	}
	if patch.Bio != nil {
		c.set("bio", *patch.Bio)
	}
	set, err := c.finalize(true)
	if err != nil {
		return false, err
	}

	var affected bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if patch.Username != nil && *patch.Username != existing.Username {
			if err := taken(tx, "username", *patch.Username, id); err != nil {
				return err
			}
		}
		if patch.Email != nil && *patch.Email != existing.Email {
			if err := taken(tx, "email", *patch.Email, id); err != nil {
				return err
			}
		}
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(set)
		affected = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, translate(err)
	}
	if affected && patch.Username != nil {
		s.invalidateBoards(ctx, id)
	}
	return affected, nil
}

// Delete removes a user with their records and comments.
func (s *UserService) Delete(ctx context.Context, id uint) (bool, error) {
	gameIDs, err := s.gamesOf(ctx, id)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	for _, gameID := range gameIDs {
		s.cache.InvalidateGame(ctx, gameID)
	}
	return res.RowsAffected > 0, nil
}

// gamesOf lists the games a user has records for.
func (s *UserService) gamesOf(ctx context.Context, userID uint) ([]uint, error) {
	var gameIDs []uint
	err := s.db.WithContext(ctx).Model(&models.Record{}).Where("user_id = ?", userID).Distinct().Pluck("game_id", &gameIDs).Error
	return gameIDs, err
}

// invalidateBoards drops cached leaderboards showing a user's name.
func (s *UserService) invalidateBoards(ctx context.Context, userID uint) {
	gameIDs, err := s.gamesOf(ctx, userID)
	if err != nil {
		return
	}
	for _, gameID := range gameIDs {
		s.cache.InvalidateGame(ctx, gameID)
	}
}
