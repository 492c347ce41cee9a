// Package seed loads demo users and games from a YAML fixture.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"speedrun/backend/internal/models"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

var hashCost = bcrypt.DefaultCost

// Fixture is the document read from a seed file.
type Fixture struct {
	Users []User `yaml:"users"`
	Games []Game `yaml:"games"`
}

type User struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Game struct {
	Name        string     `yaml:"name"`
	Developer   string     `yaml:"developer"`
	ReleaseDate string     `yaml:"release_date"`
	Icon        string     `yaml:"icon"`
	Rules       string     `yaml:"rules"`
	Versions    []string   `yaml:"versions"`
	Categories  []Category `yaml:"categories"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Summary counts the rows a run inserted.
type Summary struct {
	Users      int
	Games      int
	Versions   int
	Categories int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d games, %d versions, %d categories", s.Users, s.Games, s.Versions, s.Categories)
}

// LoadFile reads and parses a seed file.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a fixture and checks its required fields.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	var errs []error
	for i, u := range f.Users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			errs = append(errs, fmt.Errorf("users[%d]: username, email and password are required", i))
		}
		if u.Role != "" && u.Role != models.RoleUser && u.Role != models.RoleAdmin {
			errs = append(errs, fmt.Errorf("users[%d]: unknown role %q", i, u.Role))
		}
	}
	for i, g := range f.Games {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, fmt.Errorf("games[%d]: name is required", i))
		}
		if g.ReleaseDate != "" {
			if _, err := models.ParseReleaseDate(g.ReleaseDate); err != nil {
				errs = append(errs, fmt.Errorf("games[%d]: %w", i, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply inserts whatever part of the fixture is missing. Users are matched
// by username, games by name, versions and categories by name within their
// game, so running it twice changes nothing.
func Apply(ctx context.Context, db *gorm.DB, f *Fixture) (Summary, error) {
	var sum Summary
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range f.Users {
			created, err := seedUser(tx, u)
			if err != nil {
				return err
			}
			if created {
				sum.Users++
			}
		}
		for _, g := range f.Games {
			if err := seedGame(tx, g, &sum); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	log.Printf("Seed applied: %s", sum)
	return sum, nil
}

func seedUser(tx *gorm.DB, u User) (bool, error) {
	var n int64
	if err := tx.Model(&models.User{}).Where("username = ? OR email = ?", u.Username, u.Email).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), hashCost)
	if err != nil {
		return false, err
	}
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}
	user := models.User{Username: u.Username, Email: u.Email, PasswordHash: string(hash), Role: role}
	if err := tx.Create(&user).Error; err != nil {
		return false, fmt.Errorf("seed user %q: %w", u.Username, err)
	}
	return true, nil
}

func seedGame(tx *gorm.DB, g Game, sum *Summary) error {
	var game models.Game
	err := tx.Where("name = ?", g.Name).First(&game).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		game = models.Game{
			Name:      g.Name,
			Slug:      slug.Make(g.Name),
			Developer: g.Developer,
			Icon:      g.Icon,
			Rules:     g.Rules,
		}
		if g.ReleaseDate != "" {
			d, _ := models.ParseReleaseDate(g.ReleaseDate)
			game.ReleaseDate = &d
		}
		if err := tx.Create(&game).Error; err != nil {
			return fmt.Errorf("seed game %q: %w", g.Name, err)
		}
		sum.Games++
	case err != nil:
		return err
	}

	for _, name := range g.Versions {
		created, err := ensure(tx, &models.GameVersion{GameID: game.ID, Name: name}, game.ID, name)
		if err != nil {
			return fmt.Errorf("seed version %q of %q: %w", name, g.Name, err)
		}
		if created {
			sum.Versions++
		}
	}
	for _, c := range g.Categories {
		created, err := ensure(tx, &models.Category{GameID: game.ID, Name: c.Name, Description: c.Description}, game.ID, c.Name)
		if err != nil {
			return fmt.Errorf("seed category %q of %q: %w", c.Name, g.Name, err)
		}
		if created {
			sum.Categories++
		}
	}
	return nil
}

// ensure creates row unless its game already has a row with that name.
func ensure(tx *gorm.DB, row any, gameID uint, name string) (bool, error) {
	var n int64
	if err := tx.Model(row).Where("game_id = ? AND name = ?", gameID, name).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, tx.Create(row).Error
}
