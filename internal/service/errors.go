package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Domain errors. Services wrap them with context; callers match with errors.Is.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidReference      = errors.New("invalid reference")
	ErrIncompatibleReference = errors.New("incompatible reference")
	ErrCrossGameMismatch     = errors.New("category and record belong to different games")
	ErrConflict              = errors.New("already exists")
	ErrValidation            = errors.New("validation failed")
	ErrAuthentication        = errors.New("invalid credentials")
)

const pgUniqueViolation = "23505"

// translate maps store errors onto the domain errors above.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// forShare locks the rows read by a check until the surrounding
// transaction ends, so a concurrent delete cannot slip between the check
// and the write. SQLite serialises writers and has no row locks.
func forShare(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "SHARE"})
	}
	return tx
}

// reference loads a row that the write depends on.
func reference(tx *gorm.DB, dest any, id uint, what string) error {
	err := forShare(tx).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d does not exist", ErrInvalidReference, what, id)
	}
	return err
}

// notFound turns gorm's missing-row error into ErrNotFound.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern for a substring.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
