package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrConflict means the write lost a race with a concurrent transaction
	ErrConflict = errors.New("concurrent modification")
	// ErrDuplicate means a row with the same key already exists
	ErrDuplicate = errors.New("duplicate key")
)

// Postgres SQLSTATE codes
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// translateError maps driver errors onto repository sentinels. Other errors pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return ErrConflict
		case pgUniqueViolation:
			return ErrDuplicate
		}
	}
	return err
}
