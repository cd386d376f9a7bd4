package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

const uniqueViolationCode = "23505"

// ConflictError is the typed unique-constraint violation. Callers decide
// whether to retry by checking the error class, not by matching driver
// message strings.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("unique constraint violation on %s", e.Constraint)
	}
	return "unique constraint violation"
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// WrapDBError translates driver/gorm errors into the repository error
// vocabulary. Unknown errors pass through wrapped with the operation name.
func WrapDBError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &ConflictError{Constraint: pgErr.ConstraintName, Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// IsUniqueViolation reports whether err is a unique-constraint violation of
// any shape (typed wrapper, translated gorm error, or raw pg error).
func IsUniqueViolation(err error) bool {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// ConstraintOf returns the colliding constraint name when known, "" otherwise.
func ConstraintOf(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName
	}
	return ""
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
