package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row is not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint rejects a row.
	ErrDuplicate = errors.New("already exists")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// wrap maps pgx errors onto the store sentinels and adds context.
func wrap(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, ErrDuplicate)
		case foreignKeyViolation:
			return fmt.Errorf("%s: invalid reference %s: %w", op, pgErr.ConstraintName, ErrNotFound)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
