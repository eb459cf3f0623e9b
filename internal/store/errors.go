package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned when a unique key already exists.
var ErrConflict = errors.New("document already exists")

// ErrNotFound is returned when a document is not found.
var ErrNotFound = errors.New("document not found")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
