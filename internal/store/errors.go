package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrChapterExists reports that the (work, title) uniqueness constraint
// fired on chapter creation. Callers treat it as "already satisfied", not a
// failure: another pass or a concurrent run created the chapter first.
var ErrChapterExists = errors.New("chapter already exists")

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err carries SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
