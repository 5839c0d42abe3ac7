package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an insert collides with the unique
// constraint on users.email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateTitle is returned when an insert or update collides with the
// unique constraint on posts.title.
var ErrDuplicateTitle = errors.New("title already used")

// uniqueViolation is the postgres error code for unique_violation.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique-constraint
// failure on the named constraint. Relying on the constraint, rather than a
// read-then-write check, keeps concurrent inserts mutually exclusive.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == constraint
}
