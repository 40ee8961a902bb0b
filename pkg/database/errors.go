package database

import (
	"github.com/lib/pq"
	"github.com/sweetshop/sweetshop-client/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Undefined table (42P01)
	case "42P01":
		return errors.Wrap(err, "STORE_NOT_INITIALISED", "session store schema is missing", 500)

	// Insufficient privilege (42501)
	case "42501":
		return errors.Wrap(err, "STORE_FORBIDDEN", "session store refused access", 500)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict("a session token for this key already exists")

	default:
		return nil
	}
}
