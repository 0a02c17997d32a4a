package fault

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Sentinel errors for the failure modes the domain services surface.
// Handlers translate them to HTTP statuses via Status.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrMissingField    = errors.New("missing field")
	ErrInUse           = errors.New("in use")
)

// NotFound wraps ErrNotFound with the entity name for log context.
func NotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// Invalid wraps ErrInvalidInput with a caller-facing reason.
func Invalid(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidInput)
}

// Conflict wraps ErrConflict with a caller-facing reason.
func Conflict(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrConflict)
}

// Forbidden wraps ErrForbidden with a caller-facing reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// MissingField wraps ErrMissingField naming the absent field.
func MissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// InUse wraps ErrInUse naming the entity that still has dependents.
func InUse(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrInUse)
}

// Postgres error classes/codes we map onto domain errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqSerializationFail   = "40001"
	pqDeadlockDetected    = "40P01"
)

// FromStore classifies database errors into domain errors. sql.ErrNoRows
// becomes ErrNotFound for the given entity; constraint and serialization
// failures become ErrConflict or ErrInvalidInput; everything else passes
// through untouched.
func FromStore(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound(entity)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return Conflict(fmt.Sprintf("%s: duplicate (%s)", entity, pqErr.Constraint))
		case pqForeignKeyViolation:
			// A delete blocked by dependents reads as "in use"; an insert
			// pointing at a missing parent reads as a bad reference.
			return fmt.Errorf("%s: %s: %w", entity, pqErr.Constraint, ErrInUse)
		case pqCheckViolation:
			return Invalid(fmt.Sprintf("%s: %s", entity, pqErr.Constraint))
		case pqSerializationFail, pqDeadlockDetected:
			return Conflict(entity + ": concurrent update")
		}
	}
	return err
}

// Status maps a domain error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInUse):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
