package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// ConflictError is a typed unique-constraint violation carrying the identity
// of the violated constraint, so callers match on structure instead of error
// message text.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique violation on %q: %v", e.Constraint, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// ClassifyError converts driver-level unique violations into *ConflictError
// and passes every other error through untouched.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == uniqueViolationCode {
		return &ConflictError{Constraint: pgxErr.ConstraintName, Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return &ConflictError{Constraint: pqErr.Constraint, Err: err}
	}

	// The sqlite test driver reports "UNIQUE constraint failed: table.column".
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		constraint := ""
		if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
			constraint = strings.TrimSpace(msg[idx+len("UNIQUE constraint failed: "):])
		}
		return &ConflictError{Constraint: constraint, Err: err}
	}

	return err
}

// ConflictOn reports whether err is a unique violation whose constraint name
// contains the provided fragment. The fragment matches both Postgres
// constraint names (orders_code_key) and sqlite's table.column form
// (orders.code).
func ConflictOn(err error, fragment string) bool {
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		return false
	}
	if fragment == "" {
		return true
	}
	return strings.Contains(conflict.Constraint, fragment)
}

// IsConflict reports whether err is any unique violation.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
