package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

func pgCode(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateConstraintError checks if the error is a unique violation on the named constraint.
// An empty constraint name matches any unique violation.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == uniqueViolation && (constraintName == "" || pgErr.ConstraintName == constraintName)
}

// IsForeignKeyError checks if the error is a foreign key violation on the named constraint.
// An empty constraint name matches any foreign key violation.
func IsForeignKeyError(err error, constraintName string) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == foreignKeyViolation && (constraintName == "" || pgErr.ConstraintName == constraintName)
}

// IsCheckViolation checks if the error is a CHECK constraint failure
func IsCheckViolation(err error) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == checkViolation
}
