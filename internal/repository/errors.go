package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrStorePermissionDenied indicates the database rejected the query for
	// lack of privileges. Surfaced to the operator as an actionable message.
	ErrStorePermissionDenied = errors.New("profile store permission denied")
	// ErrStoreSchemaMissing indicates a relation or column the query needs does
	// not exist, typically because migrations have not run.
	ErrStoreSchemaMissing = errors.New("profile store schema missing")
)

// classifyStoreError maps database errors onto the operator-facing taxonomy.
// Anything unrecognised passes through wrapped as-is.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501":
			return fmt.Errorf("%w: %s", ErrStorePermissionDenied, pgErr.Message)
		case "42P01", "42703", "42704":
			return fmt.Errorf("%w: %s", ErrStoreSchemaMissing, pgErr.Message)
		}
	}

	return err
}
