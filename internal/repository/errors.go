package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"service-dispatch/internal/apperr"
)

const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsNotFound reports whether the error is pgx's no-rows error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsContention reports whether the transaction lost a race for a row lock
// and may succeed if the caller tries again.
func IsContention(err error) bool {
	var pgerr *pgconn.PgError
	if !errors.As(err, &pgerr) {
		return false
	}
	switch pgerr.Code {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// translate maps lock contention to apperr.ErrConflict, keeping the cause.
func translate(err error) error {
	if err == nil || !IsContention(err) {
		return err
	}
	return fmt.Errorf("%w: %w", apperr.ErrConflict, err)
}
