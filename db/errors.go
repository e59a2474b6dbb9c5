// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrForeignKey      = errors.New("foreign key violation")
)

// PostgreSQL SQLSTATE codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Classify maps driver-specific constraint errors onto ErrUniqueViolation and
// ErrForeignKey so callers can use errors.Is. Other errors are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrForeignKey, pqErr.Constraint)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// Extended codes carry the primary code in the low byte.
		if liteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return err
		}
		msg := liteErr.Error()
		switch {
		case liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			strings.Contains(msg, "UNIQUE constraint failed"):
			return fmt.Errorf("%w: %s", ErrUniqueViolation, msg)
		case liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return fmt.Errorf("%w: %s", ErrForeignKey, msg)
		}
	}

	return err
}
