// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/models"
)

const selectRole = `
	SELECT id, email, cognito_sub, role, created_at, updated_at
	FROM user_role
`

// ValidRole reports whether role is one of the assignable roles
func ValidRole(role string) bool {
	return role == models.RoleClient || role == models.RoleCompany
}

// LookupRole returns the role row for a subject, or ErrNoRole
func LookupRole(ctx context.Context, conn *sql.DB, subject string) (models.UserRole, error) {
	var ur models.UserRole
	err := conn.QueryRowContext(ctx, selectRole+` WHERE cognito_sub = $1`, subject).Scan(
		&ur.ID, &ur.Email, &ur.CognitoSub, &ur.Role, &ur.CreatedAt, &ur.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.UserRole{}, ErrNoRole
	}
	if err != nil {
		return models.UserRole{}, fmt.Errorf("failed to query role: %w", err)
	}
	return ur, nil
}

// RequireRole checks that the caller is authenticated and holds role.
// It returns ErrUnauthenticated, ErrForbidden, or a store error.
func RequireRole(ctx context.Context, conn *sql.DB, c Claims, role string) (models.UserRole, error) {
	if !c.Authenticated() {
		return models.UserRole{}, ErrUnauthenticated
	}
	ur, err := LookupRole(ctx, conn, c.Subject)
	if errors.Is(err, ErrNoRole) {
		return models.UserRole{}, ErrForbidden
	}
	if err != nil {
		return models.UserRole{}, err
	}
	if ur.Role != role {
		return models.UserRole{}, ErrForbidden
	}
	return ur, nil
}

// ResolveEmail prefers the email claim and falls back to the stored role row
func ResolveEmail(c Claims, ur models.UserRole) string {
	if c.Email != "" {
		return c.Email
	}
	return ur.Email
}

// UpsertRole assigns role to the caller. An existing row is matched by
// subject first, then by email, otherwise a new row is inserted. The email
// match re-links the row to the caller and is only taken when email is the
// caller's verified email claim; an unverified email that belongs to another
// row fails with db.ErrUniqueViolation.
func UpsertRole(ctx context.Context, conn *sql.DB, c Claims, email, role string) (models.UserRole, error) {
	subject := c.Subject
	if subject == "" {
		return models.UserRole{}, ErrUnauthenticated
	}


	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return models.UserRole{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := db.Timestamp(time.Now())

	res, err := tx.ExecContext(ctx, `
		UPDATE user_role SET email = $1, role = $2, updated_at = $3
		WHERE cognito_sub = $4
	`, email, role, now, subject)
	if err != nil {
		return models.UserRole{}, fmt.Errorf("failed to update role by subject: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.UserRole{}, err
	}

	if n == 0 && c.Email != "" && strings.EqualFold(c.Email, email) {
		res, err = tx.ExecContext(ctx, `
			UPDATE user_role SET cognito_sub = $1, role = $2, updated_at = $3
			WHERE email = $4
		`, subject, role, now, email)
		if err != nil {
			return models.UserRole{}, fmt.Errorf("failed to update role by email: %w", db.Classify(err))
		}
		n, err = res.RowsAffected()
		if err != nil {
			return models.UserRole{}, err
		}
	}

	if n == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_role (id, email, cognito_sub, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, NewID(), email, subject, role, now)
		if err != nil {
			return models.UserRole{}, fmt.Errorf("failed to insert role: %w", db.Classify(err))
		}
	}

	var ur models.UserRole
	err = tx.QueryRowContext(ctx, selectRole+` WHERE cognito_sub = $1`, subject).Scan(
		&ur.ID, &ur.Email, &ur.CognitoSub, &ur.Role, &ur.CreatedAt, &ur.UpdatedAt,
	)
	if err != nil {
		return models.UserRole{}, fmt.Errorf("failed to read role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.UserRole{}, fmt.Errorf("failed to commit role: %w", err)
	}
	return ur, nil
}
