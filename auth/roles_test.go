// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/models"
)

func setupRoleDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.TypeSQLite, filepath.Join(t.TempDir(), "roles.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

func TestUpsertRole_InsertThenUpdate(t *testing.T) {
	conn := setupRoleDB(t)
	ctx := context.Background()

	ur, err := UpsertRole(ctx, conn, Claims{Subject: "sub-1", Email: "ana@example.com"}, "ana@example.com", models.RoleClient)
	if err != nil {
		t.Fatalf("UpsertRole() insert error = %v", err)
	}
	if ur.Role != models.RoleClient || ur.Email != "ana@example.com" || ur.CognitoSub != "sub-1" {
		t.Errorf("unexpected role row: %+v", ur)
	}

	ur2, err := UpsertRole(ctx, conn, Claims{Subject: "sub-1", Email: "ana@example.com"}, "ana@example.com", models.RoleCompany)
	if err != nil {
		t.Fatalf("UpsertRole() update error = %v", err)
	}
	if ur2.ID != ur.ID {
		t.Errorf("expected same row, got new id %s", ur2.ID)
	}
	if ur2.Role != models.RoleCompany {
		t.Errorf("expected role company, got %s", ur2.Role)
	}

	var count int
	conn.QueryRow("SELECT COUNT(*) FROM user_role").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestUpsertRole_RelinksEmailToNewSubject(t *testing.T) {
	conn := setupRoleDB(t)
	ctx := context.Background()

	first, err := UpsertRole(ctx, conn, Claims{Subject: "old-sub", Email: "ana@example.com"}, "ana@example.com", models.RoleClient)
	if err != nil {
		t.Fatal(err)
	}

	ur, err := UpsertRole(ctx, conn, Claims{Subject: "new-sub", Email: "ana@example.com"}, "ana@example.com", models.RoleCompany)
	if err != nil {
		t.Fatalf("UpsertRole() relink error = %v", err)
	}
	if ur.ID != first.ID {
		t.Errorf("expected email row to be reused")
	}
	if ur.CognitoSub != "new-sub" || ur.Role != models.RoleCompany {
		t.Errorf("unexpected row after relink: %+v", ur)
	}

	if _, err := LookupRole(ctx, conn, "old-sub"); !errors.Is(err, ErrNoRole) {
		t.Errorf("old subject should have no role, got %v", err)
	}
}

func TestUpsertRole_EmailTakenByOtherSubject(t *testing.T) {
	conn := setupRoleDB(t)
	ctx := context.Background()

	if _, err := UpsertRole(ctx, conn, Claims{Subject: "sub-a", Email: "a@example.com"}, "a@example.com", models.RoleClient); err != nil {
		t.Fatal(err)
	}
	if _, err := UpsertRole(ctx, conn, Claims{Subject: "sub-b", Email: "b@example.com"}, "b@example.com", models.RoleClient); err != nil {
		t.Fatal(err)
	}

	_, err := UpsertRole(ctx, conn, Claims{Subject: "sub-b", Email: "b@example.com"}, "a@example.com", models.RoleClient)
	if !errors.Is(err, db.ErrUniqueViolation) {
		t.Errorf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestUpsertRole_UnverifiedEmailDoesNotRelink(t *testing.T) {
	conn := setupRoleDB(t)
	ctx := context.Background()

	owner, err := UpsertRole(ctx, conn, Claims{Subject: "sub-acme", Email: "acme@example.com"}, "acme@example.com", models.RoleCompany)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		claims Claims
	}{
		{"no email claim", Claims{Subject: "sub-mallory"}},
		{"different email claim", Claims{Subject: "sub-mallory", Email: "mallory@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UpsertRole(ctx, conn, tt.claims, "acme@example.com", models.RoleCompany)
			if !errors.Is(err, db.ErrUniqueViolation) {
				t.Errorf("expected ErrUniqueViolation, got %v", err)
			}
		})
	}

	ur, err := LookupRole(ctx, conn, "sub-acme")
	if err != nil {
		t.Fatalf("owner lost its role: %v", err)
	}
	if ur.ID != owner.ID || ur.Role != models.RoleCompany {
		t.Errorf("owner row changed: %+v", ur)
	}
	if _, err := LookupRole(ctx, conn, "sub-mallory"); !errors.Is(err, ErrNoRole) {
		t.Errorf("expected no role for the other subject, got %v", err)
	}
}

func TestUpsertRole_RequiresSubject(t *testing.T) {
	conn := setupRoleDB(t)

	_, err := UpsertRole(context.Background(), conn, Claims{}, "a@example.com", models.RoleClient)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	conn := setupRoleDB(t)
	ctx := context.Background()

	if _, err := UpsertRole(ctx, conn, Claims{Subject: "company-sub", Email: "acme@example.com"}, "acme@example.com", models.RoleCompany); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		claims  Claims
		role    string
		wantErr error
	}{
		{"no subject", Claims{}, models.RoleCompany, ErrUnauthenticated},
		{"no role row", Claims{Subject: "stranger"}, models.RoleCompany, ErrForbidden},
		{"wrong role", Claims{Subject: "company-sub"}, models.RoleClient, ErrForbidden},
		{"matching role", Claims{Subject: "company-sub"}, models.RoleCompany, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequireRole(ctx, conn, tt.claims, tt.role)
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Errorf("RequireRole() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveEmail(t *testing.T) {
	ur := models.UserRole{Email: "stored@example.com"}

	if got := ResolveEmail(Claims{Subject: "s", Email: "claim@example.com"}, ur); got != "claim@example.com" {
		t.Errorf("expected claim email, got %s", got)
	}
	if got := ResolveEmail(Claims{Subject: "s"}, ur); got != "stored@example.com" {
		t.Errorf("expected stored email, got %s", got)
	}
}

func TestValidRole(t *testing.T) {
	for role, want := range map[string]bool{"client": true, "company": true, "admin": false, "": false} {
		if got := ValidRole(role); got != want {
			t.Errorf("ValidRole(%q) = %v, want %v", role, got, want)
		}
	}
}
