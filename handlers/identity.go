// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/middleware"
	"github.com/danielhkuo/groupbuy/models"
)

// requireRole resolves the caller's role and writes the error response when
// the caller is anonymous (401) or lacks role (403). ok is false when a
// response has been written.
func requireRole(w http.ResponseWriter, r *http.Request, db *sql.DB, role string) (c auth.Claims, ur models.UserRole, ok bool) {
	c = auth.ClaimsFromContext(r.Context())

	ur, err := auth.RequireRole(r.Context(), db, c, role)
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return c, ur, false
	case errors.Is(err, auth.ErrForbidden):
		middleware.ErrorResponse(w, http.StatusForbidden, role+" role required")
		return c, ur, false
	case err != nil:
		slog.Error("failed to resolve role", "sub", c.Subject, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return c, ur, false
	}

	return c, ur, true
}
