// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/cliparse"
	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/middleware"
	"github.com/danielhkuo/groupbuy/models"
)

type RoleHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewRoleHandler(db *sql.DB, cfg cliparse.Config) *RoleHandler {
	return &RoleHandler{db: db, cfg: cfg}
}

// SetMyRole handles PUT /roles/me
// Assigns a role to the caller, matching an existing row by subject, then email.
// A body email must agree with the caller's email claim when one is present.
func (h *RoleHandler) SetMyRole(w http.ResponseWriter, r *http.Request) {
	c := auth.ClaimsFromContext(r.Context())
	if !c.Authenticated() {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.SetRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	email := strings.TrimSpace(req.Email)
	if c.Email != "" {
		if email != "" && !strings.EqualFold(email, c.Email) {
			slog.Warn("role email does not match claim", "sub", c.Subject)
			middleware.ErrorResponse(w, http.StatusForbidden, "email does not match identity")
			return
		}
		email = c.Email
	}
	if email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}
	if !auth.ValidRole(req.Role) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role must be one of: client, company")
		return
	}

	ur, err := auth.UpsertRole(r.Context(), h.db, c, email, req.Role)
	if errors.Is(err, db.ErrUniqueViolation) {
		middleware.ErrorResponse(w, http.StatusConflict, "Email is linked to another account")
		return
	}
	if err != nil {
		slog.Error("failed to set role", "sub", c.Subject, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to set role")
		return
	}

	slog.Info("role set", "sub", c.Subject, "role", ur.Role)

	middleware.JSONResponse(w, http.StatusOK, ur)
}

// GetMyRole handles GET /roles/me
func (h *RoleHandler) GetMyRole(w http.ResponseWriter, r *http.Request) {
	c := auth.ClaimsFromContext(r.Context())
	if !c.Authenticated() {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ur, err := auth.LookupRole(r.Context(), h.db, c.Subject)
	if errors.Is(err, auth.ErrNoRole) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No role assigned")
		return
	}
	if err != nil {
		slog.Error("failed to query role", "sub", c.Subject, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ur)
}
