// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/cliparse"
	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/middleware"
	"github.com/danielhkuo/groupbuy/models"
	"github.com/danielhkuo/groupbuy/settlement"
)

type RequestHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	engine *settlement.Engine
}

func NewRequestHandler(db *sql.DB, cfg cliparse.Config, engine *settlement.Engine) *RequestHandler {
	return &RequestHandler{db: db, cfg: cfg, engine: engine}
}

// JoinPool handles POST /pools/{id}/requests
// Inserts the request, then runs the early-settlement check. A failing
// check does not undo the join; the sweep settles the pool later.
func (h *RequestHandler) JoinPool(w http.ResponseWriter, r *http.Request) {
	c, ur, ok := requireRole(w, r, h.db, models.RoleClient)
	if !ok {
		return
	}

	poolID := r.PathValue("id")
	if poolID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pool_id is required")
		return
	}

	var req models.JoinPoolRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Quantity <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quantity must be positive")
		return
	}
	email := auth.ResolveEmail(c, ur)
	if explicit := strings.TrimSpace(req.Email); explicit != "" && !strings.EqualFold(explicit, email) {
		slog.Warn("join email does not match identity", "sub", c.Subject, "pool_id", poolID)
		middleware.ErrorResponse(w, http.StatusForbidden, "email does not match identity")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now()

	// Check pool exists and still accepts requests
	var (
		status string
		endAt  time.Time
	)
	err = tx.QueryRowContext(r.Context(), "SELECT status, end_at FROM pool WHERE id = $1", poolID).Scan(&status, &endAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}
	if err != nil {
		slog.Error("failed to query pool", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Pool is no longer open")
		return
	}
	if !endAt.After(now) {
		middleware.ErrorResponse(w, http.StatusConflict, "Pool has ended")
		return
	}

	requestID := auth.NewID()
	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO request (id, pool_id, email, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, requestID, poolID, email, req.Quantity, db.Timestamp(now))
	switch err = db.Classify(err); {
	case errors.Is(err, db.ErrUniqueViolation):
		middleware.ErrorResponse(w, http.StatusConflict, "Email already joined this pool")
		return
	case errors.Is(err, db.ErrForeignKey):
		middleware.ErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	case err != nil:
		slog.Error("failed to insert request", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join pool")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit request", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join pool")
		return
	}

	slog.Info("pool joined", "pool_id", poolID, "request_id", requestID, "quantity", req.Quantity)

	poolStatus := models.StatusOpen
	res, err := h.engine.CheckEarly(r.Context(), poolID)
	if err != nil {
		slog.Error("early settlement check failed", "pool_id", poolID, "error", err)
	} else if res.Status != "" {
		poolStatus = res.Status
	}

	middleware.JSONResponse(w, http.StatusCreated, models.JoinPoolResponse{
		ID:         requestID,
		PoolStatus: poolStatus,
	})
}

// ListRequests handles GET /requests
// Exactly one of ?email= or ?pool_id= selects the requests, newest first.
// Listing by email includes each request's pool.
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	poolID := r.URL.Query().Get("pool_id")
	if email == "" && poolID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Either 'email' or 'pool_id' parameter is required")
		return
	}

	var (
		rows *sql.Rows
		err  error
	)
	if email != "" {
		rows, err = h.db.QueryContext(r.Context(), `
			SELECT r.id, r.pool_id, r.email, r.quantity, r.created_at,
				p.product_id, p.min_quantity, p.start_at, p.end_at, p.status, p.created_at
			FROM request r
			JOIN pool p ON p.id = r.pool_id
			WHERE r.email = $1
			ORDER BY r.created_at DESC, r.id
		`, email)
	} else {
		rows, err = h.db.QueryContext(r.Context(), `
			SELECT id, pool_id, email, quantity, created_at
			FROM request
			WHERE pool_id = $1
			ORDER BY created_at DESC, id
		`, poolID)
	}
	if err != nil {
		slog.Error("failed to query requests", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		var req models.Request
		if email != "" {
			pool := &models.Pool{}
			err = rows.Scan(&req.ID, &req.PoolID, &req.Email, &req.Quantity, &req.CreatedAt,
				&pool.ProductID, &pool.MinQuantity, &pool.StartAt, &pool.EndAt, &pool.Status, &pool.CreatedAt)
			pool.ID = req.PoolID
			req.Pool = pool
		} else {
			err = rows.Scan(&req.ID, &req.PoolID, &req.Email, &req.Quantity, &req.CreatedAt)
		}
		if err != nil {
			slog.Error("failed to scan request", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read requests", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, requests)
}
