// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/cliparse"
	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/middleware"
	"github.com/danielhkuo/groupbuy/models"
)

const selectPoolView = `
	SELECT p.id, p.product_id, p.min_quantity, p.start_at, p.end_at, p.status, p.settled_at, p.created_at,
		pr.name,
		(SELECT COALESCE(SUM(r.quantity), 0) FROM request r WHERE r.pool_id = p.id)
	FROM pool p
	JOIN product pr ON pr.id = p.product_id
`

type PoolHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPoolHandler(db *sql.DB, cfg cliparse.Config) *PoolHandler {
	return &PoolHandler{db: db, cfg: cfg}
}

// CreatePool handles POST /pools
// The caller must be the company that owns the product.
func (h *PoolHandler) CreatePool(w http.ResponseWriter, r *http.Request) {
	c, ur, ok := requireRole(w, r, h.db, models.RoleCompany)
	if !ok {
		return
	}

	var req models.CreatePoolRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.ProductID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.MinQuantity <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "min_quantity must be positive")
		return
	}
	if req.EndAt.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "end_at is required")
		return
	}
	now := time.Now()
	if req.StartAt.IsZero() {
		req.StartAt = now
	}
	if !req.EndAt.After(req.StartAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "end_at must be after start_at")
		return
	}
	if !req.EndAt.After(now) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "end_at must be in the future")
		return
	}

	var owner string
	err := h.db.QueryRowContext(r.Context(), "SELECT email FROM product WHERE id = $1", req.ProductID).Scan(&owner)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		slog.Error("failed to query product", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if owner != auth.ResolveEmail(c, ur) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Product belongs to another company")
		return
	}

	pool := models.Pool{
		ID:          auth.NewID(),
		ProductID:   req.ProductID,
		MinQuantity: req.MinQuantity,
		StartAt:     db.Timestamp(req.StartAt),
		EndAt:       db.Timestamp(req.EndAt),
		Status:      models.StatusOpen,
		CreatedAt:   db.Timestamp(now),
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO pool (id, product_id, min_quantity, start_at, end_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, pool.ID, pool.ProductID, pool.MinQuantity, pool.StartAt, pool.EndAt, pool.Status, pool.CreatedAt)
	if err != nil {
		slog.Error("failed to insert pool", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create pool")
		return
	}

	slog.Info("pool created", "pool_id", pool.ID, "product_id", pool.ProductID, "min_quantity", pool.MinQuantity, "end_at", pool.EndAt)

	middleware.JSONResponse(w, http.StatusCreated, pool)
}

// ListPools handles GET /pools
// Optional ?status= filters by open, success or failed.
func (h *PoolHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	query := selectPoolView
	var args []any
	if status := r.URL.Query().Get("status"); status != "" {
		if !validStatus(status) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "status must be one of: open, success, failed")
			return
		}
		query += ` WHERE p.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY p.end_at, p.id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query pools", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	pools := []models.PoolView{}
	for rows.Next() {
		v, err := scanPoolView(rows)
		if err != nil {
			slog.Error("failed to scan pool", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		pools = append(pools, v)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read pools", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pools)
}

// GetPool handles GET /pools/{id}
func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	poolID := r.PathValue("id")

	v, err := scanPoolView(h.db.QueryRowContext(r.Context(), selectPoolView+` WHERE p.id = $1`, poolID))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}
	if err != nil {
		slog.Error("failed to query pool", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, v)
}

func validStatus(status string) bool {
	switch status {
	case models.StatusOpen, models.StatusSuccess, models.StatusFailed:
		return true
	}
	return false
}

func scanPoolView(row rowScanner) (models.PoolView, error) {
	var (
		v         models.PoolView
		settledAt sql.NullTime
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.MinQuantity, &v.StartAt, &v.EndAt, &v.Status, &settledAt, &v.CreatedAt,
		&v.ProductName, &v.TotalJoined)
	if err != nil {
		return v, err
	}
	if settledAt.Valid {
		v.SettledAt = &settledAt.Time
	}
	return v, nil
}
