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
)

const selectProduct = `
	SELECT id, email, name, description, category, unit_price, image_url, created_at
	FROM product
`

type ProductHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewProductHandler(db *sql.DB, cfg cliparse.Config) *ProductHandler {
	return &ProductHandler{db: db, cfg: cfg}
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	c, ur, ok := requireRole(w, r, h.db, models.RoleCompany)
	if !ok {
		return
	}

	var req models.CreateProductRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.UnitPrice.IsNegative() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "unit_price must not be negative")
		return
	}

	p := models.Product{
		ID:          auth.NewID(),
		Email:       auth.ResolveEmail(c, ur),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		UnitPrice:   req.UnitPrice.Round(2),
		ImageURL:    req.ImageURL,
		CreatedAt:   db.Timestamp(time.Now()),
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO product (id, email, name, description, category, unit_price, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Email, p.Name, p.Description, p.Category, p.UnitPrice, p.ImageURL, p.CreatedAt)
	if err != nil {
		slog.Error("failed to insert product", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	slog.Info("product created", "product_id", p.ID, "owner", p.Email)

	middleware.JSONResponse(w, http.StatusCreated, p)
}

// ListProducts handles GET /products
// Optional ?email= narrows the list to one company's products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := selectProduct
	var args []any
	if email := r.URL.Query().Get("email"); email != "" {
		query += ` WHERE email = $1`
		args = append(args, email)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query products", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			slog.Error("failed to scan product", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read products", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")

	p, err := scanProduct(h.db.QueryRowContext(r.Context(), selectProduct+` WHERE id = $1`, productID))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		slog.Error("failed to query product", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/{id}
// Only the owning company may delete, and only while no pool references it.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c, ur, ok := requireRole(w, r, h.db, models.RoleCompany)
	if !ok {
		return
	}

	productID := r.PathValue("id")

	var owner string
	err := h.db.QueryRowContext(r.Context(), "SELECT email FROM product WHERE id = $1", productID).Scan(&owner)
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

	_, err = h.db.ExecContext(r.Context(), "DELETE FROM product WHERE id = $1", productID)
	if errors.Is(db.Classify(err), db.ErrForeignKey) {
		middleware.ErrorResponse(w, http.StatusConflict, "Product is referenced by a pool")
		return
	}
	if err != nil {
		slog.Error("failed to delete product", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	slog.Info("product deleted", "product_id", productID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Product deleted"})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Description, &p.Category, &p.UnitPrice, &p.ImageURL, &p.CreatedAt)
	return p, err
}
