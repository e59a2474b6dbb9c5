// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/cliparse"
	"github.com/danielhkuo/groupbuy/middleware"
	"github.com/danielhkuo/groupbuy/models"
)

type AnalyticsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAnalyticsHandler(db *sql.DB, cfg cliparse.Config) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, cfg: cfg}
}

var hundred = decimal.NewFromInt(100)

// Overview handles GET /analytics/overview
// Platform-wide totals. Active pools are the ones still open.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := requireRole(w, r, h.db, models.RoleCompany); !ok {
		return
	}

	ctx := r.Context()
	var o models.Overview

	rows, err := h.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM pool GROUP BY status")
	if err != nil {
		analyticsError(w, "failed to count pools", err)
		return
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			analyticsError(w, "failed to scan pool counts", err)
			return
		}
		o.TotalPools += n
		switch status {
		case models.StatusOpen:
			o.ActivePools = n
		case models.StatusSuccess:
			o.SuccessfulPools = n
		case models.StatusFailed:
			o.FailedPools = n
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		analyticsError(w, "failed to read pool counts", err)
		return
	}

	// Revenue is priced per pool so money stays exact
	rows, err = h.db.QueryContext(ctx, `
		SELECT pr.unit_price, COALESCE(SUM(r.quantity), 0)
		FROM pool p
		JOIN product pr ON pr.id = p.product_id
		JOIN request r ON r.pool_id = p.id
		GROUP BY p.id, pr.unit_price
	`)
	if err != nil {
		analyticsError(w, "failed to query revenue", err)
		return
	}
	o.TotalRevenue = decimal.Zero
	for rows.Next() {
		var (
			price decimal.Decimal
			qty   int64
		)
		if err := rows.Scan(&price, &qty); err != nil {
			rows.Close()
			analyticsError(w, "failed to scan revenue", err)
			return
		}
		o.TotalRevenue = o.TotalRevenue.Add(price.Mul(decimal.NewFromInt(qty)))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		analyticsError(w, "failed to read revenue", err)
		return
	}
	o.TotalRevenue = o.TotalRevenue.Round(2)

	err = h.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT email), COALESCE(SUM(quantity), 0) FROM request
	`).Scan(&o.TotalCustomers, &o.TotalQuantitySold)
	if err != nil {
		analyticsError(w, "failed to count customers", err)
		return
	}

	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM product").Scan(&o.TotalProducts); err != nil {
		analyticsError(w, "failed to count products", err)
		return
	}

	if o.TotalPools > 0 {
		o.SuccessRate = decimal.NewFromInt(int64(o.SuccessfulPools)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(o.TotalPools))).
			Round(2).
			InexactFloat64()
	}

	middleware.JSONResponse(w, http.StatusOK, o)
}

// PoolsSales handles GET /analytics/pools-sales
// Per-pool sales for the calling company's products, newest pool first.
func (h *AnalyticsHandler) PoolsSales(w http.ResponseWriter, r *http.Request) {
	c, ur, ok := requireRole(w, r, h.db, models.RoleCompany)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT p.id, pr.name, pr.unit_price, p.min_quantity, p.start_at, p.end_at, p.status,
			COALESCE(SUM(r.quantity), 0), COUNT(DISTINCT r.email)
		FROM pool p
		JOIN product pr ON pr.id = p.product_id
		LEFT JOIN request r ON r.pool_id = p.id
		WHERE pr.email = $1
		GROUP BY p.id, pr.name, pr.unit_price, p.min_quantity, p.start_at, p.end_at, p.status, p.created_at
		ORDER BY p.created_at DESC, p.id
	`, auth.ResolveEmail(c, ur))
	if err != nil {
		analyticsError(w, "failed to query pool sales", err)
		return
	}
	defer rows.Close()

	sales := []models.PoolSales{}
	for rows.Next() {
		var s models.PoolSales
		err := rows.Scan(&s.PoolID, &s.ProductName, &s.UnitPrice, &s.MinQuantity, &s.StartAt, &s.EndAt, &s.Status,
			&s.TotalQuantitySold, &s.TotalParticipants)
		if err != nil {
			analyticsError(w, "failed to scan pool sales", err)
			return
		}
		s.TotalRevenue = s.UnitPrice.Mul(decimal.NewFromInt(int64(s.TotalQuantitySold))).Round(2)
		s.ReachedMin = s.TotalQuantitySold >= s.MinQuantity
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		analyticsError(w, "failed to read pool sales", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, sales)
}

// CustomersSavings handles GET /analytics/customers-savings
// Spend per customer email. Requests in pools that reached their minimum
// earn the configured savings rate on what was spent. Sorted by savings,
// largest first.
func (h *AnalyticsHandler) CustomersSavings(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := requireRole(w, r, h.db, models.RoleCompany); !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT r.email, r.pool_id, r.quantity, pr.unit_price, p.min_quantity,
			(SELECT COALESCE(SUM(x.quantity), 0) FROM request x WHERE x.pool_id = r.pool_id)
		FROM request r
		JOIN pool p ON p.id = r.pool_id
		JOIN product pr ON pr.id = p.product_id
		ORDER BY r.email
	`)
	if err != nil {
		analyticsError(w, "failed to query customer savings", err)
		return
	}
	defer rows.Close()

	byEmail := map[string]*models.CustomerSavings{}
	pools := map[string]map[string]bool{}
	var order []string

	for rows.Next() {
		var (
			email, poolID      string
			qty, minQty, total int
			price              decimal.Decimal
		)
		if err := rows.Scan(&email, &poolID, &qty, &price, &minQty, &total); err != nil {
			analyticsError(w, "failed to scan customer savings", err)
			return
		}

		cs, ok := byEmail[email]
		if !ok {
			cs = &models.CustomerSavings{Email: email, TotalSpent: decimal.Zero, TotalSavings: decimal.Zero}
			byEmail[email] = cs
			pools[email] = map[string]bool{}
			order = append(order, email)
		}

		spent := price.Mul(decimal.NewFromInt(int64(qty)))
		pools[email][poolID] = true
		cs.TotalQuantityPurchased += qty
		cs.TotalSpent = cs.TotalSpent.Add(spent)
		if total >= minQty {
			cs.TotalSavings = cs.TotalSavings.Add(spent.Mul(h.cfg.SavingsRate))
		}
	}
	if err := rows.Err(); err != nil {
		analyticsError(w, "failed to read customer savings", err)
		return
	}

	out := make([]models.CustomerSavings, 0, len(order))
	for _, email := range order {
		cs := byEmail[email]
		cs.PoolsJoined = len(pools[email])
		cs.TotalSpent = cs.TotalSpent.Round(2)
		cs.TotalSavings = cs.TotalSavings.Round(2)
		out = append(out, *cs)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSavings.GreaterThan(out[j].TotalSavings)
	})

	middleware.JSONResponse(w, http.StatusOK, out)
}

func analyticsError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}
