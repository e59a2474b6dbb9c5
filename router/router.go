// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/groupbuy/cliparse"
	"github.com/danielhkuo/groupbuy/handlers"
	"github.com/danielhkuo/groupbuy/middleware"
	"github.com/danielhkuo/groupbuy/settlement"
)

// NewRouter builds the route table. The returned handler answers CORS
// preflights and verifies identity claims before any route runs.
func NewRouter(db *sql.DB, cfg cliparse.Config, engine *settlement.Engine) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	roleHandler := handlers.NewRoleHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db, cfg)
	poolHandler := handlers.NewPoolHandler(db, cfg)
	requestHandler := handlers.NewRequestHandler(db, cfg, engine)
	analyticsHandler := handlers.NewAnalyticsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Roles (any authenticated caller)
	mux.HandleFunc("PUT /roles/me", middleware.WithLogging(roleHandler.SetMyRole))
	mux.HandleFunc("GET /roles/me", middleware.WithLogging(roleHandler.GetMyRole))

	// Products (company writes, public reads)
	mux.HandleFunc("POST /products", middleware.WithLogging(productHandler.CreateProduct))
	mux.HandleFunc("GET /products", middleware.WithLogging(productHandler.ListProducts))
	mux.HandleFunc("GET /products/{id}", middleware.WithLogging(productHandler.GetProduct))
	mux.HandleFunc("DELETE /products/{id}", middleware.WithLogging(productHandler.DeleteProduct))

	// Pools
	mux.HandleFunc("POST /pools", middleware.WithLogging(poolHandler.CreatePool))
	mux.HandleFunc("GET /pools", middleware.WithLogging(poolHandler.ListPools))
	mux.HandleFunc("GET /pools/{id}", middleware.WithLogging(poolHandler.GetPool))

	// Join requests (clients)
	mux.HandleFunc("POST /pools/{id}/requests", middleware.WithLogging(requestHandler.JoinPool))
	mux.HandleFunc("GET /requests", middleware.WithLogging(requestHandler.ListRequests))

	// Analytics (companies)
	mux.HandleFunc("GET /analytics/overview", middleware.WithLogging(analyticsHandler.Overview))
	mux.HandleFunc("GET /analytics/pools-sales", middleware.WithLogging(analyticsHandler.PoolsSales))
	mux.HandleFunc("GET /analytics/customers-savings", middleware.WithLogging(analyticsHandler.CustomersSavings))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("groupbuy API v1"))
	})

	return middleware.CORS(middleware.WithClaims(cfg.ClaimsSecret, mux))
}
