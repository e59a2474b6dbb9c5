// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the group-buying API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - RoleHandler: caller role assignment and lookup
  - ProductHandler: company product catalog
  - PoolHandler: pool creation and listing
  - RequestHandler: joining pools, listing requests
  - AnalyticsHandler: company dashboards

Handlers are created via constructor functions that accept *sql.DB and Config:

	poolHandler := handlers.NewPoolHandler(db, cfg)

RequestHandler also takes the settlement engine:

	requestHandler := handlers.NewRequestHandler(db, cfg, engine)

# Identity

Handlers read the caller from auth.ClaimsFromContext, filled in by
middleware.WithClaims. Anonymous callers get 401 on protected routes; a
caller without the needed role (client or company) gets 403.

# Joining a Pool

	POST /pools/{id}/requests → JoinPool

The request row is inserted in its own transaction, rejected with 409 when
the pool is settled, past its deadline, or already joined by the same email.
After the insert commits, the handler runs the early-settlement check. The
response's pool_status is "success" when this join filled the pool. A failed
check is logged and the join still returns 201; the sweep settles the pool
later.

# Analytics

Money is computed with decimal arithmetic per pool rather than summed in SQL.
Savings apply cfg.SavingsRate to spend in pools that reached their minimum.
*/
package handlers
