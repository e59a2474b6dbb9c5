// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the group-buying API.

# Route Registration

NewRouter creates a configured handler with all endpoints, wrapped in
claims verification:

	engine := settlement.NewEngine(db, notifier, cfg.NotifyTopic)
	handler := router.NewRouter(db, cfg, engine)

# Endpoints

Health:

	GET /health
	GET /

Roles (authenticated):

	PUT /roles/me - Assign client or company role
	GET /roles/me - Current role

Products:

	POST   /products      - Create (company)
	GET    /products      - List, optional ?email=
	GET    /products/{id} - Get one
	DELETE /products/{id} - Delete unreferenced product (owner)

Pools:

	POST /pools               - Create (product owner)
	GET  /pools               - List, optional ?status=
	GET  /pools/{id}          - Get one with total joined
	POST /pools/{id}/requests - Join (client), runs the early check

Requests:

	GET /requests?email= | ?pool_id=

Analytics (company):

	GET /analytics/overview
	GET /analytics/pools-sales
	GET /analytics/customers-savings
*/
package router
