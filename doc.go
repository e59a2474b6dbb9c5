// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the groupbuy command.

Companies list products and open group-buying pools with a minimum quantity
and a deadline. Clients join pools with a quantity. A pool settles exactly
once: as success the moment its requests reach the minimum, or at its
deadline as success or failed. Each settlement publishes one notification.

# Commands

	groupbuy serve   [flags]  HTTP API (optionally with an in-process sweep)
	groupbuy sweep   [flags]  settle expired pools once, for cron
	groupbuy migrate [flags]  create the schema

All commands take the same flags:

	DATABASE_URL=groupbuy.db CLAIMS_SECRET=dev groupbuy serve
	groupbuy serve -p 3318 -t postgres -d "postgres://..." -notifier log,amqp
	groupbuy sweep -c /etc/groupbuy.yaml

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - CLAIMS_SECRET (-claims-secret): HMAC key for gateway identity headers

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - NOTIFIER (-notifier): log, amqp, twilio (comma separated)
  - SWEEP_INTERVAL (-sweep-interval): in-process sweep cadence
  - LOG_LEVEL, LOG_FORMAT: slog level and text or json output

See package cliparse for the full list.

# Architecture

  - handlers: HTTP request handlers (roles, products, pools, requests, analytics)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, claims verification, JSON helpers
  - settlement: threshold evaluation, inline check, deadline sweep, notification text
  - notify: log, RabbitMQ and Twilio notifiers
  - models: Request/response and domain types
  - auth: Identity claims and roles
  - db: Connection, schema, driver error classification
  - cliparse: Configuration parsing
*/
package main
