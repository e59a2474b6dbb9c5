// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation, and constraint errors.

# Connections

Open selects the driver from the configured database type:

	conn, err := db.Open(ctx, db.TypePostgres, "postgres://...")
	conn, err := db.Open(ctx, db.TypeSQLite, "groupbuy.db")

PostgreSQL uses lib/pq. SQLite uses the pure-Go modernc driver with foreign
keys enforced and a single connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - user_role: Maps identity subjects and emails to a role
  - product: Company listings with a unit price
  - pool: Group-buy campaigns (open, success, failed)
  - request: One join per (pool, email)
  - settlement: One row per settled pool, written with the terminal status

# Relationships

	product 1──* pool
	pool 1──* request
	pool 1──1 settlement

# Constraint Errors

Classify maps driver errors onto sentinel errors:

	if errors.Is(db.Classify(err), db.ErrUniqueViolation) {
		// duplicate join
	}

Timestamps are stored through Timestamp, which normalizes to UTC.
*/
package db
