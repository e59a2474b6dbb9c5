// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are written in the subset of SQL shared by PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Identity to role mapping
CREATE TABLE IF NOT EXISTS user_role (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    cognito_sub TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL CHECK (role IN ('client', 'company')),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Products
CREATE TABLE IF NOT EXISTS product (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    unit_price NUMERIC(12, 2) NOT NULL CHECK (unit_price >= 0),
    image_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_product_email ON product(email);

-- Pools
CREATE TABLE IF NOT EXISTS pool (
    id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL REFERENCES product(id),
    min_quantity INTEGER NOT NULL CHECK (min_quantity > 0),
    start_at TIMESTAMP NOT NULL,
    end_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'success', 'failed')),
    settled_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pool_status_end_at ON pool(status, end_at);
CREATE INDEX IF NOT EXISTS idx_pool_product_id ON pool(product_id);

-- Join requests
CREATE TABLE IF NOT EXISTS request (
    id TEXT PRIMARY KEY,
    pool_id TEXT NOT NULL REFERENCES pool(id) ON DELETE CASCADE,
    email TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    created_at TIMESTAMP NOT NULL,
    UNIQUE (pool_id, email)
);

CREATE INDEX IF NOT EXISTS idx_request_email ON request(email);

-- Settlements (one per pool, written with the terminal status)
CREATE TABLE IF NOT EXISTS settlement (
    id TEXT PRIMARY KEY,
    pool_id TEXT NOT NULL UNIQUE REFERENCES pool(id) ON DELETE CASCADE,
    outcome TEXT NOT NULL CHECK (outcome IN ('success', 'failed')),
    total_joined INTEGER NOT NULL,
    min_quantity INTEGER NOT NULL,
    trigger_source TEXT NOT NULL,
    subject TEXT NOT NULL,
    body TEXT NOT NULL,
    settled_at TIMESTAMP NOT NULL
);
`
