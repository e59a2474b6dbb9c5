// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open connects to the configured database and verifies the connection.
// The caller owns the returned handle and must Close it.
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch dbType {
	case TypePostgres:
		conn, err = sql.Open("postgres", url)
	case TypeSQLite:
		conn, err = sql.Open("sqlite", SQLiteDSN(url))
		if err == nil {
			// SQLite has a single writer; one connection keeps transactions
			// from failing with SQLITE_BUSY on lock upgrade.
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// SQLiteDSN turns a path or file: URL into a modernc DSN with foreign keys
// enforced and timestamps written in a sortable format.
func SQLiteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// Timestamp normalizes t for storage: UTC at microsecond precision, which is
// what PostgreSQL keeps and what sorts correctly as SQLite text.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
