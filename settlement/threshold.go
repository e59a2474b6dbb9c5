// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/groupbuy/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Outcome is the terminal status a pool settles into
type Outcome string

const (
	Success Outcome = models.StatusSuccess
	Failed  Outcome = models.StatusFailed
)

// Decide is the single predicate for pool outcome, shared by the inline
// check and the sweep.
func Decide(totalJoined, minQuantity int) Outcome {
	if totalJoined >= minQuantity {
		return Success
	}
	return Failed
}

// TotalJoined sums the quantity of every request in the pool.
// A pool without requests totals zero.
func TotalJoined(ctx context.Context, q Querier, poolID string) (int, error) {
	var total int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM request WHERE pool_id = $1
	`, poolID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum requests: %w", err)
	}
	return total, nil
}

// Participants returns the pool's roster in join order
func Participants(ctx context.Context, q Querier, poolID string) ([]models.Participant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT email, quantity
		FROM request
		WHERE pool_id = $1
		ORDER BY created_at, id
	`, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.Email, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participants: %w", err)
	}
	return participants, nil
}
