// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/models"
	"github.com/danielhkuo/groupbuy/notify"
)

var ErrPoolNotFound = errors.New("pool not found")

// Store is the relational store handle the engine runs against.
type Store interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Engine settles pools. It holds no state between invocations; every
// CheckEarly or Sweep call is an independent unit of work.
type Engine struct {
	db       Store
	notifier notify.Notifier
	topic    string
}

func NewEngine(db Store, notifier notify.Notifier, topic string) *Engine {
	return &Engine{db: db, notifier: notifier, topic: topic}
}

// Result describes what one settlement attempt did.
// Settled is false when the pool was left untouched.
type Result struct {
	PoolID       string
	Status       string
	Settled      bool
	Outcome      Outcome
	TotalJoined  int
	MinQuantity  int
	Trigger      string
	Notification Notification
}

// PoolError is a settlement failure isolated to one pool during a sweep.
type PoolError struct {
	PoolID string
	Err    error
}

func (e PoolError) Error() string {
	return fmt.Sprintf("pool %s: %v", e.PoolID, e.Err)
}

func (e PoolError) Unwrap() error { return e.Err }

type SweepReport struct {
	Selected int
	Settled  []Result
	Skipped  int
	Failed   []PoolError
}

// CheckEarly settles a pool as successful as soon as its requests reach the
// threshold. It runs right after a request insert commits. A pool that is
// no longer open, or still short of its minimum, is left as is; this check
// never fails a pool.
func (e *Engine) CheckEarly(ctx context.Context, poolID string) (Result, error) {
	return e.settle(ctx, poolID, models.TriggerInline, time.Now())
}

// Sweep settles every open pool whose deadline is at or before now. Each
// pool settles in its own transaction; a failure is logged and recorded in
// the report without stopping the others. Only the initial selection
// failing, or ctx ending, returns an error.
func (e *Engine) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	start := time.Now()
	var report SweepReport

	ids, err := e.expiredPools(ctx, now)
	if err != nil {
		return report, err
	}
	report.Selected = len(ids)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			slog.Warn("sweep interrupted", "remaining", len(ids)-i, "error", err)
			return report, err
		}

		res, err := e.settle(ctx, id, models.TriggerSweep, now)
		switch {
		case err != nil:
			slog.Error("pool settlement failed", "pool_id", id, "error", err)
			report.Failed = append(report.Failed, PoolError{PoolID: id, Err: err})
		case !res.Settled:
			report.Skipped++
		default:
			report.Settled = append(report.Settled, res)
		}
	}

	slog.Info("sweep finished",
		"selected", report.Selected,
		"settled", len(report.Settled),
		"skipped", report.Skipped,
		"failed", len(report.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (e *Engine) expiredPools(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id FROM pool
		WHERE status = $1 AND end_at <= $2
		ORDER BY end_at, id
	`, models.StatusOpen, db.Timestamp(now))
	if err != nil {
		return nil, fmt.Errorf("failed to select expired pools: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pool id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expired pools: %w", err)
	}
	return ids, nil
}

// settle runs read-total, decide, write-status and notify for one pool
// inside one transaction. The status write is conditional on the pool still
// being open, so of two concurrent settlers only one proceeds to notify.
// A failed publish rolls the status back, leaving the pool eligible again.
func (e *Engine) settle(ctx context.Context, poolID, trigger string, now time.Time) (Result, error) {
	res := Result{PoolID: poolID, Trigger: trigger}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		endAt       time.Time
		productName string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT p.status, p.min_quantity, p.end_at, pr.name
		FROM pool p
		JOIN product pr ON pr.id = p.product_id
		WHERE p.id = $1
	`, poolID).Scan(&res.Status, &res.MinQuantity, &endAt, &productName)
	if err == sql.ErrNoRows {
		return res, ErrPoolNotFound
	}
	if err != nil {
		return res, fmt.Errorf("failed to query pool: %w", err)
	}

	if res.Status != models.StatusOpen {
		return res, nil
	}
	if trigger == models.TriggerSweep && endAt.After(now) {
		return res, nil
	}

	res.TotalJoined, err = TotalJoined(ctx, tx, poolID)
	if err != nil {
		return res, err
	}
	res.Outcome = Decide(res.TotalJoined, res.MinQuantity)
	if trigger == models.TriggerInline && res.Outcome != Success {
		return res, nil
	}

	participants, err := Participants(ctx, tx, poolID)
	if err != nil {
		return res, err
	}
	res.Notification = Compose(Summary{
		PoolID:       poolID,
		ProductName:  productName,
		MinQuantity:  res.MinQuantity,
		TotalJoined:  res.TotalJoined,
		Participants: participants,
	}, res.Outcome, trigger)

	settledAt := db.Timestamp(now)
	updated, err := tx.ExecContext(ctx, `
		UPDATE pool SET status = $1, settled_at = $2
		WHERE id = $3 AND status = $4
	`, string(res.Outcome), settledAt, poolID, models.StatusOpen)
	if err != nil {
		return res, fmt.Errorf("failed to update pool status: %w", err)
	}
	n, err := updated.RowsAffected()
	if err != nil {
		return res, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		slog.Info("pool already settled by another trigger", "pool_id", poolID, "trigger", trigger)
		return res, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settlement (id, pool_id, outcome, total_joined, min_quantity, trigger_source, subject, body, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, auth.NewID(), poolID, string(res.Outcome), res.TotalJoined, res.MinQuantity, trigger,
		res.Notification.Subject, res.Notification.Body, settledAt)
	if err != nil {
		if errors.Is(db.Classify(err), db.ErrUniqueViolation) {
			slog.Info("pool already has a settlement", "pool_id", poolID, "trigger", trigger)
			return res, nil
		}
		return res, fmt.Errorf("failed to record settlement: %w", err)
	}

	err = e.notifier.Publish(ctx, notify.Message{
		Topic:   e.topic,
		Subject: res.Notification.Subject,
		Body:    res.Notification.Body,
		PoolID:  poolID,
		SentAt:  settledAt,
	})
	if err != nil {
		slog.Error("settlement notification failed, rolling back", "pool_id", poolID, "trigger", trigger, "error", err)
		return res, fmt.Errorf("failed to publish notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("notification published but settlement commit failed", "pool_id", poolID, "error", err)
		return res, fmt.Errorf("failed to commit settlement: %w", err)
	}

	res.Status = string(res.Outcome)
	res.Settled = true

	slog.Info("pool settled",
		"pool_id", poolID,
		"outcome", res.Outcome,
		"total_joined", res.TotalJoined,
		"min_quantity", res.MinQuantity,
		"trigger", trigger,
	)
	return res, nil
}
