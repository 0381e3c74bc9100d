// Package outbox relays committed audit events from the database outbox
// table to Kafka. Writing the outbox row in the same transaction as the
// audit event keeps the stream and the table consistent; the relay only
// ever publishes what was durably committed.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher is the broker-facing side of the relay.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 100
)

// Relay polls the outbox table and publishes unpublished entries in order.
type Relay struct {
	db        *sql.DB
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Relay)

// WithInterval overrides the polling interval.
func WithInterval(interval time.Duration) Option {
	return func(r *Relay) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

func NewRelay(db *sql.DB, publisher Publisher, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		db:        db,
		publisher: publisher,
		logger:    logger,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick; rows are only marked published after the broker ack.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.relayOnce(ctx); err != nil {
				r.logger.WarnContext(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

func (r *Relay) relayOnce(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// SKIP LOCKED lets multiple relay instances drain the table without
	// publishing the same entry twice.
	const query = `
		SELECT id, event_id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.QueryContext(ctx, query, r.batchSize)
	if err != nil {
		return fmt.Errorf("select outbox entries: %w", err)
	}

	type entry struct {
		id      uuid.UUID
		eventID uuid.UUID
		payload []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.eventID, &e.payload); err != nil {
			rows.Close()
			return fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if err := r.publisher.Publish(ctx, []byte(e.eventID.String()), e.payload); err != nil {
			return fmt.Errorf("publish outbox entry %s: %w", e.id, err)
		}
		const mark = `UPDATE audit_outbox SET published_at = $1 WHERE id = $2`
		if _, err := tx.ExecContext(ctx, mark, time.Now(), e.id); err != nil {
			return fmt.Errorf("mark outbox entry %s published: %w", e.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outbox tx: %w", err)
	}
	r.logger.DebugContext(ctx, "relayed audit events", "count", len(entries))
	return nil
}
