package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	txcontext "changeflow/pkg/platform/tx"
)

// PostgresStore persists audit events and mirrors each one into an outbox
// table read by the Kafka relay. Both inserts ride whatever transaction the
// context carries, so an event is committed if and only if the mutation it
// describes is.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	exec := s.execer(ctx)

	const insertEvent = `
		INSERT INTO audit_events (
			id, occurred_at, action, actor_id, actor_name,
			entity_type, entity_id, entity_ref, reason, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	details := event.Details
	if details == nil {
		details = json.RawMessage(`{}`)
	}
	_, err := exec.ExecContext(ctx, insertEvent,
		event.ID, event.Timestamp, string(event.Action),
		event.ActorID, event.ActorName,
		event.EntityType, event.EntityID, event.EntityRef,
		event.Reason, []byte(details),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	const insertOutbox = `
		INSERT INTO audit_outbox (id, event_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := exec.ExecContext(ctx, insertOutbox, uuid.New(), event.ID, payload, time.Now()); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]Event, error) {
	const query = `
		SELECT id, occurred_at, action, actor_id, actor_name,
		       entity_type, entity_id, entity_ref, reason, details
		FROM audit_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY occurred_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, occurred_at, action, actor_id, actor_name,
		       entity_type, entity_id, entity_ref, reason, details
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e       Event
			action  string
			details []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &action, &e.ActorID, &e.ActorName,
			&e.EntityType, &e.EntityID, &e.EntityRef, &e.Reason, &details,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		e.Details = json.RawMessage(details)
		events = append(events, e)
	}
	return events, rows.Err()
}
