// Package audit provides the append-only audit trail: an event model, a
// recorder that stamps and persists events, and memory/postgres stores.
// It is a pure sink; no business logic lives here.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"changeflow/pkg/requestcontext"
)

// Store persists audit events. Implementations must be append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Recorder captures structured audit events. It uses the storage layer for
// persistence so tests can swap sinks easily.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Recorder)

// WithLogger mirrors every event onto the structured log for operational
// visibility alongside the durable trail.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps identity and time onto the event and appends it. When the
// context carries a transaction, tx-aware stores write through it, making
// the append atomic with the mutation it describes.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if err := r.store.Append(ctx, event); err != nil {
		return err
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, string(event.Action),
			"log_type", "audit",
			"actor_id", event.ActorID,
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"entity_ref", event.EntityRef,
			"reason", event.Reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// ListByEntity returns the trail for one entity, oldest first.
func (r *Recorder) ListByEntity(ctx context.Context, entityType, entityID string) ([]Event, error) {
	return r.store.ListByEntity(ctx, entityType, entityID)
}

// ListRecent returns the most recent events across all entities.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return r.store.ListRecent(ctx, limit)
}
