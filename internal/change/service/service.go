// Package service implements the change-request workflow engine: draft
// intake, submission, approval decisioning, implementation tracking and
// closure. Every mutating operation runs one load, gate, mutate, persist,
// audit unit under the per-change transaction boundary. Whether the state
// change and its audit record commit together depends on the store: the
// postgres store rides both on one database transaction, while the
// in-memory store only serializes units per change, so an audit append
// failure there is surfaced after the state change has already applied.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"changeflow/internal/audit"
	"changeflow/internal/change/metrics"
	"changeflow/internal/change/models"
	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	"changeflow/pkg/platform/sentinel"
	"changeflow/pkg/requestcontext"
)

// Store owns persistence of change requests together with their approver
// decisions. Implementations return sentinel errors; FindByID returns
// soft-deleted records, leaving the deletion policy to this service.
type Store interface {
	Create(ctx context.Context, cr *models.ChangeRequest) error
	FindByID(ctx context.Context, changeID id.ChangeID) (*models.ChangeRequest, error)
	Update(ctx context.Context, cr *models.ChangeRequest) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.ChangeRequest, error)
	NextNumber(ctx context.Context) (int64, error)
}

// ChangeTx provides the per-change mutual-exclusion scope. Two operations
// against the same change id never interleave their read and write phases;
// operations on different ids proceed in parallel.
type ChangeTx interface {
	RunInTx(ctx context.Context, changeID id.ChangeID, fn func(ctx context.Context) error) error
}

// AuditRecorder is the slice of the audit API the engine needs.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// RefLookup resolves reference identifiers for the draft builder and
// answers whether a change type is self-approving.
type RefLookup interface {
	ResolveType(ctx context.Context, idOrName string) (string, error)
	ResolvePriority(ctx context.Context, idOrName string) (string, error)
	ResolveRisk(ctx context.Context, idOrName string) (string, error)
	ResolveImpact(ctx context.Context, idOrName string) (string, error)
	TypeSelfApproves(ctx context.Context, typeID string) (bool, error)
}

// RequesterResolver maps a supplied or ambient identity to a concrete user.
type RequesterResolver interface {
	ResolveRequester(ctx context.Context, suppliedID id.UserID) (id.UserID, error)
}

// maxConflictRetries bounds the optimistic retry loop before the operation
// surfaces CodeConflict to the caller.
const maxConflictRetries = 3

// Service is the workflow engine.
type Service struct {
	store     Store
	tx        ChangeTx
	recorder  AuditRecorder
	refdata   RefLookup
	requester RequesterResolver
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithChangeTx overrides the transaction boundary; the default is the
// in-process sharded lock, the postgres store ships its own.
func WithChangeTx(tx ChangeTx) Option {
	return func(s *Service) { s.tx = tx }
}

func New(store Store, recorder AuditRecorder, refdata RefLookup, requester RequesterResolver, opts ...Option) *Service {
	s := &Service{
		store:     store,
		recorder:  recorder,
		refdata:   refdata,
		requester: requester,
		logger:    slog.Default(),
		tracer:    otel.Tracer("changeflow/change"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx()
	}
	return s
}

// Get returns the change request, treating soft-deleted records as absent.
func (s *Service) Get(ctx context.Context, changeID id.ChangeID) (*models.ChangeRequest, error) {
	cr, err := s.load(ctx, changeID)
	if err != nil {
		return nil, err
	}
	return cr, nil
}

// List returns change requests matching the filter.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.ChangeRequest, error) {
	changes, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list change requests")
	}
	return changes, nil
}

// load fetches a non-deleted change, translating store sentinels. Deleted
// records are reported as not found so they behave as if they do not exist.
func (s *Service) load(ctx context.Context, changeID id.ChangeID) (*models.ChangeRequest, error) {
	cr, err := s.store.FindByID(ctx, changeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "change request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load change request")
	}
	if cr.IsDeleted() {
		return nil, dErrors.New(dErrors.CodeNotFound, "change request not found")
	}
	return cr, nil
}

// mutation describes the audit consequence of a successful state change.
type mutation struct {
	action  audit.Action
	reason  string
	details map[string]any
}

// mutate runs one atomic read-modify-write unit: load under the per-change
// boundary, apply fn, persist, and append exactly one audit record through
// the same context (and therefore the same transaction where the store is
// transactional). Version conflicts retry the whole unit from a fresh read,
// bounded by maxConflictRetries.
func (s *Service) mutate(
	ctx context.Context,
	changeID id.ChangeID,
	actorID id.UserID,
	op string,
	fn func(ctx context.Context, cr *models.ChangeRequest) (*mutation, error),
) (*models.ChangeRequest, error) {
	ctx, span := s.tracer.Start(ctx, "change."+op)
	defer span.End()

	var result *models.ChangeRequest
	attempt := func(ctx context.Context) error {
		cr, err := s.load(ctx, changeID)
		if err != nil {
			return err
		}
		from := cr.Status

		m, err := fn(ctx, cr)
		if err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		cr.UpdatedAt = now
		cr.UpdatedBy = actorID

		if err := s.store.Update(ctx, cr); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist change request")
		}
		if err := s.recorder.Record(ctx, s.buildEvent(cr, actorID, from, m)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}

		s.observeTransition(op, from, cr.Status)
		result = cr
		return nil
	}

	var err error
	for range maxConflictRetries {
		err = s.tx.RunInTx(ctx, changeID, attempt)
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
		if s.metrics != nil {
			s.metrics.ConflictRetries.Inc()
		}
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.New(dErrors.CodeConflict, "concurrent update detected, retry the operation")
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) observeTransition(op string, from, to models.Status) {
	if s.metrics != nil && from != to {
		s.metrics.Transitions.WithLabelValues(string(from), string(to)).Inc()
	}
	s.logger.Debug("change transition",
		"operation", op,
		"from", string(from),
		"to", string(to),
	)
}

// requireTransition gates a status change against the lifecycle table and
// applies it.
func requireTransition(cr *models.ChangeRequest, next models.Status) error {
	if !cr.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot transition from %s to %s", cr.Status, next)
	}
	cr.Status = next
	return nil
}
