package refdata

import (
	"context"
	"errors"
	"strings"

	"changeflow/pkg/platform/sentinel"
)

// Store reads reference entries by id or case-insensitive display name.
// Implementations return sentinel.ErrNotFound for unknown identifiers.
type Store interface {
	ChangeType(ctx context.Context, idOrName string) (ChangeType, error)
	Priority(ctx context.Context, idOrName string) (Priority, error)
	RiskLevel(ctx context.Context, idOrName string) (RiskLevel, error)
	ImpactLevel(ctx context.Context, idOrName string) (ImpactLevel, error)
	ListChangeTypes(ctx context.Context) ([]ChangeType, error)
}

// Lookup resolves reference identifiers with the fallback policy the draft
// builder relies on: a supplied identifier that does not resolve maps to
// the fixed fallback id, so drafts never carry dangling references. An
// empty input stays empty; completeness is the submit step's concern.
type Lookup struct {
	store Store
}

func NewLookup(store Store) *Lookup {
	return &Lookup{store: store}
}

// ResolveType maps an id or name to a change type id.
func (l *Lookup) ResolveType(ctx context.Context, idOrName string) (string, error) {
	return l.resolve(ctx, idOrName, FallbackTypeID, func(ctx context.Context, key string) (string, error) {
		t, err := l.store.ChangeType(ctx, key)
		return t.ID, err
	})
}

// ResolvePriority maps an id or name to a priority id.
func (l *Lookup) ResolvePriority(ctx context.Context, idOrName string) (string, error) {
	return l.resolve(ctx, idOrName, FallbackPriorityID, func(ctx context.Context, key string) (string, error) {
		p, err := l.store.Priority(ctx, key)
		return p.ID, err
	})
}

// ResolveRisk maps an id or name to a risk level id.
func (l *Lookup) ResolveRisk(ctx context.Context, idOrName string) (string, error) {
	return l.resolve(ctx, idOrName, FallbackRiskID, func(ctx context.Context, key string) (string, error) {
		r, err := l.store.RiskLevel(ctx, key)
		return r.ID, err
	})
}

// ResolveImpact maps an id or name to an impact level id.
func (l *Lookup) ResolveImpact(ctx context.Context, idOrName string) (string, error) {
	return l.resolve(ctx, idOrName, FallbackImpactID, func(ctx context.Context, key string) (string, error) {
		i, err := l.store.ImpactLevel(ctx, key)
		return i.ID, err
	})
}

// TypeSelfApproves reports whether the given change type skips approval.
// Unknown types are treated as requiring approval.
func (l *Lookup) TypeSelfApproves(ctx context.Context, typeID string) (bool, error) {
	t, err := l.store.ChangeType(ctx, typeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return t.SelfApproving, nil
}

func (l *Lookup) resolve(
	ctx context.Context,
	idOrName, fallback string,
	find func(ctx context.Context, key string) (string, error),
) (string, error) {
	key := strings.TrimSpace(idOrName)
	if key == "" {
		return "", nil
	}
	resolved, err := find(ctx, key)
	if err == nil {
		return resolved, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return fallback, nil
	}
	return "", err
}
