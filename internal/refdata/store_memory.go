package refdata

import (
	"context"
	"strings"
	"sync"

	"changeflow/pkg/platform/sentinel"
)

// InMemoryStore serves reference data from process memory. Seed it with
// Defaults() for tests and the databaseless bootstrap configuration.
type InMemoryStore struct {
	mu       sync.RWMutex
	types    []ChangeType
	priority []Priority
	risk     []RiskLevel
	impact   []ImpactLevel
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// NewSeededStore returns an in-memory store loaded with the default set.
func NewSeededStore() *InMemoryStore {
	s := NewInMemoryStore()
	types, priorities, risks, impacts := Defaults()
	s.Load(types, priorities, risks, impacts)
	return s
}

// Load replaces the store contents.
func (s *InMemoryStore) Load(types []ChangeType, priorities []Priority, risks []RiskLevel, impacts []ImpactLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append([]ChangeType{}, types...)
	s.priority = append([]Priority{}, priorities...)
	s.risk = append([]RiskLevel{}, risks...)
	s.impact = append([]ImpactLevel{}, impacts...)
}

func matches(key, id, name string) bool {
	return key == id || strings.EqualFold(key, name)
}

func (s *InMemoryStore) ChangeType(_ context.Context, idOrName string) (ChangeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.types {
		if matches(idOrName, t.ID, t.Name) {
			return t, nil
		}
	}
	return ChangeType{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Priority(_ context.Context, idOrName string) (Priority, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.priority {
		if matches(idOrName, p.ID, p.Name) {
			return p, nil
		}
	}
	return Priority{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) RiskLevel(_ context.Context, idOrName string) (RiskLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.risk {
		if matches(idOrName, r.ID, r.Name) {
			return r, nil
		}
	}
	return RiskLevel{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ImpactLevel(_ context.Context, idOrName string) (ImpactLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, i := range s.impact {
		if matches(idOrName, i.ID, i.Name) {
			return i, nil
		}
	}
	return ImpactLevel{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListChangeTypes(_ context.Context) ([]ChangeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChangeType{}, s.types...), nil
}
