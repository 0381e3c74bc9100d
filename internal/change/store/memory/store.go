// Package memory provides the in-memory change request store used by tests
// and the databaseless bootstrap configuration. It enforces the same
// version discipline as the postgres store so concurrency behavior is
// exercised even without a database.
//
// Unlike the postgres store it has no transaction to ride: Update commits
// immediately, and the audit record the workflow engine appends afterwards
// is a separate write. The per-change lock keeps the pair ordered, but a
// failed audit append leaves the state change in place.
package memory

import (
	"context"
	"sort"
	"sync"

	"changeflow/internal/change/models"
	id "changeflow/pkg/domain"
	"changeflow/pkg/platform/sentinel"
)

type Store struct {
	mu      sync.RWMutex
	changes map[id.ChangeID]*models.ChangeRequest
	nextNum int64
}

func New() *Store {
	return &Store{changes: make(map[id.ChangeID]*models.ChangeRequest)}
}

func (s *Store) Create(_ context.Context, cr *models.ChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.changes[cr.ID]; exists {
		return sentinel.ErrDuplicate
	}
	cr.Version = 1
	s.changes[cr.ID] = cr.Clone()
	return nil
}

// FindByID returns a snapshot of the change, including soft-deleted
// records; services decide how deletion is surfaced.
func (s *Store) FindByID(_ context.Context, changeID id.ChangeID) (*models.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cr, ok := s.changes[changeID]; ok {
		return cr.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// Update persists the change when the caller's version matches the stored
// one, bumping the version. A mismatch reports sentinel.ErrConflict and
// leaves the record untouched.
func (s *Store) Update(_ context.Context, cr *models.ChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.changes[cr.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != cr.Version {
		return sentinel.ErrConflict
	}
	cr.Version++
	s.changes[cr.ID] = cr.Clone()
	return nil
}

func (s *Store) List(_ context.Context, filter models.ListFilter) ([]*models.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.ChangeRequest
	for _, cr := range s.changes {
		if cr.IsDeleted() && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != "" && cr.Status != filter.Status {
			continue
		}
		if filter.RequesterID != "" && cr.RequesterID.String() != filter.RequesterID {
			continue
		}
		matched = append(matched, cr.Clone())
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Number < matched[j].Number })
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// NextNumber allocates the next sequential change number. Numbers are never
// reused, even when the allocating create later fails.
func (s *Store) NextNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNum++
	return s.nextNum, nil
}
