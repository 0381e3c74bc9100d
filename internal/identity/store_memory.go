package identity

import (
	"context"
	"strings"
	"sync"

	id "changeflow/pkg/domain"
	"changeflow/pkg/platform/sentinel"
)

// InMemoryStore keeps users in process memory for tests and the
// databaseless bootstrap configuration.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]User
	order []id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[id.UserID]User)}
}

func (s *InMemoryStore) Create(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return sentinel.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	s.order = append(s.order, user.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		return user, nil
	}
	return User{}, sentinel.ErrNotFound
}

// FirstActive returns the earliest-created active user.
func (s *InMemoryStore) FirstActive(_ context.Context) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, userID := range s.order {
		if user, ok := s.users[userID]; ok && user.Active {
			return user, nil
		}
	}
	return User{}, sentinel.ErrNotFound
}
