package auth

import (
	"context"
	"sync"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// NewInMemoryUserStore returns a user store backed by an in-memory map.
func NewInMemoryUserStore(users ...models.User) *InMemoryUserStore {
	s := &InMemoryUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// InMemoryUserStore implements UserTokenStore and CredentialStore for tests
// and local development.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// Put inserts or replaces a user.
func (s *InMemoryUserStore) Put(user models.User) {
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
}

// Remove deletes a user.
func (s *InMemoryUserStore) Remove(id string) {
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
}

// FindByID retrieves a user by id.
func (s *InMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	user, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

// FindByEmail retrieves a user by email.
func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.findBy(func(u models.User) bool { return u.Email == email })
}

// FindByUsername retrieves a user by username.
func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.findBy(func(u models.User) bool { return u.Username == username })
}

// SetRefreshToken overwrites the stored refresh token.
func (s *InMemoryUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

// SwapRefreshToken replaces current with next when current is still stored.
func (s *InMemoryUserStore) SwapRefreshToken(_ context.Context, userID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok || user.RefreshToken != current {
		return false, nil
	}
	user.RefreshToken = next
	s.users[userID] = user
	return true, nil
}

// RefreshToken reports the stored refresh token. Useful for tests.
func (s *InMemoryUserStore) RefreshToken(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID].RefreshToken
}

func (s *InMemoryUserStore) findBy(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}
