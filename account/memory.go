package account

import (
	"context"
	"sync"
)

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	byEmail map[string]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: make(map[string]User)}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = NormalizeEmail(u.Email)
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrExists
	}
	s.nextID++
	u.ID = s.nextID
	s.byEmail[u.Email] = *u
	return nil
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for email, u := range s.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
			s.byEmail[email] = u
			return nil
		}
	}
	return ErrNotFound
}
