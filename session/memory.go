package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps encoded sessions in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	now   func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
		now:   time.Now,
	}
}

// Load decodes a stored copy so callers never share state with the store.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	data, ok := m.blobs[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, ErrCorrupt
	}
	if m.now().Unix() >= sess.ExpiresAt {
		_ = m.Delete(context.Background(), id)
		return nil, ErrNotFound
	}
	sess.ID = id
	sess.markClean()
	return sess, nil
}

// Save stores an encoded copy. ttl is enforced through ExpiresAt.
func (m *MemoryStore) Save(_ context.Context, sess *Session, _ time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[sess.ID] = data
	m.mu.Unlock()
	sess.markClean()
	return nil
}

// Delete removes id.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.blobs, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
