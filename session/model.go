package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Well-known session keys.
const (
	KeyLogged       = "logged"
	KeyUser         = "usuario"
	KeyFlashKind    = "tipo_mensagem"
	KeyFlashMessage = "mensagem"
)

// Session is the server-side state of one client. It is owned by a single request at
// a time and is not safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt int64
	ExpiresAt int64

	values     map[string]string
	previousID string
	dirty      bool
	destroyed  bool
	persisted  bool
}

// New returns an empty, not yet persisted session.
func New(id string, lifetime time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(lifetime).Unix(),
		values:    make(map[string]string),
	}
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	if s == nil || s.values == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and marks the session dirty.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Delete removes key. Removing a missing key does not dirty the session.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Logged reports whether the logged flag is present.
func (s *Session) Logged() bool {
	_, ok := s.Get(KeyLogged)
	return ok
}

// SetLogged marks the session as authenticated for user.
func (s *Session) SetLogged(user string) {
	s.Set(KeyLogged, "1")
	s.Set(KeyUser, user)
}

// User returns the identifier recorded at login.
func (s *Session) User() string {
	u, _ := s.Get(KeyUser)
	return u
}

// Renew moves the session to a fresh ID, keeping its values, and restarts its
// absolute lifetime with the same span. The old ID is deleted on commit.
func (s *Session) Renew() {
	if s.persisted && s.previousID == "" {
		s.previousID = s.ID
	}
	now := time.Now().Unix()
	s.ExpiresAt = now + (s.ExpiresAt - s.CreatedAt)
	s.CreatedAt = now
	s.ID = uuid.NewString()
	s.persisted = false
	s.dirty = true
}

// Destroy drops every value; the manager deletes the stored copy on commit.
func (s *Session) Destroy() {
	s.values = make(map[string]string)
	s.destroyed = true
	s.dirty = true
}

// Destroyed reports whether Destroy was called during this request.
func (s *Session) Destroyed() bool { return s != nil && s.destroyed }

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool { return s != nil && s.dirty }

// Persisted reports whether the session was loaded from a store.
func (s *Session) Persisted() bool { return s != nil && s.persisted }

// Keys returns the stored keys in sorted order.
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Session) markClean() {
	s.dirty = false
	s.persisted = true
	s.previousID = ""
}
