package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// CookieConfig describes the cookie that carries the session token.
type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// Manager ties a [Store] to the signed session cookie.
type Manager struct {
	store    Store
	codec    *CookieCodec
	cookie   CookieConfig
	lifetime time.Duration
}

// NewManager returns a manager that issues sessions living for lifetime.
func NewManager(store Store, codec *CookieCodec, cookie CookieConfig, lifetime time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if codec == nil {
		return nil, errors.New("cookie codec is required")
	}
	if lifetime <= 0 {
		return nil, errors.New("invalid session lifetime")
	}
	if cookie.Name == "" {
		cookie.Name = "CURSOSSESSID"
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Manager{store: store, codec: codec, cookie: cookie, lifetime: lifetime}, nil
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the session referenced by the request cookie, or a fresh anonymous
// session when there is none. Store failures degrade to an anonymous session.
func (m *Manager) Load(ctx context.Context, r *http.Request) *Session {
	logger := logr.FromContextOrDiscard(ctx)

	c, err := r.Cookie(m.cookie.Name)
	if err != nil || c.Value == "" {
		return m.fresh()
	}

	id, err := m.codec.Decode(c.Value)
	if err != nil {
		logger.V(1).Info("Rejected session cookie", "reason", err.Error())
		return m.fresh()
	}

	sess, err := m.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Error(err, "Failed to load session")
		}
		return m.fresh()
	}
	return sess
}

// Commit persists the outcome of a request: destroyed sessions are deleted and their
// cookie expired, dirty sessions are saved and their cookie refreshed.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.Destroyed() {
		m.expireCookie(w, r)
		if sess.previousID != "" {
			if err := m.store.Delete(ctx, sess.previousID); err != nil {
				return err
			}
		}
		if !sess.Persisted() {
			return nil
		}
		return m.store.Delete(ctx, sess.ID)
	}

	if !sess.Dirty() {
		return nil
	}

	ttl := time.Until(time.Unix(sess.ExpiresAt, 0))
	if ttl <= 0 {
		return ErrNotFound
	}
	if sess.previousID != "" {
		if err := m.store.Delete(ctx, sess.previousID); err != nil {
			return err
		}
	}
	if err := m.store.Save(ctx, sess, ttl); err != nil {
		return err
	}

	token, err := m.codec.Encode(sess.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    token,
		Path:     m.cookie.Path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: m.cookie.HTTPOnly,
		Secure:   m.cookie.Secure || r.TLS != nil,
		SameSite: m.cookie.SameSite,
	})
	return nil
}

func (m *Manager) expireCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     m.cookie.Path,
		MaxAge:   -1,
		HttpOnly: m.cookie.HTTPOnly,
		Secure:   m.cookie.Secure || r.TLS != nil,
		SameSite: m.cookie.SameSite,
	})
}

func (m *Manager) fresh() *Session {
	return New(uuid.NewString(), m.lifetime)
}
