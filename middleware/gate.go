package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-logr/logr"

	"github.com/MrEthical07/cursos/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session attached by [Gate].
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok && sess != nil
}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// MatchMode selects how request paths are compared with the login path.
type MatchMode uint8

const (
	// MatchExact exempts only the login path itself.
	MatchExact MatchMode = iota
	// MatchSubstring exempts every path containing the login path, without its
	// leading slash, case-insensitively. With "/login" this lets
	// "/user-login-history" through unauthenticated.
	MatchSubstring
)

// ParseMatchMode maps "exact" and "substring" to a [MatchMode]. Empty means exact.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "substring":
		return MatchSubstring, nil
	default:
		return MatchExact, fmt.Errorf("unknown login match mode %q", s)
	}
}

func (m MatchMode) String() string {
	if m == MatchSubstring {
		return "substring"
	}
	return "exact"
}

// LoginPolicy names the login path that anonymous clients are sent to and that
// stays reachable without a logged session.
type LoginPolicy struct {
	Path  string
	Match MatchMode
}

// Exempt reports whether path can be served without a logged session.
func (p LoginPolicy) Exempt(path string) bool {
	switch p.Match {
	case MatchSubstring:
		needle := strings.ToLower(strings.TrimPrefix(p.Path, "/"))
		return needle != "" && strings.Contains(strings.ToLower(path), needle)
	default:
		return path == p.Path
	}
}

// SessionLoader opens the session of a request. Implemented by [session.Manager].
type SessionLoader interface {
	Load(ctx context.Context, r *http.Request) *session.Session
}

// GateOption customizes a [Gate].
type GateOption func(*Gate)

// WithRedirectHook calls fn for every request the gate turns away.
func WithRedirectHook(fn func(*http.Request)) GateOption {
	return func(g *Gate) { g.onRedirect = fn }
}

// Gate opens the session of each request and redirects anonymous clients to the
// login path before anything else runs.
type Gate struct {
	sessions   SessionLoader
	policy     LoginPolicy
	logger     logr.Logger
	onRedirect func(*http.Request)
}

// NewGate returns a gate over sessions.
func NewGate(sessions SessionLoader, policy LoginPolicy, logger logr.Logger, opts ...GateOption) (*Gate, error) {
	if sessions == nil {
		return nil, errors.New("session loader is required")
	}
	if !strings.HasPrefix(policy.Path, "/") {
		return nil, fmt.Errorf("login path %q must start with /", policy.Path)
	}
	g := &Gate{sessions: sessions, policy: policy, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Policy returns the login policy in effect.
func (g *Gate) Policy() LoginPolicy {
	return g.policy
}

// Wrap returns next behind the gate. next only runs for logged sessions and
// exempt paths, and finds the session with [SessionFromContext].
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logr.NewContext(r.Context(), g.logger)
		sess := g.sessions.Load(ctx, r)

		if !sess.Logged() && !g.policy.Exempt(r.URL.Path) {
			g.logger.V(1).Info("Redirecting anonymous request", "path", r.URL.Path)
			if g.onRedirect != nil {
				g.onRedirect(r)
			}
			http.Redirect(w, r, g.policy.Path, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
	})
}
