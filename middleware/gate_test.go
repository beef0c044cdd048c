package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/cursos/session"
)

type stubLoader struct {
	sess  *session.Session
	calls int
}

func (l *stubLoader) Load(context.Context, *http.Request) *session.Session {
	l.calls++
	return l.sess
}

func anonymous() *session.Session {
	return session.New("0c3c8f5e-3c2e-4c55-8f2b-1f9d1b0e6a01", time.Hour)
}

func logged() *session.Session {
	s := anonymous()
	s.SetLogged("ana@example.com")
	return s
}

func serve(t *testing.T, g *Gate, path string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	h := g.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec, called
}

func TestGateRedirectsAnonymous(t *testing.T) {
	redirects := 0
	g, err := NewGate(&stubLoader{sess: anonymous()}, LoginPolicy{Path: "/login"}, logr.Discard(),
		WithRedirectHook(func(*http.Request) { redirects++ }))
	require.NoError(t, err)

	for _, p := range []string{"/listar-cursos", "/excluir-curso?id=1", "/user-login-history", "/cursos.xml"} {
		rec, called := serve(t, g, p)
		require.False(t, called, p)
		require.Equal(t, http.StatusFound, rec.Code, p)
		require.Equal(t, "/login", rec.Header().Get("Location"), p)
	}
	require.Equal(t, 4, redirects)
}

func TestGateExactAllowsLoginOnly(t *testing.T) {
	g, err := NewGate(&stubLoader{sess: anonymous()}, LoginPolicy{Path: "/login", Match: MatchExact}, logr.Discard())
	require.NoError(t, err)

	rec, called := serve(t, g, "/login")
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)

	_, called = serve(t, g, "/login-extra")
	require.False(t, called)
}

func TestGateSubstringIsLoose(t *testing.T) {
	g, err := NewGate(&stubLoader{sess: anonymous()}, LoginPolicy{Path: "/login", Match: MatchSubstring}, logr.Discard())
	require.NoError(t, err)

	for _, p := range []string{"/login", "/user-login-history", "/LOGIN", "/x/Login/y"} {
		_, called := serve(t, g, p)
		require.True(t, called, p)
	}
	_, called := serve(t, g, "/listar-cursos")
	require.False(t, called)
}

func TestGatePassesLoggedSession(t *testing.T) {
	sess := logged()
	g, err := NewGate(&stubLoader{sess: sess}, LoginPolicy{Path: "/login"}, logr.Discard())
	require.NoError(t, err)

	var got *session.Session
	h := g.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/listar-cursos", nil))
	require.Same(t, sess, got)
}

func TestGateWithManager(t *testing.T) {
	codec, err := session.NewCookieCodec(session.CodecConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "cursos",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	store := session.NewMemoryStore()
	manager, err := session.NewManager(store, codec, session.CookieConfig{}, time.Hour)
	require.NoError(t, err)

	g, err := NewGate(manager, LoginPolicy{Path: "/login"}, logr.Discard())
	require.NoError(t, err)

	// Log in through a handler that commits, then reuse the cookie.
	login := g.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		sess.SetLogged("ana@example.com")
		require.NoError(t, manager.Commit(r.Context(), w, r, sess))
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	protected, called := httptest.NewRequest(http.MethodGet, "/listar-cursos", nil), false
	protected.AddCookie(cookies[0])
	g.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).
		ServeHTTP(httptest.NewRecorder(), protected)
	require.True(t, called)

	tampered := httptest.NewRequest(http.MethodGet, "/listar-cursos", nil)
	tampered.AddCookie(&http.Cookie{Name: cookies[0].Name, Value: cookies[0].Value + "x"})
	rec = httptest.NewRecorder()
	g.Wrap(http.NotFoundHandler()).ServeHTTP(rec, tampered)
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestParseMatchMode(t *testing.T) {
	m, err := ParseMatchMode("")
	require.NoError(t, err)
	require.Equal(t, MatchExact, m)

	m, err = ParseMatchMode("Substring")
	require.NoError(t, err)
	require.Equal(t, MatchSubstring, m)
	require.Equal(t, "substring", m.String())

	_, err = ParseMatchMode("prefix")
	require.Error(t, err)
}

func TestNewGateValidates(t *testing.T) {
	_, err := NewGate(nil, LoginPolicy{Path: "/login"}, logr.Discard())
	require.Error(t, err)

	_, err = NewGate(&stubLoader{sess: anonymous()}, LoginPolicy{Path: "login"}, logr.Discard())
	require.Error(t, err)
}
