package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/cursos/account"
	"github.com/MrEthical07/cursos/course"
	"github.com/MrEthical07/cursos/flash"
	"github.com/MrEthical07/cursos/internal/rate"
	"github.com/MrEthical07/cursos/password"
	"github.com/MrEthical07/cursos/render"
	"github.com/MrEthical07/cursos/session"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "correct-horse"
)

type countingRecorder struct {
	events map[Event]int
}

func (r *countingRecorder) Record(e Event) {
	if r.events == nil {
		r.events = make(map[Event]int)
	}
	r.events[e]++
}

type fixture struct {
	deps     Deps
	courses  *course.MemoryRepository
	users    *account.MemoryStore
	limiter  *rate.Limiter
	recorder *countingRecorder
}

func newFixture(t *testing.T, seed ...course.Course) *fixture {
	t.Helper()

	renderer, err := render.New(render.DefaultFS, logr.Discard())
	require.NoError(t, err)

	hasher, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
		MinLength:   8,
	})
	require.NoError(t, err)

	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	users := account.NewMemoryStore()
	require.NoError(t, users.Create(context.Background(), &account.User{Email: testEmail, PasswordHash: hash}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	limiter, err := rate.New(rdb, rate.Config{MaxAttempts: 3, Cooldown: time.Minute})
	require.NoError(t, err)

	courses := course.NewMemoryRepository(seed...)
	recorder := &countingRecorder{}
	return &fixture{
		deps: Deps{
			Courses:   courses,
			Users:     users,
			Renderer:  renderer,
			Passwords: hasher,
			Limiter:   limiter,
			Recorder:  recorder,
			Logger:    logr.Discard(),
		},
		courses:  courses,
		users:    users,
		limiter:  limiter,
		recorder: recorder,
	}
}

func newSession() *session.Session {
	return session.New("b5b0e7a4-1f5c-4a5e-9a57-0d0c3f3b8a11", time.Hour)
}

func get(target string, sess *session.Session) *Request {
	return NewRequest(httptest.NewRequest(http.MethodGet, target, nil), sess)
}

func post(target string, form url.Values, sess *session.Session) *Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return NewRequest(r, sess)
}

func TestQueryInt(t *testing.T) {
	cases := []struct {
		target string
		want   int64
		ok     bool
	}{
		{"/x?id=42", 42, true},
		{"/x?id=-3", -3, true},
		{"/x?id=abc", 0, false},
		{"/x?id=", 0, false},
		{"/x?id=4.2", 0, false},
		{"/x", 0, false},
	}
	for _, tc := range cases {
		got, ok := get(tc.target, newSession()).QueryInt("id")
		require.Equal(t, tc.ok, ok, tc.target)
		require.Equal(t, tc.want, got, tc.target)
	}
}

func TestMethodSwitch(t *testing.T) {
	hit := ""
	ms := MethodSwitch{
		http.MethodGet: ControllerFunc(func(context.Context, *Request) (*Response, error) {
			hit = "get"
			return HTML("ok"), nil
		}),
		http.MethodPost: ControllerFunc(func(context.Context, *Request) (*Response, error) {
			hit = "post"
			return Redirect("/"), nil
		}),
	}

	res, err := ms.Handle(context.Background(), NewRequest(httptest.NewRequest(http.MethodHead, "/login", nil), newSession()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "get", hit)

	res, err = ms.Handle(context.Background(), NewRequest(httptest.NewRequest(http.MethodDelete, "/login", nil), newSession()))
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, res.Status)
	require.Equal(t, "GET, POST", res.Header.Get("Allow"))
}

func TestListConsumesFlash(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})
	sess := newSession()
	flash.Set(sess, flash.Success, "Curso inserido com sucesso")

	res, err := NewList(f.deps).Handle(context.Background(), get(PathList, sess))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)

	body := string(res.Body)
	require.Contains(t, body, "Lista de Cursos")
	require.Contains(t, body, "Curso A")
	require.Contains(t, body, "Curso inserido com sucesso")

	_, pending := flash.Peek(sess)
	require.False(t, pending)
}

func TestNewFormIsEmpty(t *testing.T) {
	f := newFixture(t)

	res, err := NewNewForm(f.deps).Handle(context.Background(), get(PathNew, newSession()))
	require.NoError(t, err)
	require.Contains(t, string(res.Body), "<title>Novo curso</title>")
	require.Contains(t, string(res.Body), `value=""`)
}

func TestEditFormRedirectsOnBadID(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})

	for _, target := range []string{"/alterar-curso?id=abc", "/alterar-curso", "/alterar-curso?id=99"} {
		res, err := NewEditForm(f.deps).Handle(context.Background(), get(target, newSession()))
		require.NoError(t, err, target)
		require.Equal(t, http.StatusFound, res.Status, target)
		require.Equal(t, PathList, res.Location(), target)
	}
}

func TestEditFormPrefillsDescription(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})

	res, err := NewEditForm(f.deps).Handle(context.Background(), get("/alterar-curso?id=1", newSession()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Contains(t, string(res.Body), `value="Curso A"`)
	require.Contains(t, string(res.Body), "Alterar curso Curso A")
}

func TestPersistInsertsAndUpdates(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})
	ctx := context.Background()

	sess := newSession()
	res, err := NewPersist(f.deps).Handle(ctx, post(PathSave, url.Values{"descricao": {" Curso B "}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	msg, ok := flash.Peek(sess)
	require.True(t, ok)
	require.Equal(t, flash.Message{Kind: flash.Success, Text: "Curso inserido com sucesso"}, msg)

	all, err := f.courses.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Curso B", all[1].Description)

	sess = newSession()
	res, err = NewPersist(f.deps).Handle(ctx, post("/salvar-curso?id=1", url.Values{"descricao": {"Curso A2"}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	msg, _ = flash.Peek(sess)
	require.Equal(t, "Curso atualizado com sucesso", msg.Text)

	updated, err := f.courses.Find(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Curso A2", updated.Description)
	require.Equal(t, 2, f.recorder.events[EventCourseSaved])
}

func TestPersistRejectsEmptyDescription(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})

	sess := newSession()
	res, err := NewPersist(f.deps).Handle(context.Background(), post("/salvar-curso?id=1", url.Values{"descricao": {"   "}}, sess))
	require.NoError(t, err)
	require.Equal(t, "/alterar-curso?id=1", res.Location())
	msg, _ := flash.Peek(sess)
	require.Equal(t, flash.Danger, msg.Kind)

	res, err = NewPersist(f.deps).Handle(context.Background(), post(PathSave, url.Values{}, newSession()))
	require.NoError(t, err)
	require.Equal(t, PathNew, res.Location())
}

func TestPersistUnknownIDFlashesDanger(t *testing.T) {
	f := newFixture(t)

	sess := newSession()
	res, err := NewPersist(f.deps).Handle(context.Background(), post("/salvar-curso?id=7", url.Values{"descricao": {"X"}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	msg, _ := flash.Peek(sess)
	require.Equal(t, flash.Message{Kind: flash.Danger, Text: "Curso inexistente"}, msg)
}

func TestPersistNonPositiveIDDoesNotInsert(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})
	ctx := context.Background()

	for _, id := range []string{"0", "-3"} {
		sess := newSession()
		res, err := NewPersist(f.deps).Handle(ctx, post("/salvar-curso?id="+id, url.Values{"descricao": {"X"}}, sess))
		require.NoError(t, err)
		require.Equal(t, PathList, res.Location())
		msg, _ := flash.Peek(sess)
		require.Equal(t, flash.Message{Kind: flash.Danger, Text: "Curso inexistente"}, msg)
	}

	all, err := f.courses.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []course.Course{{ID: 1, Description: "Curso A"}}, all)
	require.Zero(t, f.recorder.events[EventCourseSaved])
}

func TestRemove(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})
	ctx := context.Background()

	sess := newSession()
	res, err := NewRemove(f.deps).Handle(ctx, get("/excluir-curso?id=abc", sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	msg, _ := flash.Peek(sess)
	require.Equal(t, flash.Message{Kind: flash.Danger, Text: "Curso inexistente"}, msg)

	sess = newSession()
	res, err = NewRemove(f.deps).Handle(ctx, get("/excluir-curso?id=1", sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	msg, _ = flash.Peek(sess)
	require.Equal(t, flash.Message{Kind: flash.Success, Text: "Curso removido com sucesso"}, msg)

	_, err = f.courses.Find(ctx, 1)
	require.ErrorIs(t, err, course.ErrNotFound)
}

func TestXMLExport(t *testing.T) {
	f := newFixture(t,
		course.Course{ID: 1, Description: "Curso A"},
		course.Course{ID: 2, Description: "Curso B"},
	)

	res, err := NewXMLExport(f.deps).Handle(context.Background(), get(PathXML, newSession()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "application/xml", res.Header.Get("Content-Type"))
	require.Equal(t,
		"<cursos><curso><id>1</id><descricao>Curso A</descricao></curso><curso><id>2</id><descricao>Curso B</descricao></curso></cursos>",
		string(res.Body))
}

func TestJSONExport(t *testing.T) {
	f := newFixture(t, course.Course{ID: 1, Description: "Curso A"})

	res, err := NewJSONExport(f.deps).Handle(context.Background(), get(PathJSON, newSession()))
	require.NoError(t, err)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.JSONEq(t, `[{"id":1,"descricao":"Curso A"}]`, string(res.Body))

	empty := newFixture(t)
	res, err = NewJSONExport(empty.deps).Handle(context.Background(), get(PathJSON, newSession()))
	require.NoError(t, err)
	require.Equal(t, "[]", string(res.Body))
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	f := newFixture(t)

	for _, email := range []string{"", "ana", "Ana <ana@example.com>", "ana@localhost"} {
		sess := newSession()
		res, err := NewLoginProcess(f.deps).Handle(context.Background(), post(PathLogin, url.Values{"email": {email}, "senha": {testPassword}}, sess))
		require.NoError(t, err, email)
		require.Equal(t, PathLogin, res.Location(), email)
		msg, _ := flash.Peek(sess)
		require.Equal(t, "O e-mail digitado não é um e-mail válido", msg.Text, email)
		require.False(t, sess.Logged(), email)
	}
}

func TestLoginWrongPasswordCountsAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := newSession()
	res, err := NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {testEmail}, "senha": {"wrong-password"}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathLogin, res.Location())
	require.False(t, sess.Logged())
	msg, _ := flash.Peek(sess)
	require.Equal(t, flash.Message{Kind: flash.Danger, Text: "E-mail ou senha inválidos"}, msg)

	attempts, err := f.limiter.Attempts(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, f.recorder.events[EventLoginFailure])
}

func TestLoginThrottled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {testEmail}, "senha": {"wrong-password"}}, newSession()))
		require.NoError(t, err)
	}

	sess := newSession()
	res, err := NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {testEmail}, "senha": {testPassword}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathLogin, res.Location())
	require.False(t, sess.Logged())
	require.Equal(t, 1, f.recorder.events[EventLoginRateLimited])
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {testEmail}, "senha": {"wrong-password"}}, newSession()))
	require.NoError(t, err)

	sess := newSession()
	before := sess.ID
	res, err := NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {"Ana@Example.com"}, "senha": {testPassword}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	require.True(t, sess.Logged())
	require.Equal(t, testEmail, sess.User())
	require.NotEqual(t, before, sess.ID)

	attempts, err := f.limiter.Attempts(ctx, testEmail)
	require.NoError(t, err)
	require.Zero(t, attempts)
	require.Equal(t, 1, f.recorder.events[EventLoginSuccess])
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored, err := f.users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)

	stronger, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
		MinLength:   8,
	})
	require.NoError(t, err)
	f.deps.Passwords = stronger

	sess := newSession()
	res, err := NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {testEmail}, "senha": {testPassword}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	require.True(t, sess.Logged())

	upgraded, err := f.users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)
	require.NotEqual(t, stored.PasswordHash, upgraded.PasswordHash)
	needs, err := stronger.NeedsRehash(upgraded.PasswordHash)
	require.NoError(t, err)
	require.False(t, needs)
	ok, err := stronger.Verify(testPassword, upgraded.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoginKeepsCurrentHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored, err := f.users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)

	_, err = NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {testEmail}, "senha": {testPassword}}, newSession()))
	require.NoError(t, err)

	after, err := f.users.FindByEmail(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, stored.PasswordHash, after.PasswordHash)
}

func TestLoginRejectedLogsAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var lines []string
	f.deps.Logger = funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	for i := 0; i < 2; i++ {
		_, err := NewLoginProcess(f.deps).Handle(ctx, post(PathLogin, url.Values{"email": {testEmail}, "senha": {"wrong-password"}}, newSession()))
		require.NoError(t, err)
	}

	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"msg"="Rejected login"`)
	require.Contains(t, lines[0], `"attempts"=1`)
	require.Contains(t, lines[1], `"attempts"=2`)
}

func TestLoginWithoutLimiter(t *testing.T) {
	f := newFixture(t)
	f.deps.Limiter = nil

	sess := newSession()
	res, err := NewLoginProcess(f.deps).Handle(context.Background(), post(PathLogin, url.Values{"email": {testEmail}, "senha": {testPassword}}, sess))
	require.NoError(t, err)
	require.Equal(t, PathList, res.Location())
	require.True(t, sess.Logged())
}

func TestLoginForm(t *testing.T) {
	f := newFixture(t)

	res, err := NewLoginForm(f.deps).Handle(context.Background(), get(PathLogin, newSession()))
	require.NoError(t, err)
	require.Contains(t, string(res.Body), "<title>Login</title>")
	require.Contains(t, string(res.Body), `name="senha"`)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	sess := newSession()
	sess.SetLogged(testEmail)

	res, err := NewLogout(f.deps).Handle(context.Background(), get(PathLogout, sess))
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, res.Status)
	require.Equal(t, PathLogin, res.Location())
	require.False(t, sess.Logged())
	require.True(t, sess.Destroyed())
	require.Equal(t, 1, f.recorder.events[EventLogout])
}

func TestRenderFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.deps.Renderer = failingRenderer{}
	sess := newSession()
	flash.Set(sess, flash.Success, "kept")

	res, err := NewList(f.deps).Handle(context.Background(), get(PathList, sess))
	require.ErrorIs(t, err, render.ErrRender)
	require.Nil(t, res)

	_, pending := flash.Peek(sess)
	require.True(t, pending)
}

type failingRenderer struct{}

func (failingRenderer) Render(string, any) (string, error) { return "", render.ErrRender }

func TestDepsValidate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deps.Validate())

	d := f.deps
	d.Users = nil
	require.Error(t, d.Validate())
}
