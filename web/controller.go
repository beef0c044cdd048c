// Package web defines the controller contract and the course catalog controllers.
//
// Every controller returns a [Response] value; none of them touch the
// http.ResponseWriter. Controllers are built per request from [Deps] and keep no
// state of their own between requests.
package web

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/go-logr/logr"

	"github.com/MrEthical07/cursos/account"
	"github.com/MrEthical07/cursos/course"
)

// Controller handles one dispatched request.
type Controller interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// ControllerFunc adapts a function to [Controller].
type ControllerFunc func(ctx context.Context, req *Request) (*Response, error)

// Handle calls f.
func (f ControllerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// MethodSwitch dispatches on the request method. Methods without an entry get 405.
// GET entries also serve HEAD.
type MethodSwitch map[string]Controller

// Handle implements [Controller].
func (m MethodSwitch) Handle(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	c, ok := m[method]
	if !ok && method == http.MethodHead {
		c, ok = m[http.MethodGet]
	}
	if !ok || c == nil {
		allowed := make([]string, 0, len(m))
		for k := range m {
			allowed = append(allowed, k)
		}
		sort.Strings(allowed)
		return MethodNotAllowed(allowed...), nil
	}
	return c.Handle(ctx, req)
}

// Renderer produces page markup.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(plain, encoded string) (bool, error)
}

// PasswordRehasher is implemented by verifiers that can upgrade hashes produced
// with older parameters. It is optional.
type PasswordRehasher interface {
	NeedsRehash(encoded string) (bool, error)
	Hash(plain string) (string, error)
}

// AttemptCounter reports failed attempts in the current window. It is optional.
type AttemptCounter interface {
	Attempts(ctx context.Context, identifier string) (int, error)
}

// LoginLimiter throttles failed login attempts.
type LoginLimiter interface {
	CheckLogin(ctx context.Context, identifier, ip string) error
	IncrementLogin(ctx context.Context, identifier, ip string) error
	ResetLogin(ctx context.Context, identifier string) error
}

// Event is a countable controller outcome.
type Event uint8

const (
	EventLoginSuccess Event = iota
	EventLoginFailure
	EventLoginRateLimited
	EventLogout
	EventCourseSaved
	EventCourseRemoved
)

// Recorder receives controller events.
type Recorder interface {
	Record(Event)
}

// Deps holds the collaborators shared by every controller.
type Deps struct {
	Courses   course.Repository
	Users     account.Store
	Renderer  Renderer
	Passwords PasswordVerifier
	// Limiter is optional; a nil limiter disables login throttling.
	Limiter LoginLimiter
	// Recorder is optional.
	Recorder Recorder
	Logger   logr.Logger
}

// Validate reports the first missing required collaborator.
func (d Deps) Validate() error {
	switch {
	case d.Courses == nil:
		return errors.New("course repository is required")
	case d.Users == nil:
		return errors.New("user store is required")
	case d.Renderer == nil:
		return errors.New("renderer is required")
	case d.Passwords == nil:
		return errors.New("password verifier is required")
	}
	return nil
}

func (d Deps) record(e Event) {
	if d.Recorder != nil {
		d.Recorder.Record(e)
	}
}
