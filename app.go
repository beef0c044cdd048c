package cursos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/MrEthical07/cursos/middleware"
	"github.com/MrEthical07/cursos/render"
	"github.com/MrEthical07/cursos/route"
	"github.com/MrEthical07/cursos/session"
	"github.com/MrEthical07/cursos/web"
)

// App is the front controller. Every request passes the session gate, is
// dispatched through the route table to a freshly built controller, and the
// resulting [web.Response] is written once the session has been committed.
//
// App is safe for concurrent use after [Builder.Build].
type App struct {
	config   Config
	table    *route.Table
	deps     web.Deps
	sessions *session.Manager
	gate     *middleware.Gate
	metrics  *Metrics
	logger   logr.Logger
	handler  http.Handler
}

// Dispatch resolves req.URL.Path and runs its controller. Unknown paths yield a
// 404 response without building any controller.
func (a *App) Dispatch(ctx context.Context, req *web.Request) (*web.Response, error) {
	if req == nil || req.Request == nil {
		return nil, errors.New("nil request")
	}
	if req.Session == nil {
		return nil, ErrNoSession
	}
	a.metrics.Inc(MetricDispatch)

	entry, ok := a.table.Lookup(req.URL.Path)
	if !ok {
		a.metrics.Inc(MetricNotFound)
		return web.NotFound(), nil
	}

	start := time.Now()
	defer func() { a.metrics.Observe(MetricDispatchLatency, time.Since(start)) }()

	controller := entry.Factory(a.deps)
	if controller == nil {
		return nil, fmt.Errorf("%w: %s built no controller", ErrRouteTable, entry.Name)
	}

	res, err := controller.Handle(WithRoute(ctx, entry), req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Name, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%s returned no response", entry.Name)
	}
	return res, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Handler returns the gate-wrapped front controller.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Routes returns the registered paths in sorted order.
func (a *App) Routes() []string {
	return a.table.Paths()
}

// Config returns the configuration the app was built with.
func (a *App) Config() Config {
	return a.config
}

// SessionStore returns the store sessions are persisted in.
func (a *App) SessionStore() session.Store {
	return a.sessions.Store()
}

// MetricsSnapshot returns a copy of the current counters and histograms.
func (a *App) MetricsSnapshot() MetricsSnapshot {
	if a == nil || a.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return a.metrics.Snapshot()
}

// serve runs behind the gate, so the session is always in the context.
func (a *App) serve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	sess, ok := middleware.SessionFromContext(ctx)
	if !ok {
		a.logger.Error(ErrNoSession, "Request reached dispatch ungated", "path", r.URL.Path)
		_ = web.InternalError().Write(w)
		return
	}

	res, err := a.Dispatch(ctx, web.NewRequest(r, sess))
	if err != nil {
		a.metrics.Inc(MetricControllerFailure)
		if errors.Is(err, render.ErrRender) || errors.Is(err, render.ErrTemplateNotFound) {
			a.metrics.Inc(MetricRenderFailure)
		}
		a.logger.Error(err, "Controller failed", "path", r.URL.Path)
		res = web.InternalError()
	}

	if err := a.sessions.Commit(ctx, w, r, sess); err != nil {
		a.metrics.Inc(MetricSessionCommitFailure)
		a.logger.Error(err, "Failed to commit session", "path", r.URL.Path)
		res = web.InternalError()
	}

	if err := res.Write(w); err != nil {
		a.logger.V(1).Info("Failed to write response", "path", r.URL.Path, "error", err.Error())
	}

	a.logger.V(1).Info("Served request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", res.Status,
		"latency", time.Since(start),
	)
}

type metricsRecorder struct {
	metrics *Metrics
}

func (m metricsRecorder) Record(e web.Event) {
	switch e {
	case web.EventLoginSuccess:
		m.metrics.Inc(MetricLoginSuccess)
	case web.EventLoginFailure:
		m.metrics.Inc(MetricLoginFailure)
	case web.EventLoginRateLimited:
		m.metrics.Inc(MetricLoginRateLimited)
	case web.EventLogout:
		m.metrics.Inc(MetricLogout)
	case web.EventCourseSaved:
		m.metrics.Inc(MetricCourseSaved)
	case web.EventCourseRemoved:
		m.metrics.Inc(MetricCourseRemoved)
	}
}
