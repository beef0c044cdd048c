package cursos

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/cursos/account"
	"github.com/MrEthical07/cursos/course"
	"github.com/MrEthical07/cursos/internal/rate"
	"github.com/MrEthical07/cursos/middleware"
	"github.com/MrEthical07/cursos/password"
	"github.com/MrEthical07/cursos/render"
	"github.com/MrEthical07/cursos/route"
	"github.com/MrEthical07/cursos/session"
	"github.com/MrEthical07/cursos/web"
)

// Builder assembles an [App]. It is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessionStore session.Store
	courses      course.Repository
	users        account.Store
	renderer     web.Renderer
	logger       logr.Logger
	routes       []route.Entry

	built bool
}

// New returns a builder starting from [DefaultConfig] and [DefaultRoutes].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: logr.Discard(),
		routes: DefaultRoutes(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole configuration; callers usually start from [DefaultConfig].
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the client used by the Redis session store and the login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the store selected by Config.Session.Store.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithCourses sets the course repository.
func (b *Builder) WithCourses(repo course.Repository) *Builder {
	b.courses = repo
	return b
}

// WithUsers sets the user store consulted at login.
func (b *Builder) WithUsers(users account.Store) *Builder {
	b.users = users
	return b
}

// WithRenderer overrides the templates parsed from render.DefaultFS.
func (b *Builder) WithRenderer(r web.Renderer) *Builder {
	b.renderer = r
	return b
}

// WithLogger sets the application logger.
func (b *Builder) WithLogger(logger logr.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRoutes replaces the route set.
func (b *Builder) WithRoutes(entries ...route.Entry) *Builder {
	b.routes = entries
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms enables the dispatch latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every collaborator and returns the
// application. A misconfigured route table is reported here, never at request time.
func (b *Builder) Build() (*App, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.courses == nil {
		return nil, fmt.Errorf("%w: course repository", ErrMissingDependency)
	}
	if b.users == nil {
		return nil, fmt.Errorf("%w: user store", ErrMissingDependency)
	}

	// -------- ROUTES --------
	table, err := route.New(b.routes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRouteTable, err)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: no routes", ErrRouteTable)
	}
	if _, ok := table.Lookup(cfg.Gate.LoginPath); !ok {
		return nil, fmt.Errorf("%w: login path %s has no route", ErrRouteTable, cfg.Gate.LoginPath)
	}

	// -------- SESSIONS --------
	store := b.sessionStore
	if store == nil {
		switch cfg.Session.Store {
		case StoreMemory:
			store = session.NewMemoryStore()
		default:
			if b.redis == nil {
				return nil, ErrRedisRequired
			}
			store = session.NewRedisStore(b.redis, session.RedisOptions{
				Prefix:        cfg.Session.RedisPrefix,
				Sliding:       cfg.Session.SlidingExpiration,
				Lifetime:      cfg.Session.Lifetime,
				JitterEnabled: cfg.Session.JitterEnabled,
				JitterRange:   cfg.Session.JitterRange,
			})
		}
	}

	codec, err := session.NewCookieCodec(session.CodecConfig{
		Secret: []byte(cfg.Session.Secret),
		Issuer: cfg.Session.Issuer,
		TTL:    cfg.Session.Lifetime,
	})
	if err != nil {
		return nil, err
	}

	sameSite, err := parseSameSite(cfg.Session.CookieSameSite)
	if err != nil {
		return nil, err
	}
	manager, err := session.NewManager(store, codec, session.CookieConfig{
		Name:     cfg.Session.CookieName,
		Path:     "/",
		Secure:   cfg.Session.CookieSecure,
		HTTPOnly: true,
		SameSite: sameSite,
	}, cfg.Session.Lifetime)
	if err != nil {
		return nil, err
	}

	// -------- CONTROLLER DEPENDENCIES --------
	renderer := b.renderer
	if renderer == nil {
		r, err := render.New(render.DefaultFS, b.logger.WithName("render"))
		if err != nil {
			return nil, err
		}
		renderer = r
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics(cfg.Metrics)

	deps := web.Deps{
		Courses:   b.courses,
		Users:     b.users,
		Renderer:  renderer,
		Passwords: hasher,
		Recorder:  metricsRecorder{metrics: metrics},
		Logger:    b.logger.WithName("web"),
	}

	if cfg.LoginThrottle.Enabled {
		if b.redis == nil {
			return nil, fmt.Errorf("%w: login throttle", ErrRedisRequired)
		}
		limiter, err := rate.New(b.redis, rate.Config{
			MaxAttempts:      cfg.LoginThrottle.MaxAttempts,
			Cooldown:         cfg.LoginThrottle.Cooldown,
			EnableIPThrottle: cfg.LoginThrottle.EnableIPThrottle,
		})
		if err != nil {
			return nil, err
		}
		deps.Limiter = limiter
	}

	if err := deps.Validate(); err != nil {
		return nil, errors.Join(ErrMissingDependency, err)
	}

	// -------- GATE --------
	match, err := middleware.ParseMatchMode(cfg.Gate.LoginMatch)
	if err != nil {
		return nil, err
	}
	gate, err := middleware.NewGate(manager,
		middleware.LoginPolicy{Path: cfg.Gate.LoginPath, Match: match},
		b.logger.WithName("gate"),
		middleware.WithRedirectHook(func(_ *http.Request) { metrics.Inc(MetricGateRedirect) }),
	)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:   cfg,
		table:    table,
		deps:     deps,
		sessions: manager,
		gate:     gate,
		metrics:  metrics,
		logger:   b.logger,
	}
	app.handler = gate.Wrap(http.HandlerFunc(app.serve))

	b.logger.V(1).Info("Application built",
		"routes", table.Paths(),
		"sessionStore", cfg.Session.Store,
		"loginMatch", match.String(),
		"loginThrottle", cfg.LoginThrottle.Enabled,
	)

	b.built = true
	return app, nil
}
