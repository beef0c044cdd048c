package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	cursos "github.com/MrEthical07/cursos"
	"github.com/MrEthical07/cursos/account"
	"github.com/MrEthical07/cursos/course"
	"github.com/MrEthical07/cursos/internal"
	"github.com/MrEthical07/cursos/internal/database"
	"github.com/MrEthical07/cursos/internal/logging"
	"github.com/MrEthical07/cursos/metrics/export/prometheus"
)

func newServeCmd(load func() (cursos.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(logr.NewContext(ctx, logger), cfg)
		},
	}
}

func serve(ctx context.Context, cfg cursos.Config) error {
	logger := logr.FromContextOrDiscard(ctx)

	if cfg.Session.Secret == "" {
		secret, err := internal.NewSecret(internal.MinSecretSize)
		if err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Session.Secret = secret
		logger.Info("No session secret configured; generated one for this process. Sessions will not survive a restart.")
	}

	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	builder := cursos.New().
		WithConfig(cfg).
		WithCourses(course.NewSQLRepository(db)).
		WithUsers(account.NewSQLStore(db)).
		WithLogger(logger)

	if cfg.Session.Store == cursos.StoreRedis || cfg.LoginThrottle.Enabled {
		client, closeRedis, err := openRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer closeRedis()
		builder.WithRedis(client)
	}

	app, err := builder.Build()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		var opts []prometheus.Option
		if counter, ok := app.SessionStore().(prometheus.SessionCounter); ok {
			opts = append(opts, prometheus.WithSessionCounter(counter))
		}
		mux.Handle(cfg.Metrics.Path, prometheus.NewPrometheusExporter(app, opts...).Handler())
	}
	if cfg.Server.HealthPath != "" {
		mux.Handle(cfg.Server.HealthPath, healthHandler(app.SessionStore(), logger.WithName("health")))
	}
	mux.Handle("/", app)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.Server.Addr, "routes", app.Routes())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRedis connects to cfg.Addr, or to an in-process miniredis when cfg.Embedded is set.
func openRedis(ctx context.Context, cfg cursos.RedisConfig, logger logr.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Addr
	var embedded *miniredis.Miniredis
	if cfg.Embedded {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		embedded = mr
		addr = mr.Addr()
		logger.Info("Using embedded redis; sessions are lost on exit", "addr", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	closeFn := func() {
		_ = client.Close()
		if embedded != nil {
			embedded.Close()
		}
	}

	if err := client.Ping(ctx).Err(); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, closeFn, nil
}
