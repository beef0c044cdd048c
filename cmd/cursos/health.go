package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/MrEthical07/cursos/session"
)

type pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// healthHandler answers 200 when the session store is reachable and 503 otherwise.
// Stores without a Ping method are always healthy.
func healthHandler(store session.Store, logger logr.Logger) http.Handler {
	p, _ := store.(pinger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if p != nil {
			latency, err := p.Ping(r.Context())
			if err != nil {
				logger.Error(err, "Session store health check failed", "latency", latency)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable\n"))
				return
			}
			logger.V(2).Info("Session store reachable", "latency", latency)
		}
		_, _ = w.Write([]byte("ok\n"))
	})
}
