package cursos

import (
	"context"

	"github.com/MrEthical07/cursos/route"
)

type routeContextKey struct{}

// WithRoute attaches the matched route entry to ctx. Dispatch sets it before
// invoking the controller.
func WithRoute(ctx context.Context, e route.Entry) context.Context {
	return context.WithValue(ctx, routeContextKey{}, e)
}

// RouteFromContext returns the route entry being dispatched.
func RouteFromContext(ctx context.Context) (route.Entry, bool) {
	if ctx == nil {
		return route.Entry{}, false
	}
	e, ok := ctx.Value(routeContextKey{}).(route.Entry)
	return e, ok
}
