package cursos

import "errors"

var (
	// ErrBuilderUsed is returned by a second call to Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrRedisRequired is returned when the configuration needs Redis and no client was given.
	ErrRedisRequired = errors.New("redis client required")
	// ErrMissingDependency is returned when a required collaborator was not provided.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrRouteTable wraps route table misconfiguration found at build time.
	ErrRouteTable = errors.New("invalid route table")
	// ErrNoSession is returned when a request reaches dispatch without a gated session.
	ErrNoSession = errors.New("request has no session")
)
