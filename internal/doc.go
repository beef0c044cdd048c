// Package internal contains helpers that are private to the cursos module, such as
// secret generation for development servers.
//
// # Sub-packages
//
//   - database: sqlite connection and embedded schema migrations
//   - logging: zap-backed logr construction
//   - rate: Redis-backed login throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public cursos API.
//   - Be imported by any package outside the cursos module.
package internal
