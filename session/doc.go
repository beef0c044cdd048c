// Package session provides the per-client key/value session used by the session gate,
// the controllers and the flash message store.
//
// # Storage
//
// Sessions are persisted through the [Store] interface. [RedisStore] keeps a compact
// binary blob per session in Redis with sliding expiration; [MemoryStore] keeps sessions
// in process and is used by tests and single-process development servers.
//
// # Transport
//
// The session ID travels in a cookie as an HS256-signed token produced by [CookieCodec].
// A token that fails signature, issuer or expiry checks is treated as "no session".
//
// # What this package must NOT do
//
//   - Decide which paths require authentication (the gate does that).
//   - Read or write HTTP response bodies.
//   - Hold process-wide mutable state; every request receives its own [Session].
package session
