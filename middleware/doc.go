// Package middleware holds the session gate placed in front of the front controller.
//
// The gate opens the session of every request through a [SessionLoader] and sends
// clients without the logged flag to the login path with a 302. Dispatch never
// starts for those requests. Sessions that pass are attached to the request
// context for [SessionFromContext].
//
// Which paths stay reachable anonymously is set by [LoginPolicy]: only the login
// path itself by default, or any path containing it with [MatchSubstring].
//
// # What this package must NOT do
//
//   - Build controllers or dispatch requests.
//   - Write session changes back to the store; the front controller commits them.
package middleware
