// Package rate throttles failed login attempts with Redis fixed-window counters.
//
// Each failed attempt runs INCR and, on the first hit of a window, EXPIRE. Keys:
//   - cl:  failed logins per e-mail
//   - cli: failed logins per client IP
package rate
