package web

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/cursos/session"
)

// Request is the input handed to a [Controller]: the HTTP request together with
// the session opened for it by the gate.
type Request struct {
	*http.Request
	Session *session.Session
}

// NewRequest pairs r with sess.
func NewRequest(r *http.Request, sess *session.Session) *Request {
	return &Request{Request: r, Session: sess}
}

// QueryInt parses the query parameter name as a base-10 integer. Missing, empty
// and non-numeric values report false.
func (r *Request) QueryInt(name string) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ClientIP returns the host part of RemoteAddr.
func (r *Request) ClientIP() string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
