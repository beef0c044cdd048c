package web

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeXML  = "application/xml"
	contentTypeJSON = "application/json"
)

// Response is the value every controller returns. Nothing reaches the client
// until the front controller writes it.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func newResponse(status int, contentType string, body []byte) *Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{Status: status, Header: h, Body: body}
}

// HTML returns a 200 response carrying rendered markup.
func HTML(body string) *Response {
	return newResponse(http.StatusOK, contentTypeHTML, []byte(body))
}

// XML returns a 200 application/xml response.
func XML(body []byte) *Response {
	return newResponse(http.StatusOK, contentTypeXML, body)
}

// JSON returns a 200 application/json response.
func JSON(body []byte) *Response {
	return newResponse(http.StatusOK, contentTypeJSON, body)
}

// Redirect returns a 302 to location.
func Redirect(location string) *Response {
	r := newResponse(http.StatusFound, "", nil)
	r.Header.Set("Location", location)
	return r
}

// NotFound returns an empty 404.
func NotFound() *Response {
	return newResponse(http.StatusNotFound, "", nil)
}

// MethodNotAllowed returns a 405 listing the allowed methods.
func MethodNotAllowed(allowed ...string) *Response {
	r := newResponse(http.StatusMethodNotAllowed, "", nil)
	if len(allowed) > 0 {
		r.Header.Set("Allow", strings.Join(allowed, ", "))
	}
	return r
}

// InternalError returns the generic 500 page. It carries no error detail.
func InternalError() *Response {
	return newResponse(http.StatusInternalServerError, contentTypeHTML,
		[]byte("<!DOCTYPE html><title>Erro</title><p>Ocorreu um erro interno.</p>"))
}

// Location returns the redirect target, if any.
func (r *Response) Location() string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header.Get("Location")
}

// Write copies the response onto w.
func (r *Response) Write(w http.ResponseWriter) error {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if len(r.Body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
