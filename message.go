// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package picoserve

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Request is the read-only view of an inbound HTTP request
// which is handed to a [Processor].
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	Body       io.Reader
	RemoteAddr string
	Proto      string

	ctx context.Context
}

// Context returns the request context. It carries any trace context
// propagated by the client and is cancelled once the server gives up
// waiting on in-flight requests during shutdown.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with its context changed to ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

// Response is what a [Processor] produces. The server writes it to
// the client exactly once.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse returns a Response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// Text returns a "text/plain" Response.
func Text(status int, body string) *Response {
	resp := NewResponse(status, []byte(body))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

// Status returns a Response whose body is the standard text for the status code.
func Status(status int) *Response {
	return Text(status, http.StatusText(status))
}
