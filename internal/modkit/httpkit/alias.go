// Package httpkit is the HTTP surface modules build against. Modules import
// it instead of internal/platform/net/http
package httpkit

import (
	"net/http"

	phttp "alertctl/internal/platform/net/http"
	"alertctl/internal/platform/net/http/bind"
)

type (
	// Envelope is the body of every JSON reply
	Envelope = phttp.Envelope

	// Response is what return style handlers produce
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response whose status comes from the error kind
func Error(err error) Response { return phttp.Error(err) }

// Handle adapts a Response returning func
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }

// Call adapts a (value, error) handler. A returned Response is written as is,
// any other value is wrapped with OK
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}

// Text is Call with the raw request body, for YAML documents
func Text(fn func(*http.Request, string) (any, error)) Handler {
	return Call(func(r *http.Request) (any, error) {
		body, err := bind.Text(r, 0)
		if err != nil {
			return nil, err
		}
		return fn(r, body)
	})
}
