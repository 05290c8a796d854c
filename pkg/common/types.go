// Package common provides shared types and utilities used across the SDispatch framework.
package common

import (
	"net/http"

	"github.com/Suhaibinator/SDispatch/pkg/codec"
)

// Middleware is a function that inspects a request during dispatch.
// It receives the request and the response factory, and returns a Result telling the
// dispatcher whether to continue with the next middleware, stop the current chain, or
// respond immediately. A returned error is treated as a failure of this middleware only.
type Middleware func(req *http.Request, res ResponseFactory) (Result, error)

// Response is a terminal response produced by a middleware.
// It knows how to write itself to an http.ResponseWriter.
type Response interface {
	// StatusCode returns the HTTP status code of the response.
	StatusCode() int
	// Header returns the header map that will be sent with the response.
	Header() http.Header
	// Write writes the status, headers and body to w.
	Write(w http.ResponseWriter) error
}

// ResponseFactory builds terminal responses. It is handed to every middleware so that
// middleware never depend on a concrete response implementation.
type ResponseFactory interface {
	// New returns a response with the given status and raw body.
	New(status int, body []byte) Response
	// Text returns a text/plain response.
	Text(status int, body string) Response
	// JSON returns a response with v encoded as JSON.
	JSON(status int, v any) (Response, error)
	// Redirect returns a redirect response pointing at location.
	Redirect(status int, location string) Response
	// Encode returns a response with v encoded by enc.
	Encode(status int, enc codec.Encoder, v any) (Response, error)
}

// ResultKind identifies the variant held by a Result.
type ResultKind int

const (
	// KindContinue lets the dispatcher advance to the next middleware in the chain.
	KindContinue ResultKind = iota

	// KindStop ends the current chain. Other matching chains still run.
	KindStop

	// KindRespond ends the whole dispatch with a terminal response.
	KindRespond
)

// String returns the name of the kind.
func (k ResultKind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindStop:
		return "stop"
	case KindRespond:
		return "respond"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single middleware invocation.
// The zero value is Continue.
type Result struct {
	kind     ResultKind
	response Response
}

// Continue returns a Result that lets dispatch proceed with the next middleware.
func Continue() Result {
	return Result{kind: KindContinue}
}

// Stop returns a Result that ends the current chain without a response.
func Stop() Result {
	return Result{kind: KindStop}
}

// Respond returns a Result carrying a terminal response.
// A nil response is treated as Continue.
func Respond(resp Response) Result {
	if resp == nil {
		return Continue()
	}
	return Result{kind: KindRespond, response: resp}
}

// Kind returns the variant of the result.
func (r Result) Kind() ResultKind {
	return r.kind
}

// Response returns the terminal response, or nil if the result is not terminal.
func (r Result) Response() Response {
	return r.response
}

// Terminal reports whether the result carries a response.
func (r Result) Terminal() bool {
	return r.kind == KindRespond && r.response != nil
}
