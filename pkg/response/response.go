// Package response provides the default terminal response and response factory used by
// the dispatcher.
package response

import (
	"net/http"

	"github.com/Suhaibinator/SDispatch/pkg/codec"
	"github.com/Suhaibinator/SDispatch/pkg/common"
)

// Response is a buffered HTTP response: status, headers and body.
type Response struct {
	status int
	header http.Header
	body   []byte
}

// New creates a Response with the given status and body.
// A status of 0 is written as 200.
func New(status int, body []byte) *Response {
	return &Response{
		status: status,
		header: make(http.Header),
		body:   body,
	}
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Header returns the response headers. Changes are visible to Write.
func (r *Response) Header() http.Header {
	return r.header
}

// Body returns the buffered body.
func (r *Response) Body() []byte {
	return r.body
}

// Write copies the headers to w, writes the status and then the body.
func (r *Response) Write(w http.ResponseWriter) error {
	dst := w.Header()
	for k, v := range r.header {
		dst[k] = append([]string(nil), v...)
	}
	w.WriteHeader(r.StatusCode())
	if len(r.body) == 0 {
		return nil
	}
	_, err := w.Write(r.body)
	return err
}

// Factory is the default common.ResponseFactory.
type Factory struct {
	json codec.Encoder
}

// Option configures a Factory.
type Option func(*Factory)

// WithJSONEncoder sets the encoder used by Factory.JSON.
func WithJSONEncoder(enc codec.Encoder) Option {
	return func(f *Factory) {
		f.json = enc
	}
}

// NewFactory creates a Factory. JSON bodies use encoding/json unless overridden.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{json: codec.NewJSONCodec()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New returns a response with the given status and raw body.
func (f *Factory) New(status int, body []byte) common.Response {
	return New(status, body)
}

// Text returns a text/plain response.
func (f *Factory) Text(status int, body string) common.Response {
	resp := New(status, []byte(body))
	resp.header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

// JSON returns a response with v encoded by the factory's JSON encoder.
func (f *Factory) JSON(status int, v any) (common.Response, error) {
	return f.Encode(status, f.json, v)
}

// Redirect returns a redirect response to location. A status outside the 3xx range is
// replaced with 307 Temporary Redirect.
func (f *Factory) Redirect(status int, location string) common.Response {
	if status < 300 || status > 399 {
		status = http.StatusTemporaryRedirect
	}
	resp := New(status, nil)
	resp.header.Set("Location", location)
	return resp
}

// Encode returns a response with v encoded by enc.
func (f *Factory) Encode(status int, enc codec.Encoder, v any) (common.Response, error) {
	body, err := enc.Marshal(v)
	if err != nil {
		return nil, err
	}
	resp := New(status, body)
	resp.header.Set("Content-Type", enc.ContentType())
	return resp, nil
}
