// Package middleware provides dispatch middleware for common request-time concerns.
package middleware

import (
	"context"
	"net/http"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/google/uuid"
)

// TraceIDHeader is the header used to propagate an incoming trace ID.
const TraceIDHeader = "X-Trace-ID"

type traceIDKey struct{}

// TraceIDKey is the State key holding the request's trace ID.
var TraceIDKey = traceIDKey{}

// TraceMiddleware creates a middleware that assigns a trace ID to each request and stores
// it in the request State. An existing ID (set earlier, or sent in X-Trace-ID) is kept.
func TraceMiddleware() common.Middleware {
	return func(r *http.Request, _ common.ResponseFactory) (common.Result, error) {
		state := common.RequestState(r)
		if state == nil {
			return common.Continue(), nil
		}
		if _, ok := state.Get(TraceIDKey); ok {
			return common.Continue(), nil
		}

		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		state.Set(TraceIDKey, traceID)
		return common.Continue(), nil
	}
}

// SetTraceID stores traceID in the request State. It does nothing when r has no State.
func SetTraceID(r *http.Request, traceID string) {
	if state := common.RequestState(r); state != nil {
		state.Set(TraceIDKey, traceID)
	}
}

// GetTraceID extracts the trace ID from the request State.
// Returns an empty string if no trace ID is found.
func GetTraceID(r *http.Request) string {
	return GetTraceIDFromContext(r.Context())
}

// GetTraceIDFromContext extracts the trace ID from a context carrying a State.
func GetTraceIDFromContext(ctx context.Context) string {
	state := common.StateFrom(ctx)
	if state == nil {
		return ""
	}
	v, _ := state.Get(TraceIDKey)
	traceID, _ := v.(string)
	return traceID
}
