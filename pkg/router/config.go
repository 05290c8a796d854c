// Package router provides an http.Handler that runs a dispatcher in front of an
// httprouter route table.
//
// Every request first goes through the dispatcher. A terminal response from a middleware
// chain is written directly; otherwise the request falls through to the registered routes.
package router

import (
	"net/http"
	"time"

	"github.com/Suhaibinator/SDispatch/pkg/codec"
	"github.com/Suhaibinator/SDispatch/pkg/metrics"
	"github.com/Suhaibinator/SDispatch/pkg/middleware"
	"go.uber.org/zap"
)

// RouterConfig defines the global configuration for the router.
type RouterConfig struct {
	Logger        *zap.Logger          // Logger for all router operations
	GlobalTimeout time.Duration        // Request deadline applied to dispatch and handlers; 0 disables
	IPConfig      *middleware.IPConfig // Configuration for client IP extraction
	EnableTraceID bool                 // Assign a trace ID to each request and echo it in X-Trace-ID
	EnableMetrics bool                 // Log status and duration of each request
	Metrics       *metrics.Collector   // Collector exposed on MetricsPath (optional)
	MetricsPath   string               // Path serving Prometheus metrics, e.g. "/metrics"; empty disables
	Routes        []RouteConfigBase    // Routes served when no middleware responds
}

// RouteConfigBase defines a plain route.
type RouteConfigBase struct {
	Path    string           // Route path in httprouter syntax, e.g. "/users/:id"
	Methods []string         // HTTP methods this route handles
	Handler http.HandlerFunc // Standard HTTP handler function
}

// RouteConfig defines a route with typed request and response bodies.
type RouteConfig[T any, U any] struct {
	Path    string               // Route path in httprouter syntax
	Methods []string             // HTTP methods this route handles
	Codec   codec.Codec          // Codec for the request and response bodies
	Handler GenericHandler[T, U] // Generic handler function
}

// GenericHandler handles a decoded request body and returns the value to encode.
// Returning an *HTTPError controls the status code sent to the client.
type GenericHandler[T any, U any] func(r *http.Request, data T) (U, error)
