package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Suhaibinator/SDispatch/pkg/codec"
	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/Suhaibinator/SDispatch/pkg/dispatch"
	"github.com/Suhaibinator/SDispatch/pkg/middleware"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Router is the main router struct that implements http.Handler.
type Router struct {
	config     RouterConfig
	router     *httprouter.Router
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
}

type contextKey string

// ParamsKey is the key used to store httprouter.Params in the request context.
const ParamsKey contextKey = "params"

// NewRouter creates a Router. The dispatcher may be nil, in which case every request goes
// straight to the registered routes.
func NewRouter(config RouterConfig, dispatcher *dispatch.Dispatcher) *Router {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.IPConfig == nil {
		config.IPConfig = middleware.DefaultIPConfig()
	}

	hr := httprouter.New()
	hr.HandleMethodNotAllowed = true

	r := &Router{
		config:     config,
		router:     hr,
		dispatcher: dispatcher,
		logger:     logger,
	}

	for _, route := range config.Routes {
		r.RegisterRoute(route)
	}

	return r
}

// RegisterRoute registers a plain route with the fallback route table.
func (r *Router) RegisterRoute(route RouteConfigBase) {
	for _, method := range route.Methods {
		r.router.Handle(method, route.Path, r.convertToHTTPRouterHandle(route.Handler))
	}
}

// RegisterGenericRoute registers a route whose request body is decoded into Req and whose
// result is encoded from Resp, both with the route's codec.
func RegisterGenericRoute[Req any, Resp any](r *Router, route RouteConfig[Req, Resp]) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var data Req
		if err := codec.Decode(route.Codec, req, &data); err != nil && !errors.Is(err, codec.ErrNilBody) {
			r.handleError(w, req, err, http.StatusBadRequest, "Failed to decode request")
			return
		}

		resp, err := route.Handler(req, data)
		if err != nil {
			r.handleError(w, req, err, http.StatusInternalServerError, "Handler error")
			return
		}

		body, err := route.Codec.Marshal(resp)
		if err != nil {
			r.handleError(w, req, err, http.StatusInternalServerError, "Failed to encode response")
			return
		}
		w.Header().Set("Content-Type", route.Codec.ContentType())
		_, _ = w.Write(body)
	})

	r.RegisterRoute(RouteConfigBase{Path: route.Path, Methods: route.Methods, Handler: handler})
}

// convertToHTTPRouterHandle stores the route parameters in the request context.
func (r *Router) convertToHTTPRouterHandle(handler http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(req.Context(), ParamsKey, ps)
		handler.ServeHTTP(w, req.WithContext(ctx))
	}
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add to the wait group before checking shutdown so Shutdown cannot miss the request.
	r.wg.Add(1)
	defer r.wg.Done()

	r.shutdownMu.RLock()
	shuttingDown := r.shutdown
	r.shutdownMu.RUnlock()
	if shuttingDown {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	if r.config.MetricsPath != "" && req.URL.Path == r.config.MetricsPath {
		r.config.Metrics.Handler().ServeHTTP(w, req)
		return
	}

	req = common.EnsureState(req)
	middleware.SetClientIP(req, middleware.ExtractClientIP(req, r.config.IPConfig))
	if r.config.EnableTraceID {
		traceID := req.Header.Get(middleware.TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		middleware.SetTraceID(req, traceID)
		w.Header().Set(middleware.TraceIDHeader, traceID)
	}

	if r.config.GlobalTimeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), r.config.GlobalTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	var rw *responseWriter
	if r.config.EnableMetrics {
		rw = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		w = rw
		start := time.Now()
		defer func() {
			r.logRequest(req, rw.statusCode, time.Since(start))
		}()
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic recovered", r.withTrace(req,
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)...)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}()

	if r.dispatcher != nil {
		dispatched, resp, err := r.dispatcher.DispatchRequest(req)
		req = dispatched
		if err != nil {
			r.handleError(w, req, err, http.StatusInternalServerError, "Dispatch error")
			return
		}
		if resp != nil {
			if err := resp.Write(w); err != nil {
				r.logger.Warn("Failed to write response", r.withTrace(req,
					zap.Error(err),
					zap.String("path", req.URL.Path),
				)...)
			}
			return
		}
	}

	r.router.ServeHTTP(w, req)
}

// logRequest logs a finished request at a level chosen by status and duration.
func (r *Router) logRequest(req *http.Request, status int, duration time.Duration) {
	fields := r.withTrace(req,
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	)

	switch {
	case status >= 500:
		r.logger.Error("Server error", fields...)
	case status >= 400:
		r.logger.Warn("Client error", fields...)
	case duration > time.Second:
		r.logger.Warn("Slow request", fields...)
	default:
		r.logger.Debug("Request", fields...)
	}
}

// withTrace prepends the trace ID field when tracing is enabled and an ID is present.
func (r *Router) withTrace(req *http.Request, fields ...zap.Field) []zap.Field {
	if !r.config.EnableTraceID {
		return fields
	}
	if traceID := middleware.GetTraceID(req); traceID != "" {
		return append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
	}
	return fields
}

// Shutdown gracefully shuts down the router.
// It stops accepting new requests and waits for existing requests to complete.
// If the context is canceled before all requests complete, it returns the context's error.
func (r *Router) Shutdown(ctx context.Context) error {
	r.shutdownMu.Lock()
	r.shutdown = true
	r.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetParams retrieves the httprouter.Params from the request context.
func GetParams(r *http.Request) httprouter.Params {
	params, _ := r.Context().Value(ParamsKey).(httprouter.Params)
	return params
}

// GetParam retrieves a specific parameter from the request context.
func GetParam(r *http.Request, name string) string {
	return GetParams(r).ByName(name)
}

// handleError logs err and writes an error response. An *HTTPError anywhere in the chain
// of err sets the status and message; a request deadline that expired becomes 408.
func (r *Router) handleError(w http.ResponseWriter, req *http.Request, err error, statusCode int, message string) {
	r.logger.Error(message, r.withTrace(req,
		zap.Error(err),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)...)

	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		statusCode = httpErr.StatusCode
		message = httpErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		statusCode = http.StatusRequestTimeout
		message = "Request Timeout"
	}

	http.Error(w, message, statusCode)
}

// HTTPError represents an HTTP error with a status code and message.
// Returned from a handler or middleware, it controls the error response sent to clients.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 400, 404, 500)
	Message    string // Error message to be sent in the response body
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and message.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and calls the underlying ResponseWriter.WriteHeader
func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Flush calls the underlying ResponseWriter.Flush if it implements http.Flusher
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
