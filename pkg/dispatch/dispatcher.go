package dispatch

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/Suhaibinator/SDispatch/pkg/matcher"
	"github.com/Suhaibinator/SDispatch/pkg/metrics"
	"github.com/Suhaibinator/SDispatch/pkg/response"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNilRequest is returned when Dispatch is called without a request or URL.
var ErrNilRequest = errors.New("nil request")

// errorPrefix identifies dispatcher failures surfaced to the caller.
const errorPrefix = "middleware error"

// compiledEntry is a table entry with its pattern compiled.
type compiledEntry struct {
	Entry
	matcher *matcher.Matcher
}

// Dispatcher evaluates a dispatch table against requests.
// It is safe for concurrent use; the table is immutable after New.
type Dispatcher struct {
	entries       []compiledEntry
	defaultReturn common.Middleware
	locale        bool
	factory       common.ResponseFactory
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// New creates a Dispatcher from config, compiling every pattern once.
func New(config Config) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := config.Factory
	if factory == nil {
		factory = response.NewFactory()
	}

	entries := make([]compiledEntry, len(config.Entries))
	for i, e := range config.Entries {
		entries[i] = compiledEntry{
			Entry:   Entry{Pattern: e.Pattern, Chain: e.Chain.Clone()},
			matcher: matcher.Compile(e.Pattern),
		}
	}

	return &Dispatcher{
		entries:       entries,
		defaultReturn: config.DefaultReturn,
		locale:        config.Locale,
		factory:       factory,
		logger:        logger,
		metrics:       config.Metrics,
	}
}

// Entries returns a copy of the dispatch table in registration order.
func (d *Dispatcher) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = Entry{Pattern: e.Pattern, Chain: e.Chain.Clone()}
	}
	return out
}

// Dispatch runs the matching chains for req.
//
// It returns the first terminal response produced by any middleware, the default-return
// response when no chain responds, or nil when the request should continue to normal
// handling. Failures of individual middleware are logged and skipped. Only failures of
// the dispatch itself, including a failing default-return middleware, are returned.
//
// Values middleware store in the request State are visible to the caller only if req
// already carries a State (see common.EnsureState). Use DispatchRequest otherwise.
func (d *Dispatcher) Dispatch(req *http.Request) (common.Response, error) {
	_, resp, err := d.DispatchRequest(req)
	return resp, err
}

// DispatchRequest is like Dispatch but also returns the request the middleware ran
// with. It carries the State they wrote to and should be used for pass-through handling.
func (d *Dispatcher) DispatchRequest(req *http.Request) (*http.Request, common.Response, error) {
	start := time.Now()
	if req != nil && req.URL != nil {
		req = common.EnsureState(req)
	}

	resp, outcome, err := d.dispatch(req)
	if err != nil {
		d.metrics.ObserveDispatch(metrics.OutcomeError, time.Since(start))
		return req, nil, errors.Wrap(err, errorPrefix)
	}

	d.metrics.ObserveDispatch(outcome, time.Since(start))
	return req, resp, nil
}

func (d *Dispatcher) dispatch(req *http.Request) (common.Response, string, error) {
	if req == nil || req.URL == nil {
		return nil, "", ErrNilRequest
	}
	path := matcher.NormalizePath(req.URL.Path, d.locale)

	for i := len(d.entries) - 1; i >= 0; i-- {
		entry := d.entries[i]
		if !entry.matcher.Match(path) {
			continue
		}

		resp, err := d.runChain(req, i, entry)
		if err != nil {
			return nil, "", err
		}
		if resp != nil {
			return resp, metrics.OutcomeRespond, nil
		}
	}

	if d.defaultReturn == nil {
		return nil, metrics.OutcomePassThrough, nil
	}

	result, err := d.invoke(d.defaultReturn, req)
	if err != nil {
		return nil, "", errors.Wrap(err, "default return")
	}
	if result.Terminal() {
		return result.Response(), metrics.OutcomeDefault, nil
	}
	return nil, metrics.OutcomePassThrough, nil
}

// runChain runs one entry's chain from its last middleware to its first. It returns a
// terminal response, or nil when the chain finished or stopped.
func (d *Dispatcher) runChain(req *http.Request, index int, entry compiledEntry) (common.Response, error) {
	for j := len(entry.Chain) - 1; j >= 0; j-- {
		// A canceled request is a dispatch failure, not a middleware failure.
		if err := req.Context().Err(); err != nil {
			return nil, err
		}

		result, err := d.invoke(entry.Chain[j], req)
		if err != nil {
			d.logger.Warn("Error occurred at middleware",
				zap.Int("entry", index),
				zap.String("pattern", entry.Pattern),
				zap.Int("position", j),
				zap.String("path", req.URL.Path),
				zap.Error(err),
			)
			d.metrics.MiddlewareError(index, entry.Pattern)
			continue
		}

		switch result.Kind() {
		case common.KindRespond:
			if result.Terminal() {
				return result.Response(), nil
			}
		case common.KindStop:
			return nil, nil
		}
	}
	return nil, nil
}

// invoke calls mw, converting a panic into an error.
func (d *Dispatcher) invoke(mw common.Middleware, req *http.Request) (result common.Result, err error) {
	if mw == nil {
		return common.Continue(), nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("Panic recovered",
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)
			result = common.Continue()
			err = &PanicError{Value: rec}
		}
	}()

	return mw(req, d.factory)
}

// PanicError wraps a value recovered from a panicking middleware.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
