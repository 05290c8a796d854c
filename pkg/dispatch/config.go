// Package dispatch runs path-scoped middleware chains for an incoming request.
//
// A dispatch table is an ordered list of entries, each pairing a path pattern with a
// middleware chain. For every request the table is walked from the last registered entry
// to the first; every matching entry has its chain run from the last middleware to the
// first. General defaults registered early are therefore overridden by specific entries
// registered later, without an explicit priority field.
package dispatch

import (
	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/Suhaibinator/SDispatch/pkg/metrics"
	"go.uber.org/zap"
)

// Entry pairs a path pattern with the middleware chain that applies to it.
type Entry struct {
	Pattern string                 // Path pattern: "*", "/prefix/*" or an exact path
	Chain   common.MiddlewareChain // Middlewares, run last to first
}

// Handle is a convenience constructor for an Entry.
func Handle(pattern string, middlewares ...common.Middleware) Entry {
	return Entry{Pattern: pattern, Chain: common.NewMiddlewareChain(middlewares...)}
}

// Config defines the configuration for a Dispatcher.
// It is copied by New; later changes to the caller's slices have no effect.
type Config struct {
	Entries       []Entry                // Dispatch table in registration order
	DefaultReturn common.Middleware      // Invoked when no chain responds (optional)
	Locale        bool                   // Strip a leading locale segment before matching
	Factory       common.ResponseFactory // Response factory passed to middleware; response.NewFactory() when nil
	Logger        *zap.Logger            // Logger for middleware failures; no-op when nil
	Metrics       *metrics.Collector     // Metrics collector (optional)
}
