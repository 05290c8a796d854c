// Package compose runs context-mutating middleware ahead of a render step.
//
// Each middleware receives a shared RenderContext and may add values to it. Once every
// middleware has finished, the context is merged with the per-call props and handed to
// the page. Unlike the dispatcher, a failing middleware fails the whole composition.
package compose

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/Suhaibinator/SDispatch/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Signal tells a sequential composition whether to run the next middleware.
type Signal int

const (
	// Continue runs the next middleware.
	Continue Signal = iota
	// Stop ends a sequential composition early. Concurrent compositions ignore it.
	Stop
)

// Mode selects how the middleware of a composition are run.
type Mode int

const (
	// Concurrent launches every middleware at once and waits for all of them.
	Concurrent Mode = iota
	// Sequential runs middleware one at a time in list order, honoring Stop.
	Sequential
)

// String returns the name of the mode.
func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "concurrent"
}

// Middleware mutates the render context before a page is rendered.
type Middleware func(ctx context.Context, rc *RenderContext) (Signal, error)

// Page renders the merged props.
type Page func(ctx context.Context, props Props) error

// Config defines the configuration for a Composer.
type Config struct {
	Middlewares []Middleware       // Middlewares to run
	Initial     Props              // Values every RenderContext starts with
	Mode        Mode               // Concurrent (default) or Sequential
	Logger      *zap.Logger        // Logger; no-op when nil
	Metrics     *metrics.Collector // Metrics collector (optional)
}

// Composer runs a fixed list of middleware for each render.
type Composer struct {
	middlewares []Middleware
	initial     Props
	mode        Mode
	logger      *zap.Logger
	metrics     *metrics.Collector
}

// New creates a Composer.
func New(config Config) *Composer {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		middlewares: append([]Middleware(nil), config.Middlewares...),
		initial:     config.Initial,
		mode:        config.Mode,
		logger:      logger,
		metrics:     config.Metrics,
	}
}

// Run executes the middleware against a fresh RenderContext and returns its values merged
// with props. Props win on key collisions.
func (c *Composer) Run(ctx context.Context, props Props) (Props, error) {
	start := time.Now()
	rc := NewRenderContext(c.initial)

	var err error
	if c.mode == Sequential {
		err = c.runSequential(ctx, rc)
	} else {
		err = c.runConcurrent(ctx, rc)
	}
	c.metrics.ObserveCompose(c.mode.String(), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	return rc.Merge(props), nil
}

// Wrap returns a Page that runs the composition and then renders page with the merged props.
func (c *Composer) Wrap(page Page) Page {
	return func(ctx context.Context, props Props) error {
		merged, err := c.Run(ctx, props)
		if err != nil {
			return err
		}
		return page(ctx, merged)
	}
}

// WithMiddleware returns a decorator that runs middlewares concurrently before a page.
func WithMiddleware(middlewares []Middleware, initial Props) func(Page) Page {
	c := New(Config{Middlewares: middlewares, Initial: initial})
	return c.Wrap
}

func (c *Composer) runConcurrent(ctx context.Context, rc *RenderContext) error {
	g, gCtx := errgroup.WithContext(ctx)

	for i, mw := range c.middlewares {
		g.Go(func() error {
			signal, err := c.invoke(gCtx, i, mw, rc)
			if err != nil {
				return err
			}
			if signal == Stop {
				c.logger.Debug("Stop ignored in concurrent composition", zap.Int("middleware", i))
			}
			return nil
		})
	}

	return g.Wait()
}

func (c *Composer) runSequential(ctx context.Context, rc *RenderContext) error {
	for i, mw := range c.middlewares {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "compose")
		}
		signal, err := c.invoke(ctx, i, mw, rc)
		if err != nil {
			return err
		}
		if signal == Stop {
			c.logger.Debug("Composition stopped", zap.Int("middleware", i))
			return nil
		}
	}
	return nil
}

// invoke runs one middleware, turning a panic into an error.
func (c *Composer) invoke(ctx context.Context, index int, mw Middleware, rc *RenderContext) (signal Signal, err error) {
	if mw == nil {
		return Continue, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Panic recovered",
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
				zap.Int("middleware", index),
			)
			err = errors.Errorf("compose middleware %d: panic: %v", index, rec)
		}
	}()

	signal, err = mw(ctx, rc)
	if err != nil {
		c.logger.Error("Composition middleware failed", zap.Int("middleware", index), zap.Error(err))
		return signal, errors.Wrapf(err, "compose middleware %d", index)
	}
	return signal, nil
}
