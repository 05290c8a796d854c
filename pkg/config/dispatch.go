package config

import (
	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/Suhaibinator/SDispatch/pkg/dispatch"
	"github.com/Suhaibinator/SDispatch/pkg/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Built-in middleware names available to every file.
const (
	NameTrace    = "trace"
	NameClientIP = "client_ip"
	NameLogging  = "logging"
	NameHalt     = "halt"
	NameCORS     = "cors"
	NameLocale   = "locale"
	NameJWT      = "jwt"
)

// RateLimitName returns the registry name of the rate limit declared for bucket.
func RateLimitName(bucket string) string {
	return "rate_limit." + bucket
}

// Builtins returns a Registry holding the built-in middleware configured by f. Rate limits
// share limiter, which may be nil.
func (f *File) Builtins(limiter middleware.RateLimiter, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = middleware.NewWindowRateLimiter()
	}

	reg := NewRegistry()
	reg.MustRegister(NameTrace, middleware.TraceMiddleware())
	reg.MustRegister(NameClientIP, middleware.ClientIPMiddleware(f.IP))
	reg.MustRegister(NameLogging, middleware.Logging(logger))
	reg.MustRegister(NameHalt, middleware.Halt())

	if f.CORS != nil {
		reg.MustRegister(NameCORS, middleware.CORS(*f.CORS))
	}
	if f.Locales != nil {
		reg.MustRegister(NameLocale, middleware.LocaleMiddleware(f.Locales.Fallback, f.Locales.Supported...))
	}
	if f.JWT != nil {
		provider := &middleware.JWTProvider{Secret: []byte(f.JWT.Secret), Issuer: f.JWT.Issuer, Audience: f.JWT.Audience}
		reg.MustRegister(NameJWT, middleware.AuthenticationWithProvider(provider, logger))
	}
	for i := range f.RateLimits {
		rl := f.RateLimits[i]
		if err := reg.Register(RateLimitName(rl.BucketName), middleware.RateLimit(&rl, limiter, logger)); err != nil {
			return nil, err
		}
	}
	for _, rd := range f.Redirects {
		if err := reg.Register(rd.Name, middleware.Redirect(rd.Status, rd.Location)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DispatchConfig builds a dispatch.Config from the file. Names are looked up in app first
// and then in the file's built-ins; an unknown name is an error.
func (f *File) DispatchConfig(app *Registry, logger *zap.Logger) (dispatch.Config, error) {
	builtins, err := f.Builtins(nil, logger)
	if err != nil {
		return dispatch.Config{}, err
	}

	resolve := func(name string) (common.Middleware, error) {
		if app != nil {
			if mw, ok := app.Lookup(name); ok {
				return mw, nil
			}
		}
		if mw, ok := builtins.Lookup(name); ok {
			return mw, nil
		}
		return nil, errors.Errorf("unknown middleware %q", name)
	}

	config := dispatch.Config{Locale: f.Locale, Logger: logger}

	for i, e := range f.Entries {
		chain := make(common.MiddlewareChain, 0, len(e.Middlewares))
		for _, name := range e.Middlewares {
			mw, err := resolve(name)
			if err != nil {
				return dispatch.Config{}, errors.Wrapf(err, "entry %d (%s)", i, e.Pattern)
			}
			chain = append(chain, mw)
		}
		config.Entries = append(config.Entries, dispatch.Entry{Pattern: e.Pattern, Chain: chain})
	}

	if f.Default != "" {
		mw, err := resolve(f.Default)
		if err != nil {
			return dispatch.Config{}, errors.Wrap(err, "default")
		}
		config.DefaultReturn = mw
	}

	return config, nil
}
