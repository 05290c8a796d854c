package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Rate limit key strategies.
const (
	StrategyIP     = "ip"
	StrategyUser   = "user"
	StrategyCustom = "custom"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// BucketName identifies the bucket. Entries sharing a name share the limit.
	BucketName string `yaml:"bucket" toml:"bucket" validate:"required"`

	// Limit is the number of requests allowed per Window.
	Limit int `yaml:"limit" toml:"limit" validate:"gt=0"`

	// Window is the length of a rate limit window.
	Window time.Duration `yaml:"window" toml:"window" validate:"gt=0"`

	// Strategy for identifying clients: "ip" (default), "user" or "custom".
	Strategy string `yaml:"strategy" toml:"strategy" validate:"omitempty,oneof=ip user custom"`

	// KeyExtractor derives the client key when Strategy is "custom".
	KeyExtractor func(*http.Request) (string, error) `yaml:"-" toml:"-"`

	// ExceededResponse builds the response sent when the limit is exceeded.
	// A 429 Too Many Requests text response is used when nil.
	ExceededResponse func(r *http.Request, res common.ResponseFactory) common.Response `yaml:"-" toml:"-"`
}

// RateLimiter defines the interface for rate limiting algorithms
type RateLimiter interface {
	// Allow reports whether a request for key is allowed, the number of requests left in
	// the current window and the time until the window resets.
	Allow(key string, limit int, window time.Duration) (bool, int, time.Duration)
}

type window struct {
	start  time.Time
	length time.Duration
	count  int
}

func (w *window) expired(now time.Time) bool {
	return now.Sub(w.start) >= w.length
}

// WindowRateLimiter is a fixed-window RateLimiter. It is safe for concurrent use.
// Expired windows are swept at most once per window length, so keys that stop sending
// requests do not accumulate.
type WindowRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

// NewWindowRateLimiter creates a fixed-window rate limiter.
func NewWindowRateLimiter() *WindowRateLimiter {
	return &WindowRateLimiter{windows: make(map[string]*window), now: time.Now}
}

// Allow implements RateLimiter.
func (l *WindowRateLimiter) Allow(key string, limit int, length time.Duration) (bool, int, time.Duration) {
	if length <= 0 {
		length = time.Second
	}
	if limit <= 0 {
		limit = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= length {
		l.sweep(now)
	}

	w, ok := l.windows[key]
	if !ok || w.expired(now) {
		w = &window{start: now, length: length}
		l.windows[key] = w
	}

	reset := length - now.Sub(w.start)
	if w.count >= limit {
		return false, 0, reset
	}
	w.count++
	return true, limit - w.count, reset
}

// sweep drops expired windows. l.mu must be held.
func (l *WindowRateLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if w.expired(now) {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}

// RateLimit creates a middleware that enforces rate limits. Requests over the limit are
// answered with 429 and Retry-After; allowed requests continue down the chain.
func RateLimit(config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger) common.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewWindowRateLimiter()
	}

	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		if config == nil {
			return common.Continue(), nil
		}

		key, err := rateLimitKey(r, config)
		if err != nil {
			logger.Error("Failed to extract rate limit key",
				zap.Error(err),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			return common.Continue(), err
		}

		allowed, remaining, reset := limiter.Allow(config.BucketName+":"+key, config.Limit, config.Window)
		if allowed {
			return common.Continue(), nil
		}

		logger.Warn("Rate limit exceeded",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("key", key),
			zap.Int("limit", config.Limit),
		)

		var resp common.Response
		if config.ExceededResponse != nil {
			resp = config.ExceededResponse(r, res)
		}
		if resp == nil {
			resp = res.Text(http.StatusTooManyRequests, "Too Many Requests")
		}

		h := resp.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))
		h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(reset)))
		return common.Respond(resp), nil
	}
}

func rateLimitKey(r *http.Request, config *RateLimitConfig) (string, error) {
	switch config.Strategy {
	case StrategyUser:
		if id := UserID(r); id != "" {
			return id, nil
		}
	case StrategyCustom:
		if config.KeyExtractor != nil {
			return config.KeyExtractor(r)
		}
	}
	return clientKey(r), nil
}

// clientKey prefers the IP stored by ClientIPMiddleware.
func clientKey(r *http.Request) string {
	if ip := ClientIP(r); ip != "" {
		return ip
	}
	return ExtractClientIP(r, DefaultIPConfig())
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// ThrottleConfig configures Throttle. Pacers are created per key and never released, so
// KeyFunc must return keys from a bounded set.
type ThrottleConfig struct {
	Rate     int                          // Requests per Per
	Per      time.Duration                // Defaults to one second
	Slack    int                          // Burst allowance; 0 disables slack
	KeyFunc  func(r *http.Request) string // Per-client key; one shared pacer when nil
	MaxDelay time.Duration                // Requests that would wait longer are answered with 503; 0 waits
}

// Throttle creates a middleware that paces requests with a leaky bucket instead of
// rejecting them. Each key gets its own go.uber.org/ratelimit limiter.
func Throttle(config ThrottleConfig) common.Middleware {
	var limiters sync.Map // map[string]ratelimit.Limiter
	var mu sync.Mutex

	opts := []ratelimit.Option{}
	if config.Per > 0 {
		opts = append(opts, ratelimit.Per(config.Per))
	}
	if config.Slack > 0 {
		opts = append(opts, ratelimit.WithSlack(config.Slack))
	} else {
		opts = append(opts, ratelimit.WithoutSlack)
	}
	rate := max(config.Rate, 1)

	limiterFor := func(key string) ratelimit.Limiter {
		if l, ok := limiters.Load(key); ok {
			return l.(ratelimit.Limiter)
		}
		mu.Lock()
		defer mu.Unlock()
		if l, ok := limiters.Load(key); ok {
			return l.(ratelimit.Limiter)
		}
		l := ratelimit.New(rate, opts...)
		limiters.Store(key, l)
		return l
	}

	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		key := ""
		if config.KeyFunc != nil {
			key = config.KeyFunc(r)
		}

		start := time.Now()
		limiterFor(key).Take()
		if config.MaxDelay > 0 && time.Since(start) > config.MaxDelay {
			return common.Respond(res.Text(http.StatusServiceUnavailable, "Service Unavailable")), nil
		}
		return common.Continue(), nil
	}
}
