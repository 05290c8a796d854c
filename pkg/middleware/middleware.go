package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/Suhaibinator/SDispatch/pkg/matcher"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Logging creates a middleware that logs each request it sees and continues.
func Logging(logger *zap.Logger) common.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(r *http.Request, _ common.ResponseFactory) (common.Result, error) {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		}
		if traceID := GetTraceID(r); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		logger.Info("Request", fields...)
		return common.Continue(), nil
	}
}

// MaxBodySize creates a middleware that rejects requests whose declared Content-Length
// exceeds maxSize with 413, and caps the body of the remaining requests at maxSize.
func MaxBodySize(maxSize int64) common.Middleware {
	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		if r.ContentLength > maxSize {
			return common.Respond(res.Text(http.StatusRequestEntityTooLarge, "Request Entity Too Large")), nil
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(nil, r.Body, maxSize)
		}
		return common.Continue(), nil
	}
}

// CORSConfig configures CORS.
type CORSConfig struct {
	Origins []string `yaml:"origins" toml:"origins"` // Allowed origins; "*" allows any
	Methods []string `yaml:"methods" toml:"methods"`
	Headers []string `yaml:"headers" toml:"headers"`
	MaxAge  int      `yaml:"max_age" toml:"max_age" validate:"gte=0"` // Preflight cache lifetime in seconds
}

// CORS creates a middleware that answers preflight requests. Preflights from allowed
// origins get 204 with the Access-Control-* headers; preflights from other origins get
// 403. Other requests continue.
func CORS(config CORSConfig) common.Middleware {
	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
			return common.Continue(), nil
		}

		origin := r.Header.Get("Origin")
		if !originAllowed(config.Origins, origin) {
			return common.Respond(res.Text(http.StatusForbidden, "Forbidden")), nil
		}

		resp := res.New(http.StatusNoContent, nil)
		h := resp.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		if len(config.Methods) > 0 {
			h.Set("Access-Control-Allow-Methods", strings.Join(config.Methods, ", "))
		}
		if len(config.Headers) > 0 {
			h.Set("Access-Control-Allow-Headers", strings.Join(config.Headers, ", "))
		}
		if config.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}
		return common.Respond(resp), nil
	}
}

func originAllowed(origins []string, origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(origins, "*") || slices.Contains(origins, origin)
}

// Redirect creates a middleware that always redirects to location.
func Redirect(status int, location string) common.Middleware {
	return func(_ *http.Request, res common.ResponseFactory) (common.Result, error) {
		return common.Respond(res.Redirect(status, location)), nil
	}
}

// Text creates a middleware that always responds with a fixed text body.
func Text(status int, body string) common.Middleware {
	return func(_ *http.Request, res common.ResponseFactory) (common.Result, error) {
		return common.Respond(res.Text(status, body)), nil
	}
}

// Halt creates a middleware that ends the chain it belongs to. Chains of other matching
// entries still run.
func Halt() common.Middleware {
	return func(*http.Request, common.ResponseFactory) (common.Result, error) {
		return common.Stop(), nil
	}
}

// Methods creates a middleware that runs mw only for the listed HTTP methods.
func Methods(mw common.Middleware, methods ...string) common.Middleware {
	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		if !slices.Contains(methods, r.Method) {
			return common.Continue(), nil
		}
		return mw(r, res)
	}
}

type localeKey struct{}

// LocaleKey is the State key holding the locale segment of the request path.
var LocaleKey = localeKey{}

// LocaleMiddleware creates a middleware that records the locale segment of the request
// path (the first segment, as stripped by locale-aware dispatch) in the request State.
//
// Requests whose first segment is not in supported are treated as unlocalized and
// redirected to the same path under the supported locale that best matches their
// Accept-Language header, or under fallback when nothing matches. With no supported
// locales every first segment is accepted.
func LocaleMiddleware(fallback string, supported ...string) common.Middleware {
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}
	languages := language.NewMatcher(tags)

	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		locale := matcher.Locale(r.URL.Path)
		if len(supported) == 0 || slices.Contains(supported, locale) {
			if state := common.RequestState(r); state != nil && locale != "" {
				state.Set(LocaleKey, locale)
			}
			return common.Continue(), nil
		}

		target := fallback
		if accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(accepted) > 0 {
			if _, i, confidence := languages.Match(accepted...); confidence != language.No {
				target = supported[i]
			}
		}
		if target == "" {
			return common.Continue(), nil
		}

		location := "/" + target
		if r.URL.Path != "/" {
			location += r.URL.Path
		}
		if r.URL.RawQuery != "" {
			location += "?" + r.URL.RawQuery
		}
		return common.Respond(res.Redirect(http.StatusFound, location)), nil
	}
}

// GetLocale returns the locale recorded by LocaleMiddleware.
func GetLocale(r *http.Request) string {
	locale, _ := common.StateValue[string](r, LocaleKey)
	return locale
}
