package middleware

import (
	"net/http"
	"strings"

	"github.com/Suhaibinator/SDispatch/pkg/common"
)

// IPSourceType defines the source for client IP addresses
type IPSourceType string

const (
	// IPSourceRemoteAddr uses the request's RemoteAddr field
	IPSourceRemoteAddr IPSourceType = "remote_addr"

	// IPSourceXForwardedFor uses the X-Forwarded-For header
	IPSourceXForwardedFor IPSourceType = "x_forwarded_for"

	// IPSourceXRealIP uses the X-Real-IP header
	IPSourceXRealIP IPSourceType = "x_real_ip"

	// IPSourceCustomHeader uses a custom header specified in the configuration
	IPSourceCustomHeader IPSourceType = "custom_header"
)

// IPConfig defines configuration for IP extraction
type IPConfig struct {
	// Source specifies where to extract the client IP from
	Source IPSourceType `yaml:"source" toml:"source" validate:"omitempty,oneof=remote_addr x_forwarded_for x_real_ip custom_header"`

	// CustomHeader is the header to read when Source is IPSourceCustomHeader
	CustomHeader string `yaml:"custom_header" toml:"custom_header" validate:"required_if=Source custom_header"`

	// TrustProxy enables proxy headers. When false, RemoteAddr is always used.
	TrustProxy bool `yaml:"trust_proxy" toml:"trust_proxy"`
}

// DefaultIPConfig returns the default IP configuration
func DefaultIPConfig() *IPConfig {
	return &IPConfig{
		Source:     IPSourceXForwardedFor,
		TrustProxy: true,
	}
}

type clientIPKey struct{}

// ClientIPKey is the State key holding the client IP.
var ClientIPKey = clientIPKey{}

// ClientIP returns the client IP stored in the request State by ClientIPMiddleware.
func ClientIP(r *http.Request) string {
	ip, _ := common.StateValue[string](r, ClientIPKey)
	return ip
}

// SetClientIP stores ip in the request State. It does nothing when r has no State.
func SetClientIP(r *http.Request, ip string) {
	if state := common.RequestState(r); state != nil {
		state.Set(ClientIPKey, ip)
	}
}

// ClientIPMiddleware creates a middleware that extracts the client IP from the request
// and stores it in the request State.
func ClientIPMiddleware(config *IPConfig) common.Middleware {
	if config == nil {
		config = DefaultIPConfig()
	}

	return func(r *http.Request, _ common.ResponseFactory) (common.Result, error) {
		SetClientIP(r, ExtractClientIP(r, config))
		return common.Continue(), nil
	}
}

// ExtractClientIP extracts the client IP from the request based on the configuration
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	if config == nil {
		config = DefaultIPConfig()
	}

	var ip string
	switch config.Source {
	case IPSourceXRealIP:
		ip = r.Header.Get("X-Real-IP")
	case IPSourceCustomHeader:
		ip = r.Header.Get(config.CustomHeader)
	case IPSourceRemoteAddr:
		ip = r.RemoteAddr
	default:
		ip = forwardedFor(r)
	}

	if !config.TrustProxy || ip == "" {
		ip = r.RemoteAddr
	}

	return cleanIP(ip)
}

// forwardedFor returns the leftmost (originating) address in X-Forwarded-For.
func forwardedFor(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return ""
	}
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// cleanIP removes the port from an IP address if present
func cleanIP(ip string) string {
	// [IPv6]:port
	if strings.HasPrefix(ip, "[") {
		if end := strings.LastIndex(ip, "]"); end > 0 {
			return ip[:end+1]
		}
	}

	// Bare IPv6 has several colons and no port.
	if strings.Count(ip, ":") > 1 {
		return ip
	}

	if end := strings.LastIndex(ip, ":"); end > 0 {
		return ip[:end]
	}
	return ip
}
