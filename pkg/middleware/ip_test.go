package middleware

import (
	"net/http"
	"testing"
)

// TestExtractClientIP tests IP extraction for each source
func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		config *IPConfig
		header map[string]string
		remote string
		want   string
	}{
		{
			name:   "x-forwarded-for leftmost",
			config: DefaultIPConfig(),
			header: map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"},
			remote: "10.0.0.2:1234",
			want:   "203.0.113.1",
		},
		{
			name:   "x-real-ip",
			config: &IPConfig{Source: IPSourceXRealIP, TrustProxy: true},
			header: map[string]string{"X-Real-IP": "203.0.113.2"},
			remote: "10.0.0.2:1234",
			want:   "203.0.113.2",
		},
		{
			name:   "custom header",
			config: &IPConfig{Source: IPSourceCustomHeader, CustomHeader: "CF-Connecting-IP", TrustProxy: true},
			header: map[string]string{"CF-Connecting-IP": "203.0.113.3"},
			remote: "10.0.0.2:1234",
			want:   "203.0.113.3",
		},
		{
			name:   "untrusted proxy falls back to remote addr",
			config: &IPConfig{Source: IPSourceXForwardedFor, TrustProxy: false},
			header: map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remote: "10.0.0.2:1234",
			want:   "10.0.0.2",
		},
		{
			name:   "missing header falls back to remote addr",
			config: DefaultIPConfig(),
			remote: "192.0.2.7:80",
			want:   "192.0.2.7",
		},
		{
			name:   "bracketed ipv6 with port",
			config: &IPConfig{Source: IPSourceRemoteAddr},
			remote: "[2001:db8::1]:8080",
			want:   "[2001:db8::1]",
		},
		{
			name:   "bare ipv6",
			config: &IPConfig{Source: IPSourceRemoteAddr},
			remote: "2001:db8::1",
			want:   "2001:db8::1",
		},
		{
			name:   "nil config uses default",
			header: map[string]string{"X-Forwarded-For": "198.51.100.4"},
			remote: "10.0.0.2:1",
			want:   "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/")
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := ExtractClientIP(req, tt.config); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestClientIPMiddleware tests that the client IP is stored in State
func TestClientIPMiddleware(t *testing.T) {
	req := newRequest(http.MethodGet, "/")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	result, err := ClientIPMiddleware(nil)(req, factory)
	mustContinue(t, result, err)

	if got := ClientIP(req); got != "203.0.113.9" {
		t.Errorf("Expected 203.0.113.9, got %q", got)
	}
}
