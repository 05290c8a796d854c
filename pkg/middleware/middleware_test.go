package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/Suhaibinator/SDispatch/pkg/response"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var factory = response.NewFactory()

// newRequest creates a test request carrying a State, the way the dispatcher delivers it.
func newRequest(method, target string) *http.Request {
	return common.EnsureState(httptest.NewRequest(method, target, nil))
}

// mustRespond fails the test unless the result carries a terminal response with status.
func mustRespond(t *testing.T, result common.Result, err error, status int) common.Response {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Terminal() {
		t.Fatalf("Expected a response, got %v", result.Kind())
	}
	if result.Response().StatusCode() != status {
		t.Fatalf("Expected status code %d, got %d", status, result.Response().StatusCode())
	}
	return result.Response()
}

// mustContinue fails the test unless the result is Continue.
func mustContinue(t *testing.T, result common.Result, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Kind() != common.KindContinue {
		t.Fatalf("Expected continue, got %v", result.Kind())
	}
}

// TestLogging tests that the logging middleware logs the request and continues
func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	req := newRequest(http.MethodGet, "/docs")
	SetTraceID(req, "trace-1")

	result, err := Logging(zap.New(core))(req, factory)
	mustContinue(t, result, err)

	entries := logs.FilterMessage("Request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/docs" {
		t.Errorf("Expected path /docs, got %v", fields["path"])
	}
	if fields["trace_id"] != "trace-1" {
		t.Errorf("Expected trace_id trace-1, got %v", fields["trace_id"])
	}
}

// TestMaxBodySize tests rejection of declared oversized bodies and capping of the rest
func TestMaxBodySize(t *testing.T) {
	mw := MaxBodySize(4)

	big := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	result, err := mw(big, factory)
	mustRespond(t, result, err, http.StatusRequestEntityTooLarge)

	// Unknown length: the body is capped instead.
	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	small.ContentLength = -1
	result, err = mw(small, factory)
	mustContinue(t, result, err)

	buf := make([]byte, 16)
	n, _ := small.Body.Read(buf)
	if n > 4 {
		t.Errorf("Expected at most 4 bytes, got %d", n)
	}
}

// TestCORS tests preflight handling
func TestCORS(t *testing.T) {
	mw := CORS(CORSConfig{
		Origins: []string{"https://example.com"},
		Methods: []string{"GET", "POST"},
		Headers: []string{"Content-Type"},
		MaxAge:  600,
	})

	preflight := newRequest(http.MethodOptions, "/api")
	preflight.Header.Set("Origin", "https://example.com")
	preflight.Header.Set("Access-Control-Request-Method", "POST")

	result, err := mw(preflight, factory)
	resp := mustRespond(t, result, err, http.StatusNoContent)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Expected allowed origin, got %q", got)
	}
	if got := resp.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("Expected methods header, got %q", got)
	}
	if got := resp.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("Expected max age 600, got %q", got)
	}

	denied := newRequest(http.MethodOptions, "/api")
	denied.Header.Set("Origin", "https://evil.example")
	denied.Header.Set("Access-Control-Request-Method", "POST")
	result, err = mw(denied, factory)
	mustRespond(t, result, err, http.StatusForbidden)

	result, err = mw(newRequest(http.MethodGet, "/api"), factory)
	mustContinue(t, result, err)
}

// TestRedirectTextHalt tests the fixed-result helpers
func TestRedirectTextHalt(t *testing.T) {
	req := newRequest(http.MethodGet, "/old")

	result, err := Redirect(http.StatusMovedPermanently, "/new")(req, factory)
	resp := mustRespond(t, result, err, http.StatusMovedPermanently)
	if resp.Header().Get("Location") != "/new" {
		t.Errorf("Expected Location /new, got %q", resp.Header().Get("Location"))
	}

	result, err = Text(http.StatusTeapot, "short and stout")(req, factory)
	mustRespond(t, result, err, http.StatusTeapot)

	result, err = Halt()(req, factory)
	if err != nil || result.Kind() != common.KindStop {
		t.Errorf("Expected stop, got %v (%v)", result.Kind(), err)
	}
}

// TestMethods tests that the wrapped middleware runs only for listed methods
func TestMethods(t *testing.T) {
	mw := Methods(Text(http.StatusMethodNotAllowed, "no"), http.MethodDelete)

	result, err := mw(newRequest(http.MethodGet, "/"), factory)
	mustContinue(t, result, err)

	result, err = mw(newRequest(http.MethodDelete, "/"), factory)
	mustRespond(t, result, err, http.StatusMethodNotAllowed)
}

// TestLocaleMiddleware tests locale recording and fallback redirects
func TestLocaleMiddleware(t *testing.T) {
	mw := LocaleMiddleware("en", "en", "fr")

	req := newRequest(http.MethodGet, "/fr/dashboard")
	result, err := mw(req, factory)
	mustContinue(t, result, err)
	if got := GetLocale(req); got != "fr" {
		t.Errorf("Expected locale fr, got %q", got)
	}

	req = newRequest(http.MethodGet, "/dashboard/settings?tab=1")
	result, err = mw(req, factory)
	resp := mustRespond(t, result, err, http.StatusFound)
	if got := resp.Header().Get("Location"); got != "/en/dashboard/settings?tab=1" {
		t.Errorf("Expected redirect to /en/dashboard/settings?tab=1, got %q", got)
	}

	req = newRequest(http.MethodGet, "/dashboard")
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9,en;q=0.5")
	result, err = mw(req, factory)
	resp = mustRespond(t, result, err, http.StatusFound)
	if got := resp.Header().Get("Location"); got != "/fr/dashboard" {
		t.Errorf("Expected negotiated redirect to /fr/dashboard, got %q", got)
	}

	req = newRequest(http.MethodGet, "/")
	req.Header.Set("Accept-Language", "ja")
	result, err = mw(req, factory)
	resp = mustRespond(t, result, err, http.StatusFound)
	if got := resp.Header().Get("Location"); got != "/en" {
		t.Errorf("Expected fallback redirect to /en, got %q", got)
	}

	req = newRequest(http.MethodGet, "/de/x")
	result, err = LocaleMiddleware("", "en")(req, factory)
	mustContinue(t, result, err)
	if got := GetLocale(req); got != "" {
		t.Errorf("Expected no locale, got %q", got)
	}

	req = newRequest(http.MethodGet, "/de/x")
	result, err = LocaleMiddleware("en")(req, factory)
	mustContinue(t, result, err)
	if got := GetLocale(req); got != "de" {
		t.Errorf("Expected any locale to be accepted, got %q", got)
	}
}
