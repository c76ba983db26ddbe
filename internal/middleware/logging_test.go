package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sourzer/sourzer-web/internal/auth"
	"github.com/sourzer/sourzer-web/internal/domain"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

func logRequest(t *testing.T, next http.Handler, req *http.Request) string {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := httptest.NewRecorder()
	NewRequestLoggingMiddleware(logger).Handler(next).ServeHTTP(rec, req)
	return buf.String()
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/pricing", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("User-Agent", "test-agent/1.0")

	out := logRequest(t, okHandler(), req)

	for _, want := range []string{"GET", "/pricing", "status=200", "duration_ms", "ip=10.0.0.1", "test-agent/1.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("log should contain %q, got: %s", want, out)
		}
	}
}

func TestRequestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.WriteHeader(http.StatusTeapot) // superfluous call must not change the logged status
			})
			out := logRequest(t, next, httptest.NewRequest(http.MethodGet, "/blog", nil))
			if !strings.Contains(out, tt.level) {
				t.Errorf("expected %s, got: %s", tt.level, out)
			}
		})
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/waitlist/country?phone_number=%2B2348031234567&token=abc&page=2", nil)
	out := logRequest(t, okHandler(), req)

	if strings.Contains(out, "2348031234567") || strings.Contains(out, "abc") {
		t.Errorf("log leaked a sensitive value: %s", out)
	}
	if !strings.Contains(out, "page=2") {
		t.Errorf("log should keep harmless params: %s", out)
	}
}

func TestRequestLoggingMiddleware_RequestIDAndAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(auth.SetSession(r.Context(), &domain.AuthSession{Username: "admin", IsAuthenticated: true}))
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		NewRequestLoggingMiddleware(logger).Handler(next).ServeHTTP(w, r)

		out := buf.String()
		if !strings.Contains(out, "request_id=") {
			t.Errorf("expected request_id, got: %s", out)
		}
		if !strings.Contains(out, "admin=admin") {
			t.Errorf("expected admin username, got: %s", out)
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/blogs", nil))
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/static/css/site.css"} {
		out := logRequest(t, okHandler(), httptest.NewRequest(http.MethodGet, path, nil))
		if out != "" {
			t.Errorf("%s should not be logged, got: %s", path, out)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path, query, want string
	}{
		{"/blog", "", "/blog"},
		{"/admin/blogs", "edit=12", "/admin/blogs?edit=12"},
		{"/x", "Password=hunter2", "/x?Password=[REDACTED]"},
		{"/x", "novalue", "/x"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.path, tt.query); got != tt.want {
			t.Errorf("sanitizePath(%q, %q) = %q, want %q", tt.path, tt.query, got, tt.want)
		}
	}
}
