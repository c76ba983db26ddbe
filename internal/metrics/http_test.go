package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/blog", "/blog"},
		{"/blog/how-we-hire", "/blog/{slug}"},
		{"/static/css/site.css", "/static/*"},
		{"/admin/uploads/7b0e2bde-44a1-4b6f-9a57-1a2f0b3c4d5e", "/admin/uploads/{id}"},
		{"/admin/categories/12", "/admin/categories/{id}"},
		{"/admin/categories/12/edit", "/admin/categories/{id}/edit"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMiddleware_CapturesStatus(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pricing", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rec.Code)
	}
}
