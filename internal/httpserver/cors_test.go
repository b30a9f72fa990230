package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/macroscoach/backend/internal/config"
)

func corsHandler(origins []string, allowCreds bool) http.Handler {
	cfg := &config.Config{
		CORSAllowedOrigins:   origins,
		CORSAllowCredentials: allowCreds,
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return CORSMiddleware(cfg, next)
}

func TestCORSAllowedOrigin(t *testing.T) {
	handler := corsHandler([]string{"http://localhost:3000"}, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/plan", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow-origin: %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected credentials header, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected request to pass through, got %d", rec.Code)
	}
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	handler := corsHandler([]string{"http://localhost:3000"}, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/plan", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin header, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected request to still reach the handler, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := corsHandler([]string{"http://localhost:3000"}, false)

	req := httptest.NewRequest(http.MethodOptions, "/v1/plan", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected allow-methods header on preflight")
	}
}

func TestCORSPreflightUnknownOrigin(t *testing.T) {
	handler := corsHandler([]string{"http://localhost:3000"}, false)

	req := httptest.NewRequest(http.MethodOptions, "/v1/plan", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Errorf("expected no CORS headers for unknown origin, got %q", got)
	}
}
