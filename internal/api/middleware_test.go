package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:5173"}, okHandler())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	h.ServeHTTP(rr, req)
	if rr.Code != 200 { t.Fatalf("got %d", rr.Code) }
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" { t.Fatalf("ACAO: %q", got) }
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" { t.Fatalf("credentials: %q", got) }
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:5173"}, okHandler())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden { t.Fatalf("got %d", rr.Code) }
}

func TestCORSPassesNoOrigin(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:5173"}, okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != 200 { t.Fatalf("got %d", rr.Code) }
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" { t.Fatalf("ACAO set without origin: %q", got) }
}

func TestCORSPreflight(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:5173"}, okHandler())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent { t.Fatalf("got %d", rr.Code) }
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got == "" { t.Fatal("methods header missing") }
}

func TestRateLimit(t *testing.T) {
	h := RateLimitMiddleware(1, 1, okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != 200 { t.Fatalf("first request: %d", rr.Code) }

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTooManyRequests { t.Fatalf("second request: %d", rr.Code) }
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimitMiddleware(0, 0, okHandler())
	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != 200 { t.Fatalf("request %d: %d", i, rr.Code) }
	}
}
