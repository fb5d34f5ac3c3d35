package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/domotica-core/internal/infrastructure/config"
)

func TestRequestID(t *testing.T) {
	h := testServer(t).buildRouter()

	rec := do(t, h, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}

func TestCORS(t *testing.T) {
	h := testServer(t, func(d *Deps) {
		d.Config.CORS = config.CORSConfig{AllowedOrigins: []string{"http://panel.local"}}
	}).buildRouter()

	tests := []struct {
		name      string
		origin    string
		wantAllow string
	}{
		{"allowed origin", "http://panel.local", "http://panel.local"},
		{"foreign origin", "http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/rooms", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want 204", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestBodySizeLimit(t *testing.T) {
	h := testServer(t, func(d *Deps) { d.Config.MaxBodyBytes = 64 }).buildRouter()

	body := `{"name":"` + strings.Repeat("x", 128) + `"}`
	expect(t, do(t, h, http.MethodPost, "/api/v1/rooms", body), http.StatusRequestEntityTooLarge, ErrCodeBadRequest)

	expect(t, do(t, h, http.MethodPost, "/api/v1/rooms", `{"name":"Hall"}`), http.StatusCreated, "")
}

func TestRecovery(t *testing.T) {
	srv := testServer(t)
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	expect(t, rec, http.StatusInternalServerError, ErrCodeInternal)
}

func TestJoinOrDefault(t *testing.T) {
	if got := joinOrDefault(nil, "GET"); got != "GET" {
		t.Errorf("joinOrDefault(nil) = %q, want GET", got)
	}
	if got := joinOrDefault([]string{"GET", "POST"}, "x"); got != "GET, POST" {
		t.Errorf("joinOrDefault = %q, want %q", got, "GET, POST")
	}
}
