package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/config"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/notify"
	memstore "github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultConfig()
	cfg.Server.DevMode = true
	cfg.Data.DataDir = t.TempDir()
	return NewServer(cfg, memstore.NewMemoryStore(), notify.NopPublisher{}, zerolog.Nop())
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		code   int
	}{
		{"status", http.MethodGet, "/api/status", http.StatusOK},
		{"strategy", http.MethodGet, "/api/strategy", http.StatusOK},
		{"preflight", http.MethodOptions, "/api/strategy/tier", http.StatusNoContent},
		{"unknown", http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.code {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); tt.code != http.StatusNotFound && got != "*" {
				t.Errorf("missing CORS header")
			}
		})
	}
}
