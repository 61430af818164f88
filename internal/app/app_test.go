package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/config"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:                   config.EnvDev,
		HTTPAddr:                 ":0",
		ReadTimeout:              time.Second,
		WriteTimeout:             time.Second,
		StorageDriver:            config.StorageMemory,
		CacheEnabled:             true,
		CacheTTL:                 time.Minute,
		CORSAllowedOrigins:       []string{"*"},
		AuthJWTSecret:            "app-test-secret-0123456789",
		AuthJWTIssuer:            "frozenbet-test",
		AuthTokenTTL:             time.Hour,
		AuthBcryptCost:           4,
		RulePointsMin:            0,
		RulePointsMax:            100,
		ScoringDrawPolicy:        config.DrawPolicyExclusive,
		ScoringWorkers:           2,
		StatsRecentActivityLimit: 10,
		InvitationTTL:            time.Hour,
		LiveScoresHeartbeat:      time.Second,
		InternalJobToken:         "job-token",
	}
}

func TestNewHTTPServer_MemoryStorage(t *testing.T) {
	server, cleanup, err := NewHTTPServer(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	})

	tests := []struct {
		path string
		want int
	}{
		{path: "/healthz", want: http.StatusOK},
		{path: "/v1/competitions", want: http.StatusOK},
		{path: "/v1/groups", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Fatalf("GET %s: expected %d, got %d body=%s", tt.path, tt.want, rec.Code, rec.Body.String())
		}
	}
}

func TestNewHTTPServer_RejectsEmptyAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""
	if _, _, err := NewHTTPServer(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestNewHTTPServer_RejectsShortSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthJWTSecret = "short"
	if _, _, err := NewHTTPServer(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for short jwt secret")
	}
}
