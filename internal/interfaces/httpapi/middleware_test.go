package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frozenbet/scoring-engine/internal/domain/user"
	"github.com/frozenbet/scoring-engine/internal/usecase"
)

type staticVerifier struct {
	tokens map[string]user.Principal
	seen   []string
}

func (v *staticVerifier) Authenticate(_ context.Context, token string) (user.Principal, error) {
	v.seen = append(v.seen, token)
	p, ok := v.tokens[token]
	if !ok {
		return user.Principal{}, usecase.ErrUnauthorized
	}
	return p, nil
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(p.UserID))
	})
}

func TestRequireAuth_TokenSources(t *testing.T) {
	verifier := &staticVerifier{tokens: map[string]user.Principal{"good": {UserID: "u-1"}}}
	handler := RequireAuth(verifier, principalEcho())

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		target   string
		wantCode int
	}{
		{
			name:     "bearer header",
			target:   "/v1/groups",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantCode: http.StatusOK,
		},
		{
			name:     "session cookie",
			target:   "/v1/groups",
			prepare:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "good"}) },
			wantCode: http.StatusOK,
		},
		{
			name:     "query token for event streams",
			target:   "/v1/sse/live-scores?token=good",
			prepare:  func(*http.Request) {},
			wantCode: http.StatusOK,
		},
		{
			name:     "malformed header",
			target:   "/v1/groups",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "Token good") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "unknown token",
			target:   "/v1/groups",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer stale") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "no token",
			target:   "/v1/groups",
			prepare:  func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d body=%s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK && rec.Body.String() != "u-1" {
				t.Fatalf("expected principal u-1, got %q", rec.Body.String())
			}
		})
	}
}

func TestRequireAuth_HeaderWinsOverCookie(t *testing.T) {
	verifier := &staticVerifier{tokens: map[string]user.Principal{"header": {UserID: "u-header"}, "cookie": {UserID: "u-cookie"}}}
	handler := RequireAuth(verifier, principalEcho())

	req := httptest.NewRequest(http.MethodGet, "/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer header")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Body.String() != "u-header" {
		t.Fatalf("expected header principal, got %q", rec.Body.String())
	}
}

func TestRequireInternalJobToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name     string
		config   string
		provided string
		wantCode int
	}{
		{name: "match", config: "secret", provided: "secret", wantCode: http.StatusOK},
		{name: "mismatch", config: "secret", provided: "other", wantCode: http.StatusUnauthorized},
		{name: "missing", config: "secret", provided: "", wantCode: http.StatusUnauthorized},
		{name: "not configured", config: "", provided: "secret", wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/score-match", nil)
			if tt.provided != "" {
				req.Header.Set(internalJobHeader, tt.provided)
			}
			rec := httptest.NewRecorder()
			RequireInternalJobToken(tt.config, next).ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	generated := rec.Header().Get(requestIDHeader)
	if len(generated) != 36 || seen != generated {
		t.Fatalf("expected generated uuid in header and context, header=%q ctx=%q", generated, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "upstream-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "upstream-123" || seen != "upstream-123" {
		t.Fatalf("expected inbound request id to be kept, got %q", rec.Header().Get(requestIDHeader))
	}
}

func TestStatusRecorder_CapturesStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	writeError(context.Background(), rec, usecase.ErrNotFound)
	if rec.status != http.StatusNotFound {
		t.Fatalf("expected recorded 404, got %d", rec.status)
	}
	if rec.bytes == 0 {
		t.Fatalf("expected body bytes to be counted")
	}
}

func TestCORS_CredentialsOnlyForExplicitOrigins(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/v1/groups", nil)
	req.Header.Set("Origin", "https://frozenbet.app")
	rec := httptest.NewRecorder()
	CORS([]string{"https://frozenbet.app"}, next).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials for explicit origin")
	}

	rec = httptest.NewRecorder()
	CORS([]string{"*"}, next).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("wildcard origin must not allow credentials")
	}
}
