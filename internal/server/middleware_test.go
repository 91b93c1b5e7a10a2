package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resumescore/internal/config"
	"resumescore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, func(c *ServerConfig) { c.APIKeys = []string{"secret-key-123456"} })

	tests := []struct {
		name       string
		setHeader  func(*http.Request)
		wantStatus int
		wantError  string
	}{
		{name: "missing key", setHeader: func(*http.Request) {}, wantStatus: http.StatusUnauthorized, wantError: "Missing API key"},
		{
			name:       "invalid key",
			setHeader:  func(r *http.Request) { r.Header.Set("X-API-Key", "wrong") },
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid API key",
		},
		{
			name:       "header key",
			setHeader:  func(r *http.Request) { r.Header.Set("X-API-Key", "secret-key-123456") },
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer token",
			setHeader:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-key-123456") },
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/score", types.ScoreRequest{Text: techResume})
			tt.setHeader(req)

			rec := serve(s, req)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[ErrorResponse](t, rec).Error)
			}
		})
	}
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	s := newTestServer(t, func(c *ServerConfig) { c.APIKeys = []string{"secret-key-123456"} })

	for _, path := range []string{"/health", "/stats", "/domains"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAPIKeyRotationTakesEffect(t *testing.T) {
	s := newTestServer(t, func(c *ServerConfig) { c.APIKeys = []string{"old-key-aaaaaaaa"} })

	s.APIKeys.Replace([]string{"new-key-bbbbbbbb"})

	req := jsonRequest(t, http.MethodPost, "/score", types.ScoreRequest{Text: techResume})
	req.Header.Set("X-API-Key", "old-key-aaaaaaaa")
	assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)

	req = jsonRequest(t, http.MethodPost, "/score", types.ScoreRequest{Text: techResume})
	req.Header.Set("X-API-Key", "new-key-bbbbbbbb")
	assert.Equal(t, http.StatusOK, serve(s, req).Code)
}

func TestAPIKeyStore(t *testing.T) {
	store := NewAPIKeyStore([]string{"", "a", "b"})
	assert.True(t, store.Enabled())
	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Valid("a"))
	assert.False(t, store.Valid(""))
	assert.False(t, store.Valid("c"))

	store.Replace(nil)
	assert.False(t, store.Enabled())
}

func TestRequestSizeLimit(t *testing.T) {
	s := newTestServer(t, func(c *ServerConfig) { c.MaxRequestSize = 32 })

	req := jsonRequest(t, http.MethodPost, "/score", types.ScoreRequest{Text: strings.Repeat("python ", 20)})
	rec := serve(s, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServer(t)

	t.Run("generated", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rec := serve(s, req)
		assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	})

	t.Run("oversized id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
		rec := serve(s, req)
		assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	})
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijklmnop"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := jsonRequest(t, http.MethodPost, "/score", types.ScoreRequest{Text: techResume})
		req.RemoteAddr = ip + ":1234"
		return serve(s, req)
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	rec := send("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code, "other clients keep their own bucket")

	stats := s.RateLimiter.GetStats()
	assert.Equal(t, int64(1), stats["rejected_requests"])
	assert.Equal(t, 2, stats["active_limiters"])
}

func TestRateLimitDisabled(t *testing.T) {
	s := newTestServer(t)
	assert.Nil(t, s.RateLimiter)

	for range 5 {
		rec := serve(s, jsonRequest(t, http.MethodPost, "/score", types.ScoreRequest{Text: techResume}))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{name: "api key preferred", headers: map[string]string{"X-API-Key": "k1"}, byAPIKey: true, byIP: true, want: "api:k1"},
		{name: "falls back to ip", byAPIKey: true, byIP: true, want: "ip:192.0.2.1"},
		{name: "forwarded ip", headers: map[string]string{"X-Forwarded-For": "bogus, 203.0.113.7"}, byIP: true, want: "ip:203.0.113.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.3"}, byIP: true, want: "ip:198.51.100.3"},
		{name: "nothing enabled", headers: map[string]string{"X-API-Key": "k1"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getRateLimitKey(req, tt.byAPIKey, tt.byIP))
		})
	}
}

func TestLimiterCleanup(t *testing.T) {
	m := NewRateLimiter(60, 1, testLogger())
	defer m.Close()

	m.GetLimiter("ip:1")
	m.GetLimiter("ip:2")
	m.cleanup(0)

	assert.Equal(t, 0, m.GetStats()["active_limiters"])
}
