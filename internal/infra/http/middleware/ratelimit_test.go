package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, limit int) (*RateLimiter, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, "leads", limit, time.Minute), s
}

func TestAllowWithinWindow(t *testing.T) {
	rl, s := setupLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := rl.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retryAfter, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, retryAfter > 0 && retryAfter <= time.Minute)

	// other clients have their own budget
	ok, _, err = rl.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, s.Exists("ratelimit:leads:10.0.0.1"))
}

func TestAllowResetsAfterWindow(t *testing.T) {
	rl, s := setupLimiter(t, 1)
	ctx := context.Background()

	ok, _, _ := rl.Allow(ctx, "ip")
	assert.True(t, ok)
	ok, _, _ = rl.Allow(ctx, "ip")
	assert.False(t, ok)

	s.FastForward(61 * time.Second)

	ok, _, err := rl.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllowRestoresMissingExpiry(t *testing.T) {
	rl, s := setupLimiter(t, 3)
	key := "ratelimit:leads:10.0.0.9"
	require.NoError(t, s.Set(key, "5"))
	require.Zero(t, s.TTL(key))

	ok, retryAfter, err := rl.Allow(context.Background(), "10.0.0.9")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retryAfter)
	assert.Equal(t, time.Minute, s.TTL(key))

	s.FastForward(61 * time.Second)

	ok, _, err = rl.Allow(context.Background(), "10.0.0.9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	rl, _ := setupLimiter(t, 1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/leads", nil)
	req.RemoteAddr = "192.0.2.10:5555"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"RATE_LIMITED","message":"Too many requests. Please try again later."}`, w.Body.String())
}

func TestMiddlewareFailsOpenWithoutRedis(t *testing.T) {
	rl, s := setupLimiter(t, 1)
	s.Close()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leads", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	assert.Equal(t, "203.0.113.1", ClientIP(req))
}
