package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func countVisitors(l *IPRateLimiter) int {
	n := 0
	l.visitors.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestIPRateLimiter_DropsIdleBuckets(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2, zap.NewNop())
	l.now = func() time.Time { return clock }

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/jobs/j1/assistant", nil)
		req.RemoteAddr = ip + ":40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
	assert.Equal(t, 2, countVisitors(l))

	// 10.0.0.2 stays active; 10.0.0.1 goes quiet past the idle window.
	clock = clock.Add(limiterIdleTTL / 2)
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	assert.Equal(t, http.StatusOK, hit("10.0.0.3"))

	_, kept := l.visitors.Load("10.0.0.2")
	_, dropped := l.visitors.Load("10.0.0.1")
	assert.True(t, kept)
	assert.False(t, dropped)
	assert.Equal(t, 2, countVisitors(l))
}

func TestIPRateLimiter_LimitsPerIP(t *testing.T) {
	l := NewIPRateLimiter(1, zap.NewNop())
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.9"))
}
