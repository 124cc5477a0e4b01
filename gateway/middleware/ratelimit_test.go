package middleware

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

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"market-write": {RatePerSecond: 1, Burst: 1},
	})
	handler := limiter.Middleware("market-write")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/market/alpha.ns/buy", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}
}

func TestRateLimiterSeparatesGroups(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"market-write": {RatePerSecond: 1, Burst: 1},
		"market-read":  {RatePerSecond: 1, Burst: 1},
	})
	write := limiter.Middleware("market-write")(okHandler())
	read := limiter.Middleware("market-read")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/market/alpha.ns/buy", nil)
	res := httptest.NewRecorder()
	write.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected write request to succeed, got %d", res.Code)
	}

	readReq := httptest.NewRequest(http.MethodGet, "/v1/market/alpha.ns/listing", nil)
	readRes := httptest.NewRecorder()
	read.ServeHTTP(readRes, readReq)
	if readRes.Code != http.StatusOK {
		t.Fatalf("read group should not share the write group's bucket, got %d", readRes.Code)
	}
}

func TestRateLimiterSeparatesClients(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"market-write": {RatePerSecond: 1, Burst: 1},
	})
	handler := limiter.Middleware("market-write")(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/v1/market/alpha.ns/buy", nil)
	first.Header.Set("X-Real-IP", "10.0.0.1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, first)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first client to succeed, got %d", res.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/v1/market/alpha.ns/buy", nil)
	second.Header.Set("X-Real-IP", "10.0.0.2")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, second)
	if res.Code != http.StatusOK {
		t.Fatalf("distinct clients must not share buckets, got %d", res.Code)
	}
}

func TestUnknownGroupIsNotThrottled(t *testing.T) {
	limiter := NewRateLimiter(nil)
	handler := limiter.Middleware("anything")(okHandler())
	for i := 0; i < 10; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/market/stats", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("request %d throttled without a configured limit: %d", i, res.Code)
		}
	}
}
