package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Errorf("Request %d should be allowed within burst", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("Request beyond burst should be denied")
	}
}

func TestRateLimiter_PerAddressIsolation(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 1)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Error("First address should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("First address should be throttled")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("Second address should have its own bucket")
	}
}

func TestRateLimitMiddleware_TooManyRequests(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 1)
	defer rl.Stop()

	e := echo.New()
	mw := RateLimitMiddleware(rl)
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// First request passes and carries rate limit headers
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lms", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("Expected rate limit headers on success")
	}

	// Second request from the same address is throttled
	req = httptest.NewRequest(http.MethodGet, "/api/v1/lms", nil)
	req.RemoteAddr = "10.0.0.1:5001"
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := handler(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}
