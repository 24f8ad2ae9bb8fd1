package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newTestRateLimit(t *testing.T) (*RateLimitService, *fiber.App) {
	t.Helper()
	redisSvc, _ := newTestRedis(t)
	svc := NewRateLimitService(redisSvc)

	app := fiber.New()
	app.Post("/login", svc.RateLimit(RateLimitLogin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return svc, app
}

func loginRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
	return req
}

func TestRateLimitFixedWindow(t *testing.T) {
	_, app := newTestRateLimit(t)

	for i := 0; i < 10; i++ {
		resp, err := app.Test(loginRequest("203.0.113.7"))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp, err := app.Test(loginRequest("203.0.113.7"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" || resp.Header.Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("missing rate limit headers: %v", resp.Header)
	}

	// other addresses have their own window
	resp, err = app.Test(loginRequest("198.51.100.4"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for a different address, got %d", resp.StatusCode)
	}
}

func TestRateLimitWindowExpires(t *testing.T) {
	redisSvc, mr := newTestRedis(t)
	svc := NewRateLimitService(redisSvc)
	ctx := t.Context()

	for i := 0; i < 10; i++ {
		if allowed, _, err := svc.IsAllowed(ctx, "203.0.113.7", RateLimitLogin); err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
	allowed, info, err := svc.IsAllowed(ctx, "203.0.113.7", RateLimitLogin)
	if err != nil || allowed || info.BlockedUntil == nil {
		t.Fatalf("expected limit reached, got allowed=%v info=%+v err=%v", allowed, info, err)
	}

	mr.FastForward(61 * time.Second)

	allowed, info, err = svc.IsAllowed(ctx, "203.0.113.7", RateLimitLogin)
	if err != nil || !allowed || info.Remaining != 9 {
		t.Fatalf("expected a fresh window, got allowed=%v info=%+v err=%v", allowed, info, err)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	redisSvc, mr := newTestRedis(t)
	svc := NewRateLimitService(redisSvc)

	app := fiber.New()
	app.Post("/login", svc.RateLimit(RateLimitLogin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	mr.Close()
	resp, err := app.Test(loginRequest("203.0.113.7"), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected request through while the store is down, got %d", resp.StatusCode)
	}
}

func TestRateLimitUnknownEndpointAndDisabled(t *testing.T) {
	svc, _ := newTestRateLimit(t)
	ctx := t.Context()

	allowed, info, err := svc.IsAllowed(ctx, "203.0.113.7", "unknown")
	if err != nil || !allowed || info.Remaining != -1 {
		t.Fatalf("unknown endpoint should pass, got allowed=%v info=%+v err=%v", allowed, info, err)
	}

	svc.enabled = false
	for i := 0; i < 20; i++ {
		if allowed, _, _ := svc.IsAllowed(ctx, "203.0.113.7", RateLimitLogin); !allowed {
			t.Fatal("disabled limiter must not reject")
		}
	}
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	if got := retryAfterSeconds(1500 * time.Millisecond); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := retryAfterSeconds(0); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}
