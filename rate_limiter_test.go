package goCoord

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitAllowsUpToLimit(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	c := newTestCoordinator(t, rdb, cfg)

	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		retryAfter, err := c.CheckRateLimit(ctx, "caller-1", 5)
		if err != nil {
			t.Fatalf("CheckRateLimit call %d failed: %v", i, err)
		}
		if retryAfter != 0 {
			t.Fatalf("expected call %d allowed, got retry-after %v", i, retryAfter)
		}
	}

	retryAfter, err := c.CheckRateLimit(ctx, "caller-1", 5)
	if err != nil {
		t.Fatalf("CheckRateLimit call 6 failed: %v", err)
	}
	if retryAfter <= 0 || retryAfter > cfg.RateLimit.Window {
		t.Fatalf("expected call 6 rejected with retry-after in (0, %v], got %v", cfg.RateLimit.Window, retryAfter)
	}

	if c.Metrics().Value(MetricRateLimitAllowed) != 5 {
		t.Fatal("expected 5 allowed requests counted")
	}
	if c.Metrics().Value(MetricRateLimitHit) != 1 {
		t.Fatal("expected 1 rejected request counted")
	}
}

func TestRateLimitIdentitiesAreIndependent(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := newTestCoordinator(t, rdb, testConfig())

	ctx := context.Background()

	if retryAfter, _ := c.CheckRateLimit(ctx, "caller-1", 1); retryAfter != 0 {
		t.Fatal("expected caller-1 first request allowed")
	}
	if retryAfter, _ := c.CheckRateLimit(ctx, "caller-1", 1); retryAfter == 0 {
		t.Fatal("expected caller-1 second request rejected")
	}
	if retryAfter, _ := c.CheckRateLimit(ctx, "caller-2", 1); retryAfter != 0 {
		t.Fatal("expected caller-2 unaffected by caller-1's window")
	}
}

func TestRateLimitRetryAfterDecreasesTowardWindowExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	c := newTestCoordinator(t, rdb, cfg)

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if retryAfter, err := c.CheckRateLimit(ctx, "caller-1", 2); err != nil || retryAfter != 0 {
			t.Fatalf("expected setup call %d allowed, got %v, %v", i+1, retryAfter, err)
		}
	}

	first, err := c.CheckRateLimit(ctx, "caller-1", 2)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if first <= 0 || first > cfg.RateLimit.Window {
		t.Fatalf("expected rejection with retry-after in (0, %v], got %v", cfg.RateLimit.Window, first)
	}

	mr.FastForward(20 * time.Second)

	later, err := c.CheckRateLimit(ctx, "caller-1", 2)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if later >= first {
		t.Fatalf("expected retry-after to shrink closer to window expiry: first %v, later %v", first, later)
	}
}

func TestRateLimitWindowResetsAfterExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	c := newTestCoordinator(t, rdb, cfg)

	ctx := context.Background()

	if retryAfter, _ := c.CheckRateLimit(ctx, "caller-1", 1); retryAfter != 0 {
		t.Fatal("expected first request allowed")
	}
	if retryAfter, _ := c.CheckRateLimit(ctx, "caller-1", 1); retryAfter == 0 {
		t.Fatal("expected second request rejected")
	}

	mr.FastForward(cfg.RateLimit.Window + time.Second)

	retryAfter, err := c.CheckRateLimit(ctx, "caller-1", 1)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if retryAfter != 0 {
		t.Fatalf("expected fresh window after expiry, got retry-after %v", retryAfter)
	}
}
