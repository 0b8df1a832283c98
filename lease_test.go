package goCoord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newSecondInstance(t *testing.T, rdb *redis.Client, cfg Config, id string) *Coordinator {
	t.Helper()

	c, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithInstanceID(id).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return c
}

func TestTryAcquireLockIsExclusive(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	a := newTestCoordinator(t, rdb, cfg)
	b := newSecondInstance(t, rdb, cfg, "node-b")

	ctx := context.Background()

	acquired, err := a.TryAcquireLock(ctx, "gc")
	if err != nil {
		t.Fatalf("TryAcquireLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("expected first acquisition to succeed")
	}

	acquired, err = b.TryAcquireLock(ctx, "gc")
	if err != nil {
		t.Fatalf("TryAcquireLock failed: %v", err)
	}
	if acquired {
		t.Fatal("expected contending acquisition to fail before TTL expiry")
	}

	if a.Metrics().Value(MetricLockAcquired) != 1 {
		t.Fatal("expected acquisition metric")
	}
	if b.Metrics().Value(MetricLockContended) != 1 {
		t.Fatal("expected contention metric")
	}
}

func TestTryAcquireLockSucceedsAfterExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	a := newTestCoordinator(t, rdb, cfg)
	b := newSecondInstance(t, rdb, cfg, "node-b")

	ctx := context.Background()

	if acquired, _ := a.TryAcquireLock(ctx, "gc"); !acquired {
		t.Fatal("expected initial acquisition to succeed")
	}

	mr.FastForward(cfg.Lease.TTL + time.Second)

	acquired, err := b.TryAcquireLock(ctx, "gc")
	if err != nil {
		t.Fatalf("TryAcquireLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("expected acquisition to succeed after TTL expiry")
	}
}

func TestRefreshLockExtendsHeldLease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	a := newTestCoordinator(t, rdb, cfg)

	ctx := context.Background()

	if acquired, _ := a.TryAcquireLock(ctx, "gc"); !acquired {
		t.Fatal("expected acquisition to succeed")
	}

	mr.FastForward(30 * time.Second)

	held, err := a.RefreshLock(ctx, "gc")
	if err != nil {
		t.Fatalf("RefreshLock failed: %v", err)
	}
	if !held {
		t.Fatal("expected holder refresh to succeed")
	}

	ttl, err := rdb.TTL(ctx, cfg.Lease.KeyPrefix+":gc").Result()
	if err != nil {
		t.Fatalf("TTL read failed: %v", err)
	}
	if ttl < cfg.Lease.TTL-time.Second {
		t.Fatalf("expected TTL restored to ~%v, got %v", cfg.Lease.TTL, ttl)
	}
}

func TestRefreshLockByNonHolderFails(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	a := newTestCoordinator(t, rdb, cfg)
	b := newSecondInstance(t, rdb, cfg, "node-b")

	ctx := context.Background()

	if acquired, _ := a.TryAcquireLock(ctx, "gc"); !acquired {
		t.Fatal("expected acquisition to succeed")
	}

	held, err := b.RefreshLock(ctx, "gc")
	if err != nil {
		t.Fatalf("RefreshLock failed: %v", err)
	}
	if held {
		t.Fatal("expected refresh by non-holder to fail")
	}

	holder, err := rdb.Get(ctx, cfg.Lease.KeyPrefix+":gc").Result()
	if err != nil {
		t.Fatalf("holder read failed: %v", err)
	}
	if holder != "node-a" {
		t.Fatalf("expected holder unchanged, got %q", holder)
	}
}

func TestRefreshLockNeverAcquiredFails(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	a := newTestCoordinator(t, rdb, cfg)

	ctx := context.Background()

	held, err := a.RefreshLock(ctx, "never-acquired")
	if err != nil {
		t.Fatalf("RefreshLock failed: %v", err)
	}
	if held {
		t.Fatal("expected refresh of unacquired lock to fail")
	}

	exists, err := rdb.Exists(ctx, cfg.Lease.KeyPrefix+":never-acquired").Result()
	if err != nil {
		t.Fatalf("exists read failed: %v", err)
	}
	if exists != 0 {
		t.Fatal("expected refresh not to create the lock key")
	}
}

func TestHoldLockReturnsWhenLeaseLost(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.Lease.TTL = time.Second
	cfg.Lease.RefreshInterval = 10 * time.Millisecond
	a := newTestCoordinator(t, rdb, cfg)

	ctx := context.Background()

	if acquired, _ := a.TryAcquireLock(ctx, "gc"); !acquired {
		t.Fatal("expected acquisition to succeed")
	}

	mr.Del(cfg.Lease.KeyPrefix + ":gc")

	err := a.HoldLock(ctx, "gc")
	if !errors.Is(err, ErrLeaseLost) {
		t.Fatalf("expected ErrLeaseLost, got %v", err)
	}
}

func TestHoldLockStopsOnCancel(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.Lease.TTL = time.Second
	cfg.Lease.RefreshInterval = 10 * time.Millisecond
	a := newTestCoordinator(t, rdb, cfg)

	ctx, cancel := context.WithCancel(context.Background())

	if acquired, _ := a.TryAcquireLock(ctx, "gc"); !acquired {
		t.Fatal("expected acquisition to succeed")
	}

	done := make(chan error, 1)
	go func() { done <- a.HoldLock(ctx, "gc") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("HoldLock did not return after cancellation")
	}
}
