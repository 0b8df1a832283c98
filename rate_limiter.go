package goCoord

import (
	"context"
	"time"

	"github.com/MrEthical07/goCoord/internal/kv"
)

// rateLimiter is a fixed-window request counter per caller identity. The
// window boundary is set by the expiry of the first increment in the window;
// every later request shares it. A burst straddling the boundary can admit
// up to twice the limit — an accepted property of fixed windows, not a bug.
type rateLimiter struct {
	store  *kv.Store
	config RateLimitConfig
}

func newRateLimiter(store *kv.Store, cfg RateLimitConfig) *rateLimiter {
	return &rateLimiter{store: store, config: cfg}
}

func (l *rateLimiter) key(identity string) string {
	return l.config.KeyPrefix + ":" + identity
}

// CheckAndConsume counts one request against identity's window. Returns 0
// when the request is within budget, otherwise how long the caller must wait
// before the window resets.
func (l *rateLimiter) CheckAndConsume(ctx context.Context, identity string, limit int) (time.Duration, error) {
	count, err := l.store.Increment(ctx, l.key(identity))
	if err != nil {
		return 0, err
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if _, err := l.store.SetExpiry(ctx, l.key(identity), l.config.Window); err != nil {
			return 0, err
		}
	}

	if count > int64(limit) {
		remaining, ok, err := l.store.TimeToLive(ctx, l.key(identity))
		if err != nil {
			return 0, err
		}
		if !ok {
			// Window expired between the increment and the TTL read; the
			// caller may retry immediately.
			return 0, nil
		}
		return remaining, nil
	}

	return 0, nil
}
