package goCoord

import (
	"context"

	"github.com/MrEthical07/goCoord/internal/kv"
)

// lockoutCounter tracks consecutive failed MFA verifications per user. The
// lockout TTL is re-applied on every failure, so a user who keeps failing
// stays locked out for a full window measured from their last failure. The
// caller compares the count against its own threshold; this type only
// counts.
type lockoutCounter struct {
	store  *kv.Store
	config LockoutConfig
}

func newLockoutCounter(store *kv.Store, cfg LockoutConfig) *lockoutCounter {
	return &lockoutCounter{store: store, config: cfg}
}

func (l *lockoutCounter) key(userID string) string {
	return l.config.KeyPrefix + ":" + userID
}

// Attempts returns the current failure count. A missing key is zero, not an
// error.
func (l *lockoutCounter) Attempts(ctx context.Context, userID string) (int, error) {
	count, ok, err := l.store.GetInt(ctx, l.key(userID))
	if err != nil {
		return 0, err
	}
	if !ok || count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Increment records one failed attempt and renews the lockout window.
func (l *lockoutCounter) Increment(ctx context.Context, userID string) error {
	if _, err := l.store.Increment(ctx, l.key(userID)); err != nil {
		return err
	}
	// Renew on every failure, not just the first: the window runs from the
	// most recent attempt.
	if _, err := l.store.SetExpiry(ctx, l.key(userID), l.config.TTL); err != nil {
		return err
	}
	return nil
}

// Reset clears the counter. Called only after a verified success.
func (l *lockoutCounter) Reset(ctx context.Context, userID string) error {
	_, err := l.store.Delete(ctx, l.key(userID))
	return err
}
