package goCoord

import (
	"context"
	"log"
	"time"

	"github.com/MrEthical07/goCoord/internal/kv"
)

// leaseLock implements exclusive singleton ownership of a named role.
// Acquisition is a single set-if-absent; expiry is the only release path, so
// a crashed holder's lock is reclaimed after TTL with no cleanup step.
type leaseLock struct {
	store    *kv.Store
	config   LeaseConfig
	holderID string
}

func newLeaseLock(store *kv.Store, cfg LeaseConfig, holderID string) *leaseLock {
	return &leaseLock{store: store, config: cfg, holderID: holderID}
}

func (l *leaseLock) key(name string) string {
	return l.config.KeyPrefix + ":" + name
}

// TryAcquire attempts to take the named lock for this instance. Returns
// false when another holder currently owns it; that is contention, not an
// error.
func (l *leaseLock) TryAcquire(ctx context.Context, name string) (bool, error) {
	return l.store.SetIfAbsent(ctx, l.key(name), l.holderID, l.config.TTL)
}

// Refresh extends the lease when this instance still holds it. The holder
// read and the TTL extension happen in one command; a mismatched holder
// returns false with no further mutation. The read already bumped the TTL in
// that case, a known imprecision accepted for keeping the facade to
// single-command atomics.
func (l *leaseLock) Refresh(ctx context.Context, name string) (bool, error) {
	holder, ok, err := l.store.GetAndRefreshExpiry(ctx, l.key(name), l.config.TTL)
	if err != nil {
		return false, err
	}
	if !ok || holder != l.holderID {
		return false, nil
	}

	// Normalize the expiry window to the intended TTL.
	if _, err := l.store.SetExpiry(ctx, l.key(name), l.config.TTL); err != nil {
		return false, err
	}
	return true, nil
}

// Hold refreshes the named lock at the configured interval until ctx is
// canceled or the lease is lost. The caller must have acquired the lock
// first; Hold never acquires.
func (l *leaseLock) Hold(ctx context.Context, name string) error {
	ticker := time.NewTicker(l.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			held, err := l.Refresh(ctx, name)
			if err != nil {
				if l.config.FailurePolicy == LogAndContinue {
					log.Printf("goCoord: lock %q refresh failed: %v", name, err)
					continue
				}
				return err
			}
			if !held {
				return ErrLeaseLost
			}
		}
	}
}
