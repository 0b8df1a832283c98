package goCoord

import (
	"context"
	"time"
)

// Coordinator is the public surface of the coordination layer. Every method
// issues single atomic commands against the shared store; no state about
// leases, presence, or counters is held in process memory.
//
// Coordinator methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
type Coordinator struct {
	config     Config
	instanceID string

	lease    *leaseLock
	presence *presenceRegistry
	limiter  *rateLimiter
	replay   *replayGuard
	lockout  *lockoutCounter
	metrics  *Metrics
}

// InstanceID returns this process's opaque identity, used as the lock holder
// ID and presence registry member.
func (c *Coordinator) InstanceID() string {
	if c == nil {
		return ""
	}
	return c.instanceID
}

// Metrics exposes the in-process counters.
func (c *Coordinator) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

func (c *Coordinator) ready() error {
	if c == nil || c.lease == nil {
		return ErrNotBuilt
	}
	return nil
}

// storeErr counts a backend failure. The error already wraps
// [ErrStoreUnavailable] from the facade.
func (c *Coordinator) storeErr(err error) error {
	c.metrics.Inc(MetricStoreError)
	return err
}

/*
====================================
LEASE LOCK
====================================
*/

// TryAcquireLock attempts to claim exclusive ownership of the named worker
// role for this instance. A false return means another holder currently owns
// it — expected contention, not an error. There is no release call: the
// lease lapses on its own after the configured TTL when the holder stops
// refreshing.
func (c *Coordinator) TryAcquireLock(ctx context.Context, name string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	acquired, err := c.lease.TryAcquire(ctx, name)
	if err != nil {
		return false, c.storeErr(err)
	}
	if acquired {
		c.metrics.Inc(MetricLockAcquired)
	} else {
		c.metrics.Inc(MetricLockContended)
	}
	return acquired, nil
}

// RefreshLock extends the lease on the named lock when this instance still
// holds it. Returns false when the lease expired or another holder took
// over; the caller must stop its singleton work in that case. Holder check
// and TTL extension take two round trips, so a lock can in principle change
// hands in between — accepted for short TTLs, treat this as best-effort
// leader election rather than strict mutual exclusion.
func (c *Coordinator) RefreshLock(ctx context.Context, name string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	held, err := c.lease.Refresh(ctx, name)
	if err != nil {
		return false, c.storeErr(err)
	}
	if held {
		c.metrics.Inc(MetricLockRefreshed)
	} else {
		c.metrics.Inc(MetricLockLost)
	}
	return held, nil
}

// HoldLock blocks, refreshing the named lock at the configured interval,
// until ctx is canceled or the lease is lost. Returns [ErrLeaseLost] when a
// refresh finds another holder, ctx.Err() on cancellation, or the refresh
// error under the FailFast policy.
func (c *Coordinator) HoldLock(ctx context.Context, name string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.lease.Hold(ctx, name)
}

/*
====================================
PRESENCE REGISTRY
====================================
*/

// Heartbeat records this instance in the presence registry with the current
// time.
func (c *Coordinator) Heartbeat(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.presence.Heartbeat(ctx); err != nil {
		return c.storeErr(err)
	}
	c.metrics.Inc(MetricHeartbeat)
	return nil
}

// PruneStalePresence removes registry records older than the configured max
// lifetime, regardless of which instance owns them.
func (c *Coordinator) PruneStalePresence(ctx context.Context) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	removed, err := c.presence.PruneStale(ctx)
	if err != nil {
		return 0, c.storeErr(err)
	}
	c.metrics.Add(MetricPresencePruned, uint64(removed))
	return removed, nil
}

// ActiveInstances lists the instances with a heartbeat inside the max
// lifetime window.
func (c *Coordinator) ActiveInstances(ctx context.Context) ([]Instance, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	instances, err := c.presence.Active(ctx)
	if err != nil {
		return nil, c.storeErr(err)
	}
	return instances, nil
}

// RunPresence registers this instance immediately, then heartbeats and
// prunes at the configured interval for the lifetime of ctx. Under the
// default FailFast policy the first failed cycle ends the loop with
// [ErrPresenceLoop]; the process should exit rather than keep serving with a
// stale or absent presence record.
func (c *Coordinator) RunPresence(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.presence.Run(ctx)
}

/*
====================================
RATE LIMITER
====================================
*/

// CheckRateLimit counts one request for the identity against the configured
// fixed window and returns 0 when allowed, or the time the caller must wait
// before retrying. Fixed windows admit up to twice the limit across a window
// boundary; callers needing smoother shaping must layer it above.
func (c *Coordinator) CheckRateLimit(ctx context.Context, identity string, limit int) (time.Duration, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	retryAfter, err := c.limiter.CheckAndConsume(ctx, identity, limit)
	if err != nil {
		return 0, c.storeErr(err)
	}
	if retryAfter > 0 {
		c.metrics.Inc(MetricRateLimitHit)
	} else {
		c.metrics.Inc(MetricRateLimitAllowed)
	}
	return retryAfter, nil
}

/*
====================================
REPLAY GUARD
====================================
*/

// IsCodeUsed reports whether the one-time code was already consumed for the
// device.
func (c *Coordinator) IsCodeUsed(ctx context.Context, deviceID, code string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	used, err := c.replay.IsUsed(ctx, deviceID, code)
	if err != nil {
		return false, c.storeErr(err)
	}
	return used, nil
}

// MarkCodeUsed consumes the one-time code for the device. Returns true for
// exactly one caller per (device, code) pair; false means the code was
// already consumed and this attempt is a replay.
func (c *Coordinator) MarkCodeUsed(ctx context.Context, deviceID, code string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	consumed, err := c.replay.MarkUsed(ctx, deviceID, code)
	if err != nil {
		return false, c.storeErr(err)
	}
	if consumed {
		c.metrics.Inc(MetricCodeConsumed)
	} else {
		c.metrics.Inc(MetricReplayBlocked)
	}
	return consumed, nil
}

/*
====================================
ATTEMPT LOCKOUT
====================================
*/

// MFAAttempts returns the user's consecutive failed MFA attempts. A user
// with no recorded failures is 0, never an error. The caller compares the
// count against its own maximum; whether to fail open or closed on
// [ErrStoreUnavailable] is the caller's security decision.
func (c *Coordinator) MFAAttempts(ctx context.Context, userID string) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	count, err := c.lockout.Attempts(ctx, userID)
	if err != nil {
		return 0, c.storeErr(err)
	}
	return count, nil
}

// IncrementMFAAttempts records one failed verification and renews the
// lockout window from now.
func (c *Coordinator) IncrementMFAAttempts(ctx context.Context, userID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.lockout.Increment(ctx, userID); err != nil {
		return c.storeErr(err)
	}
	c.metrics.Inc(MetricLockoutFailure)
	return nil
}

// ResetMFAAttempts clears the user's failure counter after a verified
// success.
func (c *Coordinator) ResetMFAAttempts(ctx context.Context, userID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.lockout.Reset(ctx, userID); err != nil {
		return c.storeErr(err)
	}
	c.metrics.Inc(MetricLockoutReset)
	return nil
}
