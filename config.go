package goCoord

import (
	"errors"
	"time"
)

// Config carries every tuning knob of the coordination layer.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Lease     LeaseConfig
	Presence  PresenceConfig
	RateLimit RateLimitConfig
	Replay    ReplayConfig
	Lockout   LockoutConfig
	Metrics   MetricsConfig
}

// FailurePolicy decides what a background loop does when a store command
// fails mid-cycle.
type FailurePolicy int

const (
	// FailFast stops the loop and returns the error to the caller. The
	// process is expected to exit rather than run with a stale presence
	// record or an unrefreshed lease.
	FailFast FailurePolicy = iota
	// LogAndContinue logs the failure and retries on the next tick. Choose
	// this only when availability matters more than accurate membership.
	LogAndContinue
)

/*
====================================
LEASE CONFIG
====================================
*/

// LeaseConfig tunes the singleton worker lock.
type LeaseConfig struct {
	// KeyPrefix namespaces lock keys in the shared store.
	KeyPrefix string
	// TTL is the lease duration applied on acquisition and refresh. A
	// crashed holder's lock self-expires after this long.
	TTL time.Duration
	// RefreshInterval is the HoldLock cadence. Must be shorter than TTL so a
	// live holder never lets its lease lapse under scheduling jitter.
	RefreshInterval time.Duration
	// FailurePolicy governs HoldLock behavior on refresh errors.
	FailurePolicy FailurePolicy
}

/*
====================================
PRESENCE CONFIG
====================================
*/

// PresenceConfig tunes the instance liveness registry.
type PresenceConfig struct {
	// RegistryKey is the sorted-set key holding one member per live
	// instance, scored by last-heartbeat Unix time.
	RegistryKey string
	// HeartbeatInterval is the RunPresence cadence.
	HeartbeatInterval time.Duration
	// MaxLifetime is how stale a record may grow before any instance's
	// prune cycle removes it. Must exceed HeartbeatInterval.
	MaxLifetime time.Duration
	// FailurePolicy governs RunPresence behavior on heartbeat errors.
	FailurePolicy FailurePolicy
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig tunes the fixed-window request counter.
type RateLimitConfig struct {
	// KeyPrefix namespaces per-identity counter keys.
	KeyPrefix string
	// Window is the fixed window length. The window boundary is set by the
	// first request in the window and shared by all requests until expiry.
	Window time.Duration
}

/*
====================================
REPLAY CONFIG
====================================
*/

// ReplayConfig tunes one-time-code replay protection.
type ReplayConfig struct {
	// KeyPrefix namespaces (device, code) marker keys.
	KeyPrefix string
	// TTL is how long a consumed code stays blocked. It is independent of
	// the code's own validity window and only needs to outlive it.
	TTL time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig tunes the failed-attempt counter for MFA verification.
type LockoutConfig struct {
	// KeyPrefix namespaces per-user attempt counter keys.
	KeyPrefix string
	// TTL is the lockout window, re-applied on every failed attempt so the
	// window is measured from the most recent failure.
	TTL time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Lease: LeaseConfig{
			KeyPrefix:       "lock",
			TTL:             60 * time.Second,
			RefreshInterval: 55 * time.Second,
			FailurePolicy:   FailFast,
		},
		Presence: PresenceConfig{
			RegistryKey:       "instances",
			HeartbeatInterval: 60 * time.Second,
			MaxLifetime:       3 * time.Minute,
			FailurePolicy:     FailFast,
		},
		RateLimit: RateLimitConfig{
			KeyPrefix: "rl",
			Window:    time.Minute,
		},
		Replay: ReplayConfig{
			KeyPrefix: "totp:used",
			TTL:       90 * time.Second,
		},
		Lockout: LockoutConfig{
			KeyPrefix: "mfa:attempts",
			TTL:       5 * time.Minute,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c Config) Validate() error {
	if c.Lease.TTL <= 0 {
		return errors.New("Lease TTL must be positive")
	}
	if c.Lease.RefreshInterval <= 0 || c.Lease.RefreshInterval >= c.Lease.TTL {
		return errors.New("Lease RefreshInterval must be positive and shorter than TTL")
	}
	if c.Lease.KeyPrefix == "" {
		return errors.New("Lease KeyPrefix required")
	}
	if c.Presence.RegistryKey == "" {
		return errors.New("Presence RegistryKey required")
	}
	if c.Presence.HeartbeatInterval <= 0 {
		return errors.New("Presence HeartbeatInterval must be positive")
	}
	if c.Presence.MaxLifetime <= c.Presence.HeartbeatInterval {
		return errors.New("Presence MaxLifetime must exceed HeartbeatInterval")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RateLimit Window must be positive")
	}
	if c.RateLimit.KeyPrefix == "" {
		return errors.New("RateLimit KeyPrefix required")
	}
	if c.Replay.TTL <= 0 {
		return errors.New("Replay TTL must be positive")
	}
	if c.Replay.KeyPrefix == "" {
		return errors.New("Replay KeyPrefix required")
	}
	if c.Lockout.TTL <= 0 {
		return errors.New("Lockout TTL must be positive")
	}
	if c.Lockout.KeyPrefix == "" {
		return errors.New("Lockout KeyPrefix required")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}
