package goCoord

import (
	"errors"

	"github.com/MrEthical07/goCoord/internal/kv"
)

var (
	// ErrStoreUnavailable indicates the shared Redis store could not execute
	// a command. Every primitive surfaces backend failures through it; no
	// operation silently degrades when the store is down.
	ErrStoreUnavailable = kv.ErrUnavailable
	// ErrNotBuilt is returned when an operation is invoked on a Coordinator
	// that was not produced by [Builder.Build].
	ErrNotBuilt = errors.New("coordinator not initialized")
	// ErrPresenceLoop is returned by RunPresence when a heartbeat cycle fails
	// under the fail-fast policy.
	ErrPresenceLoop = errors.New("presence heartbeat cycle failed")
	// ErrLeaseLost is returned by HoldLock when a refresh observes another
	// holder or an expired lease under the fail-fast policy.
	ErrLeaseLost = errors.New("lease lost")
)
