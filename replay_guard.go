package goCoord

import (
	"context"

	"github.com/MrEthical07/goCoord/internal/kv"
)

// replayGuard blocks reuse of one-time codes. A (device, code) pair gets a
// marker key on first use; while the marker lives, the same code is a
// replay. The marker TTL is fixed and independent of the code's own validity
// window — it only has to outlive it.
type replayGuard struct {
	store  *kv.Store
	config ReplayConfig
}

func newReplayGuard(store *kv.Store, cfg ReplayConfig) *replayGuard {
	return &replayGuard{store: store, config: cfg}
}

func (g *replayGuard) key(deviceID, code string) string {
	return g.config.KeyPrefix + ":" + deviceID + ":" + code
}

// IsUsed reports whether the code was already consumed for the device.
func (g *replayGuard) IsUsed(ctx context.Context, deviceID, code string) (bool, error) {
	return g.store.Exists(ctx, g.key(deviceID, code))
}

// MarkUsed consumes the code for the device. Returns true only for the call
// that created the marker; false means the code was already consumed and the
// attempt is a replay.
func (g *replayGuard) MarkUsed(ctx context.Context, deviceID, code string) (bool, error) {
	return g.store.SetIfAbsent(ctx, g.key(deviceID, code), "1", g.config.TTL)
}
