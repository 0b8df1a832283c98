package goCoord

import (
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goCoord/internal/kv"
)

// Builder assembles a [Coordinator] around one shared Redis client. A
// Builder is single-use: Build can succeed at most once.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	instanceID string

	built bool
}

// New creates a Builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the full configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the shared client every primitive will issue commands
// through. Construct the client once at process startup and pass it here;
// the coordination layer never opens connections of its own.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithInstanceID overrides the generated instance identity. The value is
// opaque to the layer; it only has to be unique per running process.
func (b *Builder) WithInstanceID(id string) *Builder {
	b.instanceID = id
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires every primitive to the shared
// store facade.
func (b *Builder) Build() (*Coordinator, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	instanceID := b.instanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	store := kv.New(b.redis)

	coordinator := &Coordinator{
		config:     cfg,
		instanceID: instanceID,
		lease:      newLeaseLock(store, cfg.Lease, instanceID),
		presence:   newPresenceRegistry(store, cfg.Presence, instanceID),
		limiter:    newRateLimiter(store, cfg.RateLimit),
		replay:     newReplayGuard(store, cfg.Replay),
		lockout:    newLockoutCounter(store, cfg.Lockout),
		metrics:    NewMetrics(cfg.Metrics),
	}

	b.built = true

	return coordinator, nil
}
