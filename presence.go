package goCoord

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MrEthical07/goCoord/internal/kv"
)

// Instance is one live entry of the presence registry.
type Instance struct {
	ID            string
	LastHeartbeat time.Time
}

// presenceRegistry tracks which instances are alive via a shared sorted set:
// member = instance ID, score = last-heartbeat Unix time. Every instance
// refreshes its own record and prunes everyone's stale ones.
type presenceRegistry struct {
	store      *kv.Store
	config     PresenceConfig
	instanceID string

	now func() time.Time
}

func newPresenceRegistry(store *kv.Store, cfg PresenceConfig, instanceID string) *presenceRegistry {
	return &presenceRegistry{
		store:      store,
		config:     cfg,
		instanceID: instanceID,
		now:        time.Now,
	}
}

// Heartbeat records this instance as alive right now. Re-registering an
// existing instance only moves its score forward.
func (p *presenceRegistry) Heartbeat(ctx context.Context) error {
	score := float64(p.now().Unix())
	return p.store.AddToSortedSet(ctx, p.config.RegistryKey, score, p.instanceID)
}

// PruneStale removes every record whose heartbeat is older than MaxLifetime.
// Any instance may prune any other's record; ownership only matters for
// refreshing.
func (p *presenceRegistry) PruneStale(ctx context.Context) (int64, error) {
	cutoff := p.now().Unix() - int64(p.config.MaxLifetime/time.Second)
	return p.store.RemoveSortedSetRangeByScore(ctx, p.config.RegistryKey, "-inf", fmt.Sprintf("%d", cutoff))
}

// Active returns the instances whose heartbeat falls within MaxLifetime,
// newest scores included.
func (p *presenceRegistry) Active(ctx context.Context) ([]Instance, error) {
	cutoff := p.now().Unix() - int64(p.config.MaxLifetime/time.Second)
	members, err := p.store.SortedSetRangeByScore(ctx, p.config.RegistryKey, fmt.Sprintf("(%d", cutoff), "+inf")
	if err != nil {
		return nil, err
	}

	instances := make([]Instance, 0, len(members))
	for _, m := range members {
		instances = append(instances, Instance{
			ID:            m.Value,
			LastHeartbeat: time.Unix(int64(m.Score), 0),
		})
	}
	return instances, nil
}

// Run registers this instance immediately, then re-registers and prunes at
// the heartbeat interval until ctx is canceled. Under FailFast any cycle
// error ends the loop: running without an accurate presence record is worse
// than not running at all.
func (p *presenceRegistry) Run(ctx context.Context) error {
	if err := p.cycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.cycle(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *presenceRegistry) cycle(ctx context.Context) error {
	if err := p.Heartbeat(ctx); err != nil {
		return p.fail("heartbeat", err)
	}
	if _, err := p.PruneStale(ctx); err != nil {
		return p.fail("prune", err)
	}
	return nil
}

func (p *presenceRegistry) fail(step string, err error) error {
	if p.config.FailurePolicy == LogAndContinue {
		log.Printf("goCoord: presence %s failed: %v", step, err)
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrPresenceLoop, step, err)
}
