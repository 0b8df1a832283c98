package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goCoord"
)

func main() {
	var (
		instances   = flag.Int("instances", 8, "number of simulated instances")
		identities  = flag.Int("identities", 10000, "number of rate-limit identities")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		limit       = flag.Int("limit", 100, "rate limit per identity per window")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *instances <= 0 || *identities <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "instances, identities, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	nodes := make([]*goCoord.Coordinator, *instances)
	for i := range nodes {
		c, err := goCoord.New().
			WithRedis(client).
			WithInstanceID(fmt.Sprintf("load-node-%d", i)).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
			os.Exit(1)
		}
		nodes[i] = c
		if err := c.Heartbeat(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "heartbeat failed: %v\n", err)
			os.Exit(1)
		}
	}

	rateStats := runRatePhase(ctx, nodes, *identities, *limit, *ops, *concurrency)
	replayStats := runReplayPhase(ctx, nodes, *ops, *concurrency)
	lockStats := runLockPhase(ctx, nodes, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("rate-limit", rateStats)
	printStats("replay-guard", replayStats)
	printStats("lock-contend", lockStats)

	snap := nodes[0].Metrics().Snapshot()
	fmt.Printf("node-0 counters: allowed=%d limited=%d consumed=%d replayed=%d acquired=%d contended=%d\n",
		snap.Counters[goCoord.MetricRateLimitAllowed],
		snap.Counters[goCoord.MetricRateLimitHit],
		snap.Counters[goCoord.MetricCodeConsumed],
		snap.Counters[goCoord.MetricReplayBlocked],
		snap.Counters[goCoord.MetricLockAcquired],
		snap.Counters[goCoord.MetricLockContended],
	)
}

func runRatePhase(ctx context.Context, nodes []*goCoord.Coordinator, identities, limit, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(r *rand.Rand, i int) error {
		node := nodes[r.Intn(len(nodes))]
		identity := fmt.Sprintf("caller-%d", r.Intn(identities))
		_, err := node.CheckRateLimit(ctx, identity, limit)
		return err
	})
}

func runReplayPhase(ctx context.Context, nodes []*goCoord.Coordinator, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(r *rand.Rand, i int) error {
		node := nodes[r.Intn(len(nodes))]
		device := fmt.Sprintf("device-%d", r.Intn(1000))
		code := fmt.Sprintf("%06d", r.Intn(1_000_000))
		_, err := node.MarkCodeUsed(ctx, device, code)
		return err
	})
}

func runLockPhase(ctx context.Context, nodes []*goCoord.Coordinator, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(r *rand.Rand, i int) error {
		node := nodes[r.Intn(len(nodes))]
		name := fmt.Sprintf("role-%d", r.Intn(16))
		_, err := node.TryAcquireLock(ctx, name)
		return err
	})
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
