package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the backing store could not execute a command.
var ErrUnavailable = errors.New("kv store unavailable")

// Member is one sorted-set entry with its score.
type Member struct {
	Value string
	Score float64
}

// Store wraps a shared Redis client behind the minimal atomic command set
// the coordination primitives need. One Store is constructed per process and
// passed explicitly to every primitive.
type Store struct {
	redis redis.UniversalClient
}

// New creates a Store over the given client.
func New(redisClient redis.UniversalClient) *Store {
	return &Store{redis: redisClient}
}

// Increment atomically increments the integer value at key and returns the
// new count. A missing key counts from zero.
func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

// SetIfAbsent writes value with the given TTL only when key does not exist.
// Returns true when this call created the key.
func (s *Store) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	created, err := s.redis.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return created, nil
}

// Get returns the value at key. ok is false when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// GetInt returns the integer value at key, or 0 with ok=false when the key
// does not exist.
func (s *Store) GetInt(ctx context.Context, key string) (int64, bool, error) {
	count, err := s.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, true, nil
}

// GetAndRefreshExpiry returns the value at key and, in the same command,
// extends its TTL. ok is false when the key does not exist.
func (s *Store) GetAndRefreshExpiry(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	value, err := s.redis.GetEx(ctx, key, ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// SetExpiry replaces the TTL on key. Returns false when the key does not
// exist (nothing to expire).
func (s *Store) SetExpiry(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := s.redis.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return set, nil
}

// TimeToLive returns the remaining TTL on key. ok is false when the key does
// not exist or carries no expiry.
func (s *Store) TimeToLive(ctx context.Context, key string) (time.Duration, bool, error) {
	ttl, err := s.redis.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// Redis reports -2 for a missing key and -1 for a key without expiry.
	if ttl < 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Delete removes key. Returns true when a key was actually removed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// AddToSortedSet adds member to the sorted set at setKey with the given
// score. Re-adding an existing member updates its score in place.
func (s *Store) AddToSortedSet(ctx context.Context, setKey string, score float64, member string) error {
	if err := s.redis.ZAdd(ctx, setKey, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RemoveSortedSetRangeByScore removes every member of the sorted set at
// setKey whose score falls within [minScore, maxScore]. The bounds use Redis
// range syntax, e.g. "-inf" for an open lower bound.
func (s *Store) RemoveSortedSetRangeByScore(ctx context.Context, setKey, minScore, maxScore string) (int64, error) {
	removed, err := s.redis.ZRemRangeByScore(ctx, setKey, minScore, maxScore).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return removed, nil
}

// SortedSetRangeByScore returns the members of the sorted set at setKey with
// scores within [minScore, maxScore], together with their scores.
func (s *Store) SortedSetRangeByScore(ctx context.Context, setKey, minScore, maxScore string) ([]Member, error) {
	entries, err := s.redis.ZRangeByScoreWithScores(ctx, setKey, &redis.ZRangeBy{
		Min: minScore,
		Max: maxScore,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	members := make([]Member, 0, len(entries))
	for _, entry := range entries {
		value, ok := entry.Member.(string)
		if !ok {
			continue
		}
		members = append(members, Member{Value: value, Score: entry.Score})
	}
	return members, nil
}
