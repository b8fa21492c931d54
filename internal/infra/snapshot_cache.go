package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"distillery/internal/planning"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisSnapshotCache keeps each organization's forecast snapshot in Redis.
// Every failure degrades to a cache miss so forecasts keep working on the ledger.
type RedisSnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
	cb  *CircuitBreaker
}

func NewRedisSnapshotCache(rdb *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisSnapshotCache{rdb: rdb, ttl: ttl, cb: NewCircuitBreaker(DefaultCBConfig())}
}

func snapshotKey(orgID uuid.UUID) string {
	return fmt.Sprintf("forecast:snapshot:%s", orgID)
}

func generationKey(orgID uuid.UUID) string {
	return fmt.Sprintf("forecast:gen:%s", orgID)
}

// setIfGeneration writes KEYS[2] only while KEYS[1] still holds ARGV[1].
// A missing generation counts as 0.
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[1]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *RedisSnapshotCache) Get(ctx context.Context, orgID uuid.UUID) (planning.Snapshot, bool) {
	var raw []byte
	err := c.cb.Execute(func() error {
		b, err := c.rdb.Get(ctx, snapshotKey(orgID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		raw = b
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrCircuitOpen) {
			log.Warn().Err(err).Str("organization_id", orgID.String()).Msg("snapshot cache read failed")
		}
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var snap planning.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Warn().Err(err).Str("organization_id", orgID.String()).Msg("snapshot cache entry unreadable")
		return nil, false
	}
	return snap, true
}

// Generation returns the organization's invalidation counter, 0 before the first posting.
func (c *RedisSnapshotCache) Generation(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var gen int64
	err := c.cb.Execute(func() error {
		n, err := c.rdb.Get(ctx, generationKey(orgID)).Int64()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		gen = n
		return err
	})
	return gen, err
}

func (c *RedisSnapshotCache) Set(ctx context.Context, orgID uuid.UUID, gen int64, snap planning.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.cb.Execute(func() error {
		stored, err := setIfGeneration.Run(ctx, c.rdb,
			[]string{generationKey(orgID), snapshotKey(orgID)},
			gen, b, c.ttl.Milliseconds(),
		).Int()
		if err != nil {
			return err
		}
		if stored == 0 {
			log.Debug().Str("organization_id", orgID.String()).Int64("generation", gen).Msg("stale snapshot not cached")
		}
		return nil
	})
}

// Invalidate bumps the generation and drops the cached snapshot in one transaction.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, orgID uuid.UUID) error {
	return c.cb.Execute(func() error {
		_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, generationKey(orgID))
			pipe.Del(ctx, snapshotKey(orgID))
			return nil
		})
		return err
	})
}
