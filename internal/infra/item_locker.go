package infra

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"distillery/internal/ledger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lockRetryInterval = 100 * time.Millisecond

// RedisItemLocker takes one redislock per item so that postings from every API
// replica touching the same item run one after another.
type RedisItemLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisItemLocker builds a locker whose locks expire after ttl and which
// keeps retrying a busy key for up to wait before giving up.
func NewRedisItemLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisItemLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisItemLocker{client: redislock.New(rdb), ttl: ttl, wait: wait}
}

// Lock obtains every key in sorted order. If any key stays busy the locks
// already held are released and a *ledger.ConcurrencyConflictError is returned.
func (l *RedisItemLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = sortedKeys(keys)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), int(l.wait/lockRetryInterval)),
	}

	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		// The request context may already be cancelled; unlock on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				log.Warn().Err(err).Str("key", held[i].Key()).Msg("stock lock release failed")
			}
		}
	}

	for _, key := range keys {
		lock, err := l.client.Obtain(ctx, key, l.ttl, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, &ledger.ConcurrencyConflictError{Key: key}
			}
			return nil, &ledger.ConcurrencyConflictError{Key: key, Err: err}
		}
		held = append(held, lock)
	}
	return release, nil
}

// LocalItemLocker serializes postings inside a single process. It backs the
// CLI tools and tests, and the server when Redis is not configured.
type LocalItemLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

func NewLocalItemLocker(wait time.Duration) *LocalItemLocker {
	return &LocalItemLocker{slots: make(map[string]chan struct{}), wait: wait}
}

func (l *LocalItemLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *LocalItemLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = sortedKeys(keys)
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	held := make([]chan struct{}, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range keys {
		ch := l.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, &ledger.ConcurrencyConflictError{Key: key, Err: ctx.Err()}
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func sortedKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
