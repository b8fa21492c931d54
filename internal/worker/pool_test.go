package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func withPopBackoff(t *testing.T, d time.Duration) {
	t.Helper()
	prev := popBackoff
	popBackoff = d
	t.Cleanup(func() { popBackoff = prev })
}

func TestAfterPopError_EmptyQueueRetriesImmediately(t *testing.T) {
	withPopBackoff(t, time.Hour)

	start := time.Now()
	assert.True(t, afterPopError(context.Background(), redis.Nil, 0))
	assert.Less(t, time.Since(start), time.Second)
}

func TestAfterPopError_RedisFailureBacksOff(t *testing.T) {
	withPopBackoff(t, 50*time.Millisecond)

	start := time.Now()
	assert.True(t, afterPopError(context.Background(), errors.New("connection refused"), 0))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestAfterPopError_StopsWhenCancelled(t *testing.T) {
	withPopBackoff(t, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, afterPopError(ctx, errors.New("connection refused"), 0))

	ctx, cancel = context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	assert.False(t, afterPopError(ctx, errors.New("connection refused"), 0))
	assert.Less(t, time.Since(start), time.Second)
}
