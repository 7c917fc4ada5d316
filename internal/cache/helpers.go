package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rohmanhakim/scrapecache/internal/metrics"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

// Generic helpers built on the same primitives as the core surface.
// They inherit the same degradation contract: no availability errors.

// QueuePush appends values to the tail of a list-backed queue.
func (r *RedisClient) QueuePush(ctx context.Context, key string, values ...string) bool {
	if len(values) == 0 {
		return false
	}
	if !r.connected() {
		r.recordDegraded("QueuePush", key)
		return false
	}
	if err := r.rdb.RPush(ctx, key, toInterfaces(values)...).Err(); err != nil {
		r.absorb("QueuePush", key, err)
		return false
	}
	return true
}

// QueuePop removes and returns the head of a list-backed queue.
func (r *RedisClient) QueuePop(ctx context.Context, key string) (string, bool) {
	if !r.connected() {
		r.recordDegraded("QueuePop", key)
		return "", false
	}
	val, err := r.rdb.LPop(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.absorb("QueuePop", key, err)
		return "", false
	}
	return val, true
}

func (r *RedisClient) QueueLen(ctx context.Context, key string) int64 {
	if !r.connected() {
		r.recordDegraded("QueueLen", key)
		return 0
	}
	length, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		r.absorb("QueueLen", key, err)
		return 0
	}
	return length
}

// Fetch is compute-if-absent: get the key, and on a miss invoke the
// producer, store its result under ttl, and return it.
//
// This is not a cross-process lock. Two concurrent callers missing the
// same key may both invoke the producer; the contract is best-effort and
// depends on the producer being idempotent. While the backend is down the
// producer still runs and its result is returned without being stored.
func (r *RedisClient) Fetch(ctx context.Context, key string, ttl time.Duration, producer Producer) (string, failure.ClassifiedError) {
	if cached, ok := r.Get(ctx, key); ok {
		return cached, nil
	}

	produced, perr := producer()
	if perr != nil {
		return "", perr
	}

	encoded, serr := marshalValue(key, produced)
	if serr != nil {
		return "", serr
	}

	if _, err := r.Set(ctx, key, encoded, ttl); err != nil {
		return "", err
	}
	metrics.CacheOpsTotal.WithLabelValues("fetch", "miss").Inc()
	return encoded, nil
}
