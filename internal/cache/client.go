package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/metrics"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

/*
Responsibilities
- Wrap the remote key/value backend behind a small, always-callable surface
- Degrade every operation to a documented absent/false/no-op result while
  the backend is unreachable, so callers never branch on availability
- Surface errors only for malformed input (non-encodable values)

Degradation Characteristics
- No operation raises on backend unavailability
- Absent results are indistinguishable from TTL expiry or LRU eviction,
  which is the contract callers must already handle
*/

// Client is the generic remote cache surface consumed by the job store
// and the rate limiter. Implementations must be safe for concurrent use.
type Client interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) (bool, failure.ClassifiedError)
	Delete(ctx context.Context, key string) bool
	DeletePattern(ctx context.Context, pattern string) int
	Expire(ctx context.Context, key string, ttl time.Duration) bool

	IncrBy(ctx context.Context, key string, amount int64) (int64, bool)
	DecrBy(ctx context.Context, key string, amount int64) (int64, bool)
	IncrWithWindow(ctx context.Context, key string, window time.Duration) (int64, bool)

	HashSet(ctx context.Context, key string, field string, value any) (bool, failure.ClassifiedError)
	HashGet(ctx context.Context, key string, field string) (string, bool)
	HashGetAll(ctx context.Context, key string) map[string]string
	HashSetAll(ctx context.Context, key string, fields map[string]string, ttl time.Duration) bool

	SetAdd(ctx context.Context, key string, members ...string) bool
	SetRemove(ctx context.Context, key string, members ...string) bool
	SetMembers(ctx context.Context, key string) []string

	QueuePush(ctx context.Context, key string, values ...string) bool
	QueuePop(ctx context.Context, key string) (string, bool)
	QueueLen(ctx context.Context, key string) int64

	Fetch(ctx context.Context, key string, ttl time.Duration, producer Producer) (string, failure.ClassifiedError)

	Healthy(ctx context.Context) bool
	MemoryUsage(ctx context.Context) (MemoryStats, bool)
	SweepUntracked(ctx context.Context, pattern string) int
	State() ConnState
}

// Producer computes a value for Fetch on a cache miss.
// It must be idempotent: two concurrent callers missing the same key may
// both invoke it, and whichever write lands last wins.
type Producer func() (any, failure.ClassifiedError)

type RedisClient struct {
	rdb        *redis.Client
	param      ConnParam
	defaultTTL time.Duration
	sink       metadata.MetadataSink

	stateMu      sync.Mutex
	state        ConnState
	reconnecting bool
}

// NewRedisClient builds a client in the disconnected state.
// Call Connect before use; until a connection succeeds every operation
// returns its degraded result.
func NewRedisClient(
	param ConnParam,
	defaultTTL time.Duration,
	sink metadata.MetadataSink,
) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:        param.Addr(),
		Password:    param.Password(),
		DialTimeout: param.ConnectTimeout(),
		// the supervisor owns retry policy
		MaxRetries: -1,
	})
	return &RedisClient{
		rdb:        rdb,
		param:      param,
		defaultTTL: defaultTTL,
		sink:       sink,
		state:      ConnDisconnected,
	}
}

// Connect attempts the initial connection within the configured timeout.
// On failure the client stays usable in degraded mode and a background
// supervisor keeps retrying with capped exponential backoff.
func (r *RedisClient) Connect(ctx context.Context) bool {
	r.setState(ConnConnecting)

	pingCtx, cancel := context.WithTimeout(ctx, r.param.ConnectTimeout())
	defer cancel()

	if err := r.rdb.Ping(pingCtx).Err(); err != nil {
		r.setState(ConnDisconnected)
		r.recordError("Connect", metadata.CauseBackendUnavailable, err, nil)
		r.superviseReconnect()
		return false
	}

	r.setState(ConnConnected)
	return true
}

func (r *RedisClient) Close() error {
	r.setState(ConnDisconnected)
	return r.rdb.Close()
}

func (r *RedisClient) State() ConnState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

func (r *RedisClient) connected() bool {
	return r.State() == ConnConnected
}

// Healthy reports whether the backend answers a ping right now.
// Safe to call in any state.
func (r *RedisClient) Healthy(ctx context.Context) bool {
	if !r.connected() {
		return false
	}
	return r.rdb.Ping(ctx).Err() == nil
}

func (r *RedisClient) Get(ctx context.Context, key string) (string, bool) {
	if !r.connected() {
		r.recordDegraded("Get", key)
		return "", false
	}
	val, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		r.sink.RecordCacheOp("Get", key, false, false, 0)
		return "", false
	}
	if err != nil {
		r.absorb("Get", key, err)
		return "", false
	}
	r.sink.RecordCacheOp("Get", key, true, false, 0)
	metrics.CacheOpsTotal.WithLabelValues("get", "hit").Inc()
	return val, true
}

// Set stores a value under key with the given TTL. A zero TTL falls back
// to the client default: in steady state every entry must expire.
func (r *RedisClient) Set(ctx context.Context, key string, value any, ttl time.Duration) (bool, failure.ClassifiedError) {
	encoded, serr := marshalValue(key, value)
	if serr != nil {
		return false, serr
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if !r.connected() {
		r.recordDegraded("Set", key)
		return false, nil
	}
	if err := r.rdb.Set(ctx, key, encoded, ttl).Err(); err != nil {
		r.absorb("Set", key, err)
		return false, nil
	}
	metrics.CacheOpsTotal.WithLabelValues("set", "ok").Inc()
	return true, nil
}

func (r *RedisClient) Delete(ctx context.Context, key string) bool {
	if !r.connected() {
		r.recordDegraded("Delete", key)
		return false
	}
	deleted, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		r.absorb("Delete", key, err)
		return false
	}
	return deleted > 0
}

// DeletePattern removes every key matching the glob and returns the count.
// Patterns come from keyutil.Pattern, so the deployment prefix bounds the scan.
func (r *RedisClient) DeletePattern(ctx context.Context, pattern string) int {
	if !r.connected() {
		r.recordDegraded("DeletePattern", pattern)
		return 0
	}
	keys, err := r.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		r.absorb("DeletePattern", pattern, err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	deleted, err := r.rdb.Del(ctx, keys...).Result()
	if err != nil {
		r.absorb("DeletePattern", pattern, err)
		return 0
	}
	return int(deleted)
}

func (r *RedisClient) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	if !r.connected() {
		r.recordDegraded("Expire", key)
		return false
	}
	ok, err := r.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		r.absorb("Expire", key, err)
		return false
	}
	return ok
}

func (r *RedisClient) IncrBy(ctx context.Context, key string, amount int64) (int64, bool) {
	if !r.connected() {
		r.recordDegraded("IncrBy", key)
		return 0, false
	}
	val, err := r.rdb.IncrBy(ctx, key, amount).Result()
	if err != nil {
		r.absorb("IncrBy", key, err)
		return 0, false
	}
	return val, true
}

func (r *RedisClient) DecrBy(ctx context.Context, key string, amount int64) (int64, bool) {
	if !r.connected() {
		r.recordDegraded("DecrBy", key)
		return 0, false
	}
	val, err := r.rdb.DecrBy(ctx, key, amount).Result()
	if err != nil {
		r.absorb("DecrBy", key, err)
		return 0, false
	}
	return val, true
}

// IncrWithWindow increments the counter and, only when the key is new,
// assigns the expiry window in the same transactional unit. The window is
// never extended by later increments.
func (r *RedisClient) IncrWithWindow(ctx context.Context, key string, window time.Duration) (int64, bool) {
	if !r.connected() {
		r.recordDegraded("IncrWithWindow", key)
		return 0, false
	}
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		r.absorb("IncrWithWindow", key, err)
		return 0, false
	}
	return incr.Val(), true
}

func (r *RedisClient) HashSet(ctx context.Context, key string, field string, value any) (bool, failure.ClassifiedError) {
	encoded, serr := marshalValue(key, value)
	if serr != nil {
		return false, serr
	}
	if !r.connected() {
		r.recordDegraded("HashSet", key)
		return false, nil
	}
	if err := r.rdb.HSet(ctx, key, field, encoded).Err(); err != nil {
		r.absorb("HashSet", key, err)
		return false, nil
	}
	return true, nil
}

func (r *RedisClient) HashGet(ctx context.Context, key string, field string) (string, bool) {
	if !r.connected() {
		r.recordDegraded("HashGet", key)
		return "", false
	}
	val, err := r.rdb.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.absorb("HashGet", key, err)
		return "", false
	}
	return val, true
}

func (r *RedisClient) HashGetAll(ctx context.Context, key string) map[string]string {
	if !r.connected() {
		r.recordDegraded("HashGetAll", key)
		return map[string]string{}
	}
	fields, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		r.absorb("HashGetAll", key, err)
		return map[string]string{}
	}
	return fields
}

// HashSetAll writes every field and the enclosing TTL as one pipelined
// transactional unit. Either all fields land or, on backend failure
// mid-pipeline, nothing is guaranteed durable and the caller retries
// the whole batch.
func (r *RedisClient) HashSetAll(ctx context.Context, key string, fields map[string]string, ttl time.Duration) bool {
	if len(fields) == 0 {
		return false
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if !r.connected() {
		r.recordDegraded("HashSetAll", key)
		return false
	}
	flat := make(map[string]interface{}, len(fields))
	for field, value := range fields {
		flat[field] = value
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, flat)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.absorb("HashSetAll", key, err)
		return false
	}
	metrics.CacheOpsTotal.WithLabelValues("hash_set_all", "ok").Inc()
	return true
}

func (r *RedisClient) SetAdd(ctx context.Context, key string, members ...string) bool {
	if len(members) == 0 {
		return false
	}
	if !r.connected() {
		r.recordDegraded("SetAdd", key)
		return false
	}
	if err := r.rdb.SAdd(ctx, key, toInterfaces(members)...).Err(); err != nil {
		r.absorb("SetAdd", key, err)
		return false
	}
	return true
}

func (r *RedisClient) SetRemove(ctx context.Context, key string, members ...string) bool {
	if len(members) == 0 {
		return false
	}
	if !r.connected() {
		r.recordDegraded("SetRemove", key)
		return false
	}
	if err := r.rdb.SRem(ctx, key, toInterfaces(members)...).Err(); err != nil {
		r.absorb("SetRemove", key, err)
		return false
	}
	return true
}

func (r *RedisClient) SetMembers(ctx context.Context, key string) []string {
	if !r.connected() {
		r.recordDegraded("SetMembers", key)
		return []string{}
	}
	members, err := r.rdb.SMembers(ctx, key).Result()
	if err != nil {
		r.absorb("SetMembers", key, err)
		return []string{}
	}
	return members
}

// MemoryUsage reports backend used memory and the configured ceiling.
// Observational only: nothing in this layer gates writes on headroom.
func (r *RedisClient) MemoryUsage(ctx context.Context) (MemoryStats, bool) {
	if !r.connected() {
		r.recordDegraded("MemoryUsage", "")
		return MemoryStats{}, false
	}
	info, err := r.rdb.Info(ctx, "memory").Result()
	if err != nil {
		r.absorb("MemoryUsage", "", err)
		return MemoryStats{}, false
	}
	used := parseInfoInt(info, "used_memory")

	var max int64
	conf, err := r.rdb.ConfigGet(ctx, "maxmemory").Result()
	if err != nil {
		r.absorb("MemoryUsage", "", err)
	} else if raw, ok := conf["maxmemory"]; ok {
		max, _ = strconv.ParseInt(raw, 10, 64)
	}

	metrics.BackendMemoryUsedBytes.Set(float64(used))
	metrics.BackendMemoryMaxBytes.Set(float64(max))
	return NewMemoryStats(used, max), true
}

// SweepUntracked deletes keys under the pattern that have no expiry.
// Under correct operation no such key exists; this is a defensive
// consistency sweep, not a normal-path operation.
func (r *RedisClient) SweepUntracked(ctx context.Context, pattern string) int {
	if !r.connected() {
		r.recordDegraded("SweepUntracked", pattern)
		return 0
	}
	keys, err := r.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		r.absorb("SweepUntracked", pattern, err)
		return 0
	}

	removed := 0
	for _, key := range keys {
		ttl, err := r.rdb.TTL(ctx, key).Result()
		if err != nil {
			r.absorb("SweepUntracked", key, err)
			continue
		}
		// -1 means the key exists without an expiry
		if ttl == -1 {
			r.recordError("SweepUntracked", metadata.CauseInvariantViolation,
				fmt.Errorf("key %s has no TTL", key),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrKey, key)},
			)
			if r.rdb.Del(ctx, key).Err() == nil {
				removed++
			}
		}
	}
	return removed
}

func (r *RedisClient) setState(state ConnState) {
	r.stateMu.Lock()
	prev := r.state
	r.state = state
	r.stateMu.Unlock()

	if prev != state {
		r.sink.RecordConnState(time.Now(), state.String())
		metrics.ConnState.Set(float64(state))
	}
}

// absorb swallows a backend failure: record it, count it, return nothing.
// This is the only place backend errors go; they never reach callers.
func (r *RedisClient) absorb(action string, key string, err error) {
	metrics.CacheOpsTotal.WithLabelValues(strings.ToLower(action), "error").Inc()
	r.recordError(action, metadata.CauseBackendUnavailable, err,
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrKey, key)},
	)
}

func (r *RedisClient) recordDegraded(action string, key string) {
	metrics.CacheOpsTotal.WithLabelValues(strings.ToLower(action), "degraded").Inc()
	r.sink.RecordCacheOp(action, key, false, true, 0)
}

func (r *RedisClient) recordError(action string, cause metadata.ErrorCause, err error, attrs []metadata.Attribute) {
	r.sink.RecordError(time.Now(), "cache", "RedisClient."+action, cause, err.Error(), attrs)
}

// marshalValue encodes a value for storage. Strings and byte slices pass
// through unchanged; everything else must be JSON-encodable.
func marshalValue(key string, value any) (string, failure.ClassifiedError) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", &CacheError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseSerialization,
				Key:       key,
			}
		}
		return string(encoded), nil
	}
}

func parseInfoInt(info string, field string) int64 {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, field+":") {
			raw := strings.TrimPrefix(line, field+":")
			parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err == nil {
				return parsed
			}
		}
	}
	return 0
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
