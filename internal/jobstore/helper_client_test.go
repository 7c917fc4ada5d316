package jobstore_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rohmanhakim/scrapecache/internal/cache"
	"github.com/rohmanhakim/scrapecache/internal/snapshot"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

type clientMock struct {
	mock.Mock
}

func (c *clientMock) Get(ctx context.Context, key string) (string, bool) {
	args := c.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (c *clientMock) Set(ctx context.Context, key string, value any, ttl time.Duration) (bool, failure.ClassifiedError) {
	args := c.Called(ctx, key, value, ttl)
	return args.Bool(0), classifiedErrArg(args.Get(1))
}

func (c *clientMock) Delete(ctx context.Context, key string) bool {
	args := c.Called(ctx, key)
	return args.Bool(0)
}

func (c *clientMock) DeletePattern(ctx context.Context, pattern string) int {
	args := c.Called(ctx, pattern)
	return args.Int(0)
}

func (c *clientMock) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	args := c.Called(ctx, key, ttl)
	return args.Bool(0)
}

func (c *clientMock) IncrBy(ctx context.Context, key string, amount int64) (int64, bool) {
	args := c.Called(ctx, key, amount)
	return args.Get(0).(int64), args.Bool(1)
}

func (c *clientMock) DecrBy(ctx context.Context, key string, amount int64) (int64, bool) {
	args := c.Called(ctx, key, amount)
	return args.Get(0).(int64), args.Bool(1)
}

func (c *clientMock) IncrWithWindow(ctx context.Context, key string, window time.Duration) (int64, bool) {
	args := c.Called(ctx, key, window)
	return args.Get(0).(int64), args.Bool(1)
}

func (c *clientMock) HashSet(ctx context.Context, key string, field string, value any) (bool, failure.ClassifiedError) {
	args := c.Called(ctx, key, field, value)
	return args.Bool(0), classifiedErrArg(args.Get(1))
}

func (c *clientMock) HashGet(ctx context.Context, key string, field string) (string, bool) {
	args := c.Called(ctx, key, field)
	return args.String(0), args.Bool(1)
}

func (c *clientMock) HashGetAll(ctx context.Context, key string) map[string]string {
	args := c.Called(ctx, key)
	return args.Get(0).(map[string]string)
}

func (c *clientMock) HashSetAll(ctx context.Context, key string, fields map[string]string, ttl time.Duration) bool {
	args := c.Called(ctx, key, fields, ttl)
	return args.Bool(0)
}

func (c *clientMock) SetAdd(ctx context.Context, key string, members ...string) bool {
	args := c.Called(ctx, key, members)
	return args.Bool(0)
}

func (c *clientMock) SetRemove(ctx context.Context, key string, members ...string) bool {
	args := c.Called(ctx, key, members)
	return args.Bool(0)
}

func (c *clientMock) SetMembers(ctx context.Context, key string) []string {
	args := c.Called(ctx, key)
	return args.Get(0).([]string)
}

func (c *clientMock) QueuePush(ctx context.Context, key string, values ...string) bool {
	args := c.Called(ctx, key, values)
	return args.Bool(0)
}

func (c *clientMock) QueuePop(ctx context.Context, key string) (string, bool) {
	args := c.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (c *clientMock) QueueLen(ctx context.Context, key string) int64 {
	args := c.Called(ctx, key)
	return args.Get(0).(int64)
}

func (c *clientMock) Fetch(ctx context.Context, key string, ttl time.Duration, producer cache.Producer) (string, failure.ClassifiedError) {
	args := c.Called(ctx, key, ttl, producer)
	return args.String(0), classifiedErrArg(args.Get(1))
}

func (c *clientMock) Healthy(ctx context.Context) bool {
	args := c.Called(ctx)
	return args.Bool(0)
}

func (c *clientMock) MemoryUsage(ctx context.Context) (cache.MemoryStats, bool) {
	args := c.Called(ctx)
	return args.Get(0).(cache.MemoryStats), args.Bool(1)
}

func (c *clientMock) SweepUntracked(ctx context.Context, pattern string) int {
	args := c.Called(ctx, pattern)
	return args.Int(0)
}

func (c *clientMock) State() cache.ConnState {
	args := c.Called()
	return args.Get(0).(cache.ConnState)
}

func classifiedErrArg(arg interface{}) failure.ClassifiedError {
	if arg == nil {
		return nil
	}
	return arg.(failure.ClassifiedError)
}

type writerMock struct {
	mock.Mock
}

func (w *writerMock) Write(dir string, name string, payload any) (snapshot.WriteResult, failure.ClassifiedError) {
	args := w.Called(dir, name, payload)
	return args.Get(0).(snapshot.WriteResult), classifiedErrArg(args.Get(1))
}

func (w *writerMock) CleanupStale(dir string, maxAge time.Duration) (int, failure.ClassifiedError) {
	args := w.Called(dir, maxAge)
	return args.Int(0), classifiedErrArg(args.Get(1))
}
