package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/metrics"
	"github.com/rohmanhakim/scrapecache/pkg/timeutil"
)

// superviseReconnect launches a single background retry loop.
// The loop pings the backend with capped exponential backoff until it
// answers or the attempt budget is exhausted; after exhaustion the client
// settles in the degraded state and stops raising further errors.
//
// At most one supervisor runs at a time; a second Connect failure while
// one is active is a no-op.
func (r *RedisClient) superviseReconnect() {
	r.stateMu.Lock()
	if r.reconnecting {
		r.stateMu.Unlock()
		return
	}
	r.reconnecting = true
	r.stateMu.Unlock()

	go r.reconnectLoop()
}

func (r *RedisClient) reconnectLoop() {
	defer func() {
		r.stateMu.Lock()
		r.reconnecting = false
		r.stateMu.Unlock()
	}()

	rng := rand.New(rand.NewSource(r.param.RandomSeed()))
	maxAttempts := r.param.ReconnectMaxAttempts()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		delay := timeutil.ExponentialBackoffDelay(
			attempt,
			r.param.ReconnectJitter(),
			*rng,
			r.param.ReconnectBackoff(),
		)
		time.Sleep(delay)

		metrics.ReconnectAttemptsTotal.Inc()

		pingCtx, cancel := context.WithTimeout(context.Background(), r.param.ConnectTimeout())
		err := r.rdb.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			r.setState(ConnConnected)
			return
		}

		r.recordError("reconnect", metadata.CauseBackendUnavailable,
			fmt.Errorf("attempt %d/%d: %w", attempt, maxAttempts, err), nil)
	}

	// budget exhausted: stay degraded, keep serving no-op results
	r.setState(ConnDegraded)
}
