package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/rohmanhakim/scrapecache/internal/cache"
	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/metrics"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
	"github.com/rohmanhakim/scrapecache/pkg/keyutil"
)

const namespace = "ratelimit"

// Limiter
// Specialized component to bound inbound request volume per identifier
// Responsibilities:
// - Count calls per identifier inside a fixed expiry window
// - Keep read-and-increment a single atomic unit on the backend
// - Fail open when the backend is unavailable
type Limiter interface {
	Check(ctx context.Context, identifier string, limit int, window time.Duration) (Decision, failure.ClassifiedError)
}

type WindowLimiter struct {
	client cache.Client
	keys   keyutil.Builder
	sink   metadata.MetadataSink
}

func NewWindowLimiter(
	client cache.Client,
	keys keyutil.Builder,
	sink metadata.MetadataSink,
) WindowLimiter {
	return WindowLimiter{
		client: client,
		keys:   keys,
		sink:   sink,
	}
}

// Check increments the identifier's counter and decides admission.
// The expiry is assigned only when the counter key is created, so the
// window is never extended by subsequent calls. A backend failure yields
// allowed=true with the full limit remaining (fail-open).
func (l *WindowLimiter) Check(
	ctx context.Context,
	identifier string,
	limit int,
	window time.Duration,
) (Decision, failure.ClassifiedError) {
	key, kerr := l.keys.Build(namespace, identifier)
	if kerr != nil {
		l.sink.RecordError(
			time.Now(),
			"ratelimit",
			"WindowLimiter.Check",
			metadata.CauseInvalidKey,
			kerr.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrIdentifier, identifier)},
		)
		return Decision{}, kerr
	}

	count, ok := l.client.IncrWithWindow(ctx, key, window)
	if !ok {
		// backend down: never block traffic on cache availability
		metrics.RateLimitDecisionsTotal.WithLabelValues("true").Inc()
		return NewDecision(true, limit), nil
	}

	allowed := count <= int64(limit)
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	metrics.RateLimitDecisionsTotal.WithLabelValues(strconv.FormatBool(allowed)).Inc()
	if !allowed {
		l.sink.RecordError(
			time.Now(),
			"ratelimit",
			"WindowLimiter.Check",
			metadata.CauseLimitExceeded,
			"limit exceeded",
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrIdentifier, identifier),
				metadata.NewAttr(metadata.AttrCount, strconv.FormatInt(count, 10)),
			},
		)
	}
	return NewDecision(allowed, remaining), nil
}
