package service

import (
	"context"

	"github.com/rohmanhakim/scrapecache/internal/cache"
	"github.com/rohmanhakim/scrapecache/internal/config"
	"github.com/rohmanhakim/scrapecache/internal/jobstore"
	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/metrics"
	"github.com/rohmanhakim/scrapecache/internal/ratelimit"
	"github.com/rohmanhakim/scrapecache/internal/snapshot"
	"github.com/rohmanhakim/scrapecache/pkg/breaker"
	"github.com/rohmanhakim/scrapecache/pkg/hashutil"
	"github.com/rohmanhakim/scrapecache/pkg/keyutil"
	"github.com/rohmanhakim/scrapecache/pkg/timeutil"
)

// Service is the composition root. It owns the shared backend client and
// hands out the components wired on top of it. Nothing here lives in a
// package global; two Services in one process stay fully independent.
type Service struct {
	cfg     config.Config
	sink    metadata.MetadataSink
	client  *cache.RedisClient
	keys    keyutil.Builder
	store   jobstore.Store
	limiter ratelimit.WindowLimiter
	writer  *snapshot.LocalWriter
	brk     *breaker.Breaker
}

// New wires every component from the config. The backend connection is
// attempted once here; on failure the service is still returned fully
// usable in degraded mode while the client's supervisor keeps retrying.
func New(ctx context.Context, cfg config.Config, sink metadata.MetadataSink) (*Service, error) {
	keys, err := keyutil.NewBuilder(cfg.KeyPrefix())
	if err != nil {
		return nil, err
	}

	param := cache.NewConnParam(
		cfg.RedisAddr(),
		cfg.RedisPassword(),
		cfg.ConnectTimeout(),
		timeutil.NewBackoffParam(
			cfg.ReconnectInitialDuration(),
			cfg.ReconnectMultiplier(),
			cfg.ReconnectMaxDuration(),
		),
		cfg.ReconnectJitter(),
		cfg.ReconnectMaxAttempts(),
		cfg.RandomSeed(),
	)
	client := cache.NewRedisClient(param, cfg.DefaultTTL(), sink)
	client.Connect(ctx)

	writer := snapshot.NewLocalWriter(sink, hashutil.HashAlgoSHA256)
	store := jobstore.NewStore(
		client,
		keys,
		jobstore.NewTTLTiers(
			cfg.TTLJob(),
			cfg.TTLResults(),
			cfg.TTLActive(),
			cfg.TTLOwnerIndex(),
			cfg.TTLTransient(),
		),
		sink,
		&writer,
		cfg.LocalSave(),
		cfg.OutputDir(),
		cfg.StreamChunkSize(),
	)
	limiter := ratelimit.NewWindowLimiter(client, keys, sink)
	brk := breaker.New(
		"redis",
		cfg.BreakerFailureThreshold(),
		cfg.BreakerRecoveryTimeout(),
		breaker.WithObserver(&metrics.BreakerObserver{}),
	)

	return &Service{
		cfg:     cfg,
		sink:    sink,
		client:  client,
		keys:    keys,
		store:   store,
		limiter: limiter,
		writer:  &writer,
		brk:     brk,
	}, nil
}

// Shutdown releases the backend connection. The service must not be used
// after Shutdown returns.
func (s *Service) Shutdown() error {
	return s.client.Close()
}

func (s *Service) Config() config.Config {
	return s.cfg
}

func (s *Service) Client() *cache.RedisClient {
	return s.client
}

func (s *Service) Keys() keyutil.Builder {
	return s.keys
}

func (s *Service) Store() *jobstore.Store {
	return &s.store
}

func (s *Service) Limiter() *ratelimit.WindowLimiter {
	return &s.limiter
}

func (s *Service) Writer() *snapshot.LocalWriter {
	return s.writer
}

func (s *Service) Breaker() *breaker.Breaker {
	return s.brk
}
