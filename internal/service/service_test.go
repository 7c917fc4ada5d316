package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rohmanhakim/scrapecache/internal/config"
	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/service"
)

func newDegradedConfig(t *testing.T) config.Config {
	t.Helper()
	// port 1 is unassigned; the dial fails immediately
	cfg, err := config.WithDefault().
		WithRedisHost("127.0.0.1").
		WithRedisPort(1).
		WithConnectTimeout(50 * time.Millisecond).
		WithReconnectInitialDuration(10 * time.Millisecond).
		WithReconnectMaxDuration(20 * time.Millisecond).
		WithReconnectJitter(0).
		WithReconnectMaxAttempts(1).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return cfg
}

func TestNew_UnreachableBackendStillYieldsUsableService(t *testing.T) {
	svc, err := service.New(context.Background(), newDegradedConfig(t), &metadata.NoopSink{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer svc.Shutdown()

	if svc.Store() == nil || svc.Limiter() == nil || svc.Writer() == nil || svc.Breaker() == nil {
		t.Fatal("service returned nil components")
	}

	// every surface degrades instead of raising
	if _, found := svc.Store().GetJob(context.Background(), "j-1"); found {
		t.Error("GetJob found a record on an unreachable backend")
	}
	decision, derr := svc.Limiter().Check(context.Background(), "tenant-1", 5, time.Minute)
	if derr != nil {
		t.Fatalf("Check error = %v", derr)
	}
	if !decision.Allowed() {
		t.Error("limiter must fail open while degraded")
	}
}

func TestNew_RejectsInvalidKeyPrefix(t *testing.T) {
	cfg := newDegradedConfig(t)
	bad, err := config.WithDefault().
		WithRedisHost(cfg.RedisHost()).
		WithRedisPort(cfg.RedisPort()).
		WithKeyPrefix("bad:prefix").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, err := service.New(context.Background(), bad, &metadata.NoopSink{}); err == nil {
		t.Fatal("New() accepted a prefix containing the key separator")
	}
}

func TestShutdown(t *testing.T) {
	svc, err := service.New(context.Background(), newDegradedConfig(t), &metadata.NoopSink{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := svc.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
