package cmd_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	cmd "github.com/rohmanhakim/scrapecache/internal/cli"
	"github.com/rohmanhakim/scrapecache/internal/config"
)

// TestInitConfigNoFlags tests that InitConfigWithError returns a Config with default values
func TestInitConfigNoFlags(t *testing.T) {
	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	defaultCfg, err := config.WithDefault().Build()
	if err != nil {
		t.Errorf("should not have any error, got %v", err)
	}

	// Verify that the returned config matches the default config for non-overridden values
	if cfg.RedisAddr() != defaultCfg.RedisAddr() {
		t.Errorf("Expected RedisAddr %s, got %s", defaultCfg.RedisAddr(), cfg.RedisAddr())
	}
	if cfg.KeyPrefix() != defaultCfg.KeyPrefix() {
		t.Errorf("Expected KeyPrefix %s, got %s", defaultCfg.KeyPrefix(), cfg.KeyPrefix())
	}
	if cfg.OutputDir() != defaultCfg.OutputDir() {
		t.Errorf("Expected OutputDir %s, got %s", defaultCfg.OutputDir(), cfg.OutputDir())
	}
	if cfg.LocalSave() != defaultCfg.LocalSave() {
		t.Errorf("Expected LocalSave %t, got %t", defaultCfg.LocalSave(), cfg.LocalSave())
	}
	if cfg.StreamChunkSize() != defaultCfg.StreamChunkSize() {
		t.Errorf("Expected StreamChunkSize %d, got %d", defaultCfg.StreamChunkSize(), cfg.StreamChunkSize())
	}
}

// TestInitConfigWithBackendFlags tests that backend flags are properly applied
func TestInitConfigWithBackendFlags(t *testing.T) {
	cmd.ResetFlags()

	cmd.SetRedisHostForTest("cache.internal")
	cmd.SetRedisPortForTest(6380)
	cmd.SetRedisPasswordForTest("secret")
	cmd.SetConnectTimeoutForTest(2 * time.Second)

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.RedisAddr() != "cache.internal:6380" {
		t.Errorf("Expected RedisAddr cache.internal:6380, got %s", cfg.RedisAddr())
	}
	if cfg.RedisPassword() != "secret" {
		t.Errorf("Expected RedisPassword secret, got %s", cfg.RedisPassword())
	}
	if cfg.ConnectTimeout() != 2*time.Second {
		t.Errorf("Expected ConnectTimeout 2s, got %v", cfg.ConnectTimeout())
	}
}

// TestInitConfigWithOutputFlags tests that output flags are properly applied
func TestInitConfigWithOutputFlags(t *testing.T) {
	cmd.ResetFlags()

	cmd.SetLocalSaveForTest(true)
	cmd.SetOutputDirForTest("/var/cache/scrapes")
	cmd.SetStaleTempAgeForTest(30 * time.Minute)
	cmd.SetStreamChunkSizeForTest(25)

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !cfg.LocalSave() {
		t.Error("Expected LocalSave true")
	}
	if cfg.OutputDir() != "/var/cache/scrapes" {
		t.Errorf("Expected OutputDir /var/cache/scrapes, got %s", cfg.OutputDir())
	}
	if cfg.StaleTempAge() != 30*time.Minute {
		t.Errorf("Expected StaleTempAge 30m, got %v", cfg.StaleTempAge())
	}
	if cfg.StreamChunkSize() != 25 {
		t.Errorf("Expected StreamChunkSize 25, got %d", cfg.StreamChunkSize())
	}
}

// TestInitConfigWithConfigFile tests that the config file path takes precedence over flags
func TestInitConfigWithConfigFile(t *testing.T) {
	cmd.ResetFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"redisHost": "file-host", "keyPrefix": "fileprefix"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cmd.SetConfigFileForTest(path)
	cmd.SetRedisHostForTest("flag-host")

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.RedisHost() != "file-host" {
		t.Errorf("Expected config file to win, got RedisHost %s", cfg.RedisHost())
	}
	if cfg.KeyPrefix() != "fileprefix" {
		t.Errorf("Expected KeyPrefix fileprefix, got %s", cfg.KeyPrefix())
	}
}

// TestInitConfigWithMissingConfigFile tests error propagation for a bad path
func TestInitConfigWithMissingConfigFile(t *testing.T) {
	cmd.ResetFlags()

	cmd.SetConfigFileForTest("/nonexistent/config.json")

	_, err := cmd.InitConfigWithError()
	if err == nil {
		t.Fatal("Expected error for missing config file, got nil")
	}
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("Expected ErrFileDoesNotExist, got: %v", err)
	}
}

// TestInitConfigWithEnvFile tests the dotenv path
func TestInitConfigWithEnvFile(t *testing.T) {
	cmd.ResetFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "SCRAPECACHE_REDIS_HOST=env-host\nSCRAPECACHE_KEY_PREFIX=envprefix\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SCRAPECACHE_REDIS_HOST")
		os.Unsetenv("SCRAPECACHE_KEY_PREFIX")
	})

	cmd.SetEnvFileForTest(path)

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.RedisHost() != "env-host" {
		t.Errorf("Expected RedisHost env-host, got %s", cfg.RedisHost())
	}
	if cfg.KeyPrefix() != "envprefix" {
		t.Errorf("Expected KeyPrefix envprefix, got %s", cfg.KeyPrefix())
	}
}

// TestInitConfigWithInvalidKeyPrefix tests that builder validation surfaces
func TestInitConfigWithInvalidKeyPrefix(t *testing.T) {
	cmd.ResetFlags()

	cmd.SetKeyPrefixForTest("")
	cmd.SetStreamChunkSizeForTest(-5)

	cfg, err := cmd.InitConfigWithError()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// empty and negative flags fall back to defaults rather than failing
	if cfg.KeyPrefix() != "scrapecache" {
		t.Errorf("Expected default KeyPrefix, got %s", cfg.KeyPrefix())
	}
	if cfg.StreamChunkSize() != 10 {
		t.Errorf("Expected default StreamChunkSize, got %d", cfg.StreamChunkSize())
	}
}
