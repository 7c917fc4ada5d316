package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	//===============
	// Backend
	//===============
	// Hostname of the remote cache backend
	redisHost string
	// Port of the remote cache backend
	redisPort int
	// Password for the remote cache backend. Empty means no auth
	redisPassword string
	// Maximum time a single connection attempt may take
	connectTimeout time.Duration

	//===============
	// Resilience
	//===============
	// Initial delay for the reconnect supervisor's backoff
	reconnectInitialDuration time.Duration
	// Multiplier during exponential reconnect backoff
	reconnectMultiplier float64
	// Capped maximum delay between reconnect attempts
	reconnectMaxDuration time.Duration
	// Maximum reconnect attempts before the client settles into degraded mode
	reconnectMaxAttempts int
	// Randomized variation added on top of each reconnect delay
	reconnectJitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// Consecutive failures before a circuit breaker opens
	breakerFailureThreshold int
	// How long an open breaker waits before allowing a probe
	breakerRecoveryTimeout time.Duration
	// Default per-identifier request ceiling within one rate-limit window
	rateLimitDefault int64
	// Fixed rate-limit window length
	rateLimitWindow time.Duration

	//===============
	// Cache
	//===============
	// Prefix distinguishing this deployment's keys
	keyPrefix string
	// Fallback TTL for entries written without an explicit tier
	defaultTTL time.Duration
	// Expiry tier for job records
	ttlJob time.Duration
	// Expiry tier for result partitions
	ttlResults time.Duration
	// Expiry tier for active-job markers
	ttlActive time.Duration
	// Expiry tier for owner and active index sets
	ttlOwnerIndex time.Duration
	// Expiry tier for short-lived working values
	ttlTransient time.Duration

	//===============
	// Output
	//===============
	// Whether result snapshots are mirrored to local disk
	localSave bool
	// Root directory in which to store snapshot files
	outputDir string
	// How old an orphaned temp file must be before cleanup removes it
	staleTempAge time.Duration
	// Number of records handed to the caller per streaming chunk
	streamChunkSize int
}

type configDTO struct {
	RedisHost                string        `json:"redisHost,omitempty"`
	RedisPort                int           `json:"redisPort,omitempty"`
	RedisPassword            string        `json:"redisPassword,omitempty"`
	ConnectTimeout           time.Duration `json:"connectTimeout,omitempty"`
	ReconnectInitialDuration time.Duration `json:"reconnectInitialDuration,omitempty"`
	ReconnectMultiplier      float64       `json:"reconnectMultiplier,omitempty"`
	ReconnectMaxDuration     time.Duration `json:"reconnectMaxDuration,omitempty"`
	ReconnectMaxAttempts     int           `json:"reconnectMaxAttempts,omitempty"`
	ReconnectJitter          time.Duration `json:"reconnectJitter,omitempty"`
	RandomSeed               int64         `json:"randomSeed,omitempty"`
	BreakerFailureThreshold  int           `json:"breakerFailureThreshold,omitempty"`
	BreakerRecoveryTimeout   time.Duration `json:"breakerRecoveryTimeout,omitempty"`
	RateLimitDefault         int64         `json:"rateLimitDefault,omitempty"`
	RateLimitWindow          time.Duration `json:"rateLimitWindow,omitempty"`
	KeyPrefix                string        `json:"keyPrefix,omitempty"`
	DefaultTTL               time.Duration `json:"defaultTtl,omitempty"`
	TTLJob                   time.Duration `json:"ttlJob,omitempty"`
	TTLResults               time.Duration `json:"ttlResults,omitempty"`
	TTLActive                time.Duration `json:"ttlActive,omitempty"`
	TTLOwnerIndex            time.Duration `json:"ttlOwnerIndex,omitempty"`
	TTLTransient             time.Duration `json:"ttlTransient,omitempty"`
	LocalSave                bool          `json:"localSave,omitempty"`
	OutputDir                string        `json:"outputDir,omitempty"`
	StaleTempAge             time.Duration `json:"staleTempAge,omitempty"`
	StreamChunkSize          int           `json:"streamChunkSize,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {

	// Start with default config
	cfg, err := WithDefault().Build()
	if err != nil {
		return Config{}, err
	}

	// Only override fields a non-zero value was provided for
	if dto.RedisHost != "" {
		cfg.redisHost = dto.RedisHost
	}
	if dto.RedisPort != 0 {
		cfg.redisPort = dto.RedisPort
	}
	if dto.RedisPassword != "" {
		cfg.redisPassword = dto.RedisPassword
	}
	if dto.ConnectTimeout != 0 {
		cfg.connectTimeout = dto.ConnectTimeout
	}
	if dto.ReconnectInitialDuration != 0 {
		cfg.reconnectInitialDuration = dto.ReconnectInitialDuration
	}
	if dto.ReconnectMultiplier != 0 {
		cfg.reconnectMultiplier = dto.ReconnectMultiplier
	}
	if dto.ReconnectMaxDuration != 0 {
		cfg.reconnectMaxDuration = dto.ReconnectMaxDuration
	}
	if dto.ReconnectMaxAttempts != 0 {
		cfg.reconnectMaxAttempts = dto.ReconnectMaxAttempts
	}
	if dto.ReconnectJitter != 0 {
		cfg.reconnectJitter = dto.ReconnectJitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.BreakerFailureThreshold != 0 {
		cfg.breakerFailureThreshold = dto.BreakerFailureThreshold
	}
	if dto.BreakerRecoveryTimeout != 0 {
		cfg.breakerRecoveryTimeout = dto.BreakerRecoveryTimeout
	}
	if dto.RateLimitDefault != 0 {
		cfg.rateLimitDefault = dto.RateLimitDefault
	}
	if dto.RateLimitWindow != 0 {
		cfg.rateLimitWindow = dto.RateLimitWindow
	}
	if dto.KeyPrefix != "" {
		cfg.keyPrefix = dto.KeyPrefix
	}
	if dto.DefaultTTL != 0 {
		cfg.defaultTTL = dto.DefaultTTL
	}
	if dto.TTLJob != 0 {
		cfg.ttlJob = dto.TTLJob
	}
	if dto.TTLResults != 0 {
		cfg.ttlResults = dto.TTLResults
	}
	if dto.TTLActive != 0 {
		cfg.ttlActive = dto.TTLActive
	}
	if dto.TTLOwnerIndex != 0 {
		cfg.ttlOwnerIndex = dto.TTLOwnerIndex
	}
	if dto.TTLTransient != 0 {
		cfg.ttlTransient = dto.TTLTransient
	}
	// LocalSave is a boolean, the DTO value is taken as-is
	cfg.localSave = dto.LocalSave
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	if dto.StaleTempAge != 0 {
		cfg.staleTempAge = dto.StaleTempAge
	}
	if dto.StreamChunkSize != 0 {
		cfg.streamChunkSize = dto.StreamChunkSize
	}

	return cfg, nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads an optional .env file at path (a missing file is not an
// error) and overlays SCRAPECACHE_* process environment variables on the
// defaults. Malformed numeric values fail with ErrConfigParsingFail.
func FromEnv(path string) (Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
			}
		}
	}

	cfg, err := WithDefault().Build()
	if err != nil {
		return Config{}, err
	}

	if host := os.Getenv("SCRAPECACHE_REDIS_HOST"); host != "" {
		cfg.redisHost = host
	}
	if rawPort := os.Getenv("SCRAPECACHE_REDIS_PORT"); rawPort != "" {
		port, perr := strconv.Atoi(rawPort)
		if perr != nil {
			return Config{}, fmt.Errorf("%w: SCRAPECACHE_REDIS_PORT: %s", ErrConfigParsingFail, perr.Error())
		}
		cfg.redisPort = port
	}
	if password := os.Getenv("SCRAPECACHE_REDIS_PASSWORD"); password != "" {
		cfg.redisPassword = password
	}
	if prefix := os.Getenv("SCRAPECACHE_KEY_PREFIX"); prefix != "" {
		cfg.keyPrefix = prefix
	}
	if rawTTL := os.Getenv("SCRAPECACHE_DEFAULT_TTL"); rawTTL != "" {
		ttl, perr := time.ParseDuration(rawTTL)
		if perr != nil {
			return Config{}, fmt.Errorf("%w: SCRAPECACHE_DEFAULT_TTL: %s", ErrConfigParsingFail, perr.Error())
		}
		cfg.defaultTTL = ttl
	}
	if rawSave := os.Getenv("SCRAPECACHE_LOCAL_SAVE"); rawSave != "" {
		save, perr := strconv.ParseBool(rawSave)
		if perr != nil {
			return Config{}, fmt.Errorf("%w: SCRAPECACHE_LOCAL_SAVE: %s", ErrConfigParsingFail, perr.Error())
		}
		cfg.localSave = save
	}
	if outputDir := os.Getenv("SCRAPECACHE_OUTPUT_DIR"); outputDir != "" {
		cfg.outputDir = outputDir
	}

	return cfg, nil
}

// WithDefault creates a new Config with default values for all fields.
func WithDefault() *Config {
	defaultConfig := Config{
		redisHost:                "localhost",
		redisPort:                6379,
		redisPassword:            "",
		connectTimeout:           5 * time.Second,
		reconnectInitialDuration: time.Second,
		reconnectMultiplier:      2.0,
		reconnectMaxDuration:     30 * time.Second,
		reconnectMaxAttempts:     10,
		reconnectJitter:          500 * time.Millisecond,
		randomSeed:               time.Now().UnixNano(),
		breakerFailureThreshold:  5,
		breakerRecoveryTimeout:   30 * time.Second,
		rateLimitDefault:         60,
		rateLimitWindow:          time.Minute,
		keyPrefix:                "scrapecache",
		defaultTTL:               time.Minute,
		ttlJob:                   7 * 24 * time.Hour,
		ttlResults:               24 * time.Hour,
		ttlActive:                5 * time.Minute,
		ttlOwnerIndex:            7 * 24 * time.Hour,
		ttlTransient:             time.Minute,
		localSave:                false,
		outputDir:                "output",
		staleTempAge:             time.Hour,
		streamChunkSize:          10,
	}
	return &defaultConfig
}

func (c *Config) WithRedisHost(host string) *Config {
	c.redisHost = host
	return c
}

func (c *Config) WithRedisPort(port int) *Config {
	c.redisPort = port
	return c
}

func (c *Config) WithRedisPassword(password string) *Config {
	c.redisPassword = password
	return c
}

func (c *Config) WithConnectTimeout(timeout time.Duration) *Config {
	c.connectTimeout = timeout
	return c
}

func (c *Config) WithReconnectInitialDuration(duration time.Duration) *Config {
	c.reconnectInitialDuration = duration
	return c
}

func (c *Config) WithReconnectMultiplier(multiplier float64) *Config {
	c.reconnectMultiplier = multiplier
	return c
}

func (c *Config) WithReconnectMaxDuration(duration time.Duration) *Config {
	c.reconnectMaxDuration = duration
	return c
}

func (c *Config) WithReconnectMaxAttempts(attempts int) *Config {
	c.reconnectMaxAttempts = attempts
	return c
}

func (c *Config) WithReconnectJitter(jitter time.Duration) *Config {
	c.reconnectJitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithBreakerFailureThreshold(threshold int) *Config {
	c.breakerFailureThreshold = threshold
	return c
}

func (c *Config) WithBreakerRecoveryTimeout(timeout time.Duration) *Config {
	c.breakerRecoveryTimeout = timeout
	return c
}

func (c *Config) WithRateLimitDefault(limit int64) *Config {
	c.rateLimitDefault = limit
	return c
}

func (c *Config) WithRateLimitWindow(window time.Duration) *Config {
	c.rateLimitWindow = window
	return c
}

func (c *Config) WithKeyPrefix(prefix string) *Config {
	c.keyPrefix = prefix
	return c
}

func (c *Config) WithDefaultTTL(ttl time.Duration) *Config {
	c.defaultTTL = ttl
	return c
}

func (c *Config) WithTTLJob(ttl time.Duration) *Config {
	c.ttlJob = ttl
	return c
}

func (c *Config) WithTTLResults(ttl time.Duration) *Config {
	c.ttlResults = ttl
	return c
}

func (c *Config) WithTTLActive(ttl time.Duration) *Config {
	c.ttlActive = ttl
	return c
}

func (c *Config) WithTTLOwnerIndex(ttl time.Duration) *Config {
	c.ttlOwnerIndex = ttl
	return c
}

func (c *Config) WithTTLTransient(ttl time.Duration) *Config {
	c.ttlTransient = ttl
	return c
}

func (c *Config) WithLocalSave(localSave bool) *Config {
	c.localSave = localSave
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithStaleTempAge(age time.Duration) *Config {
	c.staleTempAge = age
	return c
}

func (c *Config) WithStreamChunkSize(size int) *Config {
	c.streamChunkSize = size
	return c
}

func (c *Config) Build() (Config, error) {
	if c.keyPrefix == "" {
		return Config{}, fmt.Errorf("%w: keyPrefix cannot be empty", ErrInvalidConfig)
	}
	if c.redisPort <= 0 || c.redisPort > 65535 {
		return Config{}, fmt.Errorf("%w: redisPort %d out of range", ErrInvalidConfig, c.redisPort)
	}
	if c.streamChunkSize <= 0 {
		return Config{}, fmt.Errorf("%w: streamChunkSize must be positive", ErrInvalidConfig)
	}
	if c.breakerFailureThreshold <= 0 {
		return Config{}, fmt.Errorf("%w: breakerFailureThreshold must be positive", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) RedisHost() string {
	return c.redisHost
}

func (c Config) RedisPort() int {
	return c.redisPort
}

func (c Config) RedisPassword() string {
	return c.redisPassword
}

// RedisAddr returns host:port in the form the backend client dials.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.redisHost, c.redisPort)
}

func (c Config) ConnectTimeout() time.Duration {
	return c.connectTimeout
}

func (c Config) ReconnectInitialDuration() time.Duration {
	return c.reconnectInitialDuration
}

func (c Config) ReconnectMultiplier() float64 {
	return c.reconnectMultiplier
}

func (c Config) ReconnectMaxDuration() time.Duration {
	return c.reconnectMaxDuration
}

func (c Config) ReconnectMaxAttempts() int {
	return c.reconnectMaxAttempts
}

func (c Config) ReconnectJitter() time.Duration {
	return c.reconnectJitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BreakerFailureThreshold() int {
	return c.breakerFailureThreshold
}

func (c Config) BreakerRecoveryTimeout() time.Duration {
	return c.breakerRecoveryTimeout
}

func (c Config) RateLimitDefault() int64 {
	return c.rateLimitDefault
}

func (c Config) RateLimitWindow() time.Duration {
	return c.rateLimitWindow
}

func (c Config) KeyPrefix() string {
	return c.keyPrefix
}

func (c Config) DefaultTTL() time.Duration {
	return c.defaultTTL
}

func (c Config) TTLJob() time.Duration {
	return c.ttlJob
}

func (c Config) TTLResults() time.Duration {
	return c.ttlResults
}

func (c Config) TTLActive() time.Duration {
	return c.ttlActive
}

func (c Config) TTLOwnerIndex() time.Duration {
	return c.ttlOwnerIndex
}

func (c Config) TTLTransient() time.Duration {
	return c.ttlTransient
}

func (c Config) LocalSave() bool {
	return c.localSave
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) StaleTempAge() time.Duration {
	return c.staleTempAge
}

func (c Config) StreamChunkSize() int {
	return c.streamChunkSize
}
