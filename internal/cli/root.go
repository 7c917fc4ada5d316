package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/scrapecache/internal/build"
	"github.com/rohmanhakim/scrapecache/internal/config"
)

var (
	cfgFile        string
	envFile        string
	redisHost      string
	redisPort      int
	redisPassword  string
	connectTimeout time.Duration
	keyPrefix      string
	defaultTTL     time.Duration
	localSave      bool
	outputDir      string
	staleTempAge   time.Duration
	chunkSize      int
	randomSeed     int64
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scrapecache",
	Short: "Job-state and result cache for scrape pipelines.",
	Long: `scrapecache is the caching layer of a scrape pipeline: it stores job
records, per-keyword result partitions, and an active-job index in a remote
key/value backend, degrades to documented no-op behavior while the backend is
unreachable, and mirrors result snapshots to local disk.

Every entry it writes carries a TTL, so the cache converges to empty on its
own when the pipeline stops feeding it.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := InitConfig()

		// Display configuration for verification
		fmt.Printf("Configuration initialized successfully\n")
		fmt.Printf("Backend: %s\n", cfg.RedisAddr())
		fmt.Printf("Key Prefix: %s\n", cfg.KeyPrefix())
		fmt.Printf("Connect Timeout: %v\n", cfg.ConnectTimeout())
		fmt.Printf("Default TTL: %v\n", cfg.DefaultTTL())
		fmt.Printf("TTL Tiers: job=%v results=%v active=%v owner=%v transient=%v\n",
			cfg.TTLJob(), cfg.TTLResults(), cfg.TTLActive(), cfg.TTLOwnerIndex(), cfg.TTLTransient())
		fmt.Printf("Local Save: %t\n", cfg.LocalSave())
		fmt.Printf("Output Directory: %s\n", cfg.OutputDir())
		fmt.Printf("Stream Chunk Size: %d\n", cfg.StreamChunkSize())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = build.FullVersion()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file path to overlay before reading process env")
	rootCmd.PersistentFlags().StringVar(&redisHost, "redis-host", "", "backend hostname")
	rootCmd.PersistentFlags().IntVar(&redisPort, "redis-port", 0, "backend port")
	rootCmd.PersistentFlags().StringVar(&redisPassword, "redis-password", "", "backend password")
	rootCmd.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 0, "maximum time for one connection attempt")
	rootCmd.PersistentFlags().StringVar(&keyPrefix, "key-prefix", "", "deployment key prefix")
	rootCmd.PersistentFlags().DurationVar(&defaultTTL, "default-ttl", 0, "fallback TTL for untiered entries")
	rootCmd.PersistentFlags().BoolVar(&localSave, "local-save", false, "mirror result snapshots to local disk")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "root directory for snapshot files")
	rootCmd.PersistentFlags().DurationVar(&staleTempAge, "stale-temp-age", 0, "age before orphaned temp files are swept")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "stream-chunk-size", 0, "records per streaming chunk")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(activeCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(memoryCmd)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and ENV variables if set, returning any errors.
// This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		fmt.Printf("Initializing config from file: %s\n", cfgFile)
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	if envFile != "" {
		fmt.Printf("Initializing config from environment: %s\n", envFile)
		cfg, err := config.FromEnv(envFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from environment: %w", err)
		}
		return cfg, nil
	}

	// Build config from CLI flags using the With... functions with method chaining
	configBuilder := config.WithDefault()

	// Override with CLI flag values where provided
	if redisHost != "" {
		configBuilder = configBuilder.WithRedisHost(redisHost)
	}

	if redisPort > 0 {
		configBuilder = configBuilder.WithRedisPort(redisPort)
	}

	if redisPassword != "" {
		configBuilder = configBuilder.WithRedisPassword(redisPassword)
	}

	if connectTimeout > 0 {
		configBuilder = configBuilder.WithConnectTimeout(connectTimeout)
	}

	if keyPrefix != "" {
		configBuilder = configBuilder.WithKeyPrefix(keyPrefix)
	}

	if defaultTTL > 0 {
		configBuilder = configBuilder.WithDefaultTTL(defaultTTL)
	}

	if localSave {
		configBuilder = configBuilder.WithLocalSave(localSave)
	}

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if staleTempAge > 0 {
		configBuilder = configBuilder.WithStaleTempAge(staleTempAge)
	}

	if chunkSize > 0 {
		configBuilder = configBuilder.WithStreamChunkSize(chunkSize)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	envFile = ""
	redisHost = ""
	redisPort = 0
	redisPassword = ""
	connectTimeout = 0
	keyPrefix = ""
	defaultTTL = 0
	localSave = false
	outputDir = ""
	staleTempAge = 0
	chunkSize = 0
	randomSeed = 0
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetEnvFileForTest(path string) {
	envFile = path
}

func SetRedisHostForTest(host string) {
	redisHost = host
}

func SetRedisPortForTest(port int) {
	redisPort = port
}

func SetRedisPasswordForTest(password string) {
	redisPassword = password
}

func SetConnectTimeoutForTest(timeout time.Duration) {
	connectTimeout = timeout
}

func SetKeyPrefixForTest(prefix string) {
	keyPrefix = prefix
}

func SetDefaultTTLForTest(ttl time.Duration) {
	defaultTTL = ttl
}

func SetLocalSaveForTest(save bool) {
	localSave = save
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetStaleTempAgeForTest(age time.Duration) {
	staleTempAge = age
}

func SetStreamChunkSizeForTest(size int) {
	chunkSize = size
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}
