package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/service"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Ping the backend and report the connection state.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := mustService(cmd.Context())
		defer svc.Shutdown()

		state := svc.Client().State()
		healthy := svc.Client().Healthy(cmd.Context())

		fmt.Printf("Connection State: %s\n", state)
		fmt.Printf("Healthy: %t\n", healthy)
		if !healthy {
			os.Exit(1)
		}
	},
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List jobs whose active marker is still live.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := mustService(cmd.Context())
		defer svc.Shutdown()

		live := svc.Store().ActiveJobs(cmd.Context())
		if len(live) == 0 {
			fmt.Println("No active jobs")
			return
		}
		fmt.Printf("Active Jobs (%d):\n", len(live))
		fmt.Println(strings.Join(live, "\n"))
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Sweep no-TTL keys and stale snapshot temp files.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := mustService(cmd.Context())
		defer svc.Shutdown()

		swept := svc.Store().Cleanup(cmd.Context())
		fmt.Printf("Removed %d keys without TTL\n", swept)

		cfg := svc.Config()
		removed, err := svc.Writer().CleanupStale(cfg.OutputDir(), cfg.StaleTempAge())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error sweeping temp files: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed %d stale temp files\n", removed)
	},
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Report backend memory usage and the configured ceiling.",
	Run: func(cmd *cobra.Command, args []string) {
		svc := mustService(cmd.Context())
		defer svc.Shutdown()

		stats, ok := svc.Store().MemoryUsage(cmd.Context())
		if !ok {
			fmt.Println("Backend unavailable; no memory stats")
			os.Exit(1)
		}
		fmt.Printf("Used: %d bytes\n", stats.UsedBytes())
		if stats.MaxBytes() == 0 {
			fmt.Println("Max: unlimited")
		} else {
			fmt.Printf("Max: %d bytes\n", stats.MaxBytes())
		}
	},
}

func mustService(ctx context.Context) *service.Service {
	cfg := InitConfig()
	recorder := metadata.NewRecorder("cli")
	svc, err := service.New(ctx, cfg, &recorder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return svc
}
