package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vietddude/toolguard/config"
	"github.com/vietddude/toolguard/eventlog"
	"github.com/vietddude/toolguard/recorder"
	"github.com/vietddude/toolguard/storage/postgres"
	"github.com/vietddude/toolguard/storage/supabase"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "toolguard",
	Short: "Reliability layer utilities",
	Long:  `Toolguard wraps unreliable upstream calls with timeouts, selective retry, and invocation recording. This CLI probes endpoints through the full envelope and maintains the invocation-log sinks.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig loads .env, the YAML config, and installs the slog handler.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		eventlog.Init(slog.LevelInfo)
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	eventlog.Init(slogLevel)

	return cfg
}

// openStore picks the configured sink: postgres when a database URL is set,
// the Supabase REST sink otherwise. Returns nil when neither is configured;
// the recorder contains that as a configuration error.
func openStore(ctx context.Context, cfg *config.AppConfig) recorder.Store {
	if cfg.Database.URL != "" {
		store, err := postgres.NewStore(ctx, cfg.Database)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			return nil
		}
		if err := store.Migrate(); err != nil {
			slog.Error("Failed to migrate database", "error", err)
			return nil
		}
		slog.Info("Using PostgreSQL sink")
		return store
	}

	if cfg.Supabase.URL != "" || cfg.Supabase.ServiceRoleKey != "" {
		store, err := supabase.NewStore(cfg.Supabase)
		if err != nil {
			slog.Error("Supabase sink misconfigured", "error", err)
			return nil
		}
		slog.Info("Using Supabase sink")
		return store
	}

	return nil
}
