package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/toolguard/storage/redisbuf"
)

var flushLimit int

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Replay buffered invocation-log entries into the configured sink",
	Run:   runFlush,
}

func init() {
	flushCmd.Flags().IntVar(&flushLimit, "limit", 0, "maximum entries to replay (0 = all)")
	rootCmd.AddCommand(flushCmd)
}

func runFlush(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	if cfg.Redis.URL == "" {
		slog.Error("No redis buffer configured")
		os.Exit(1)
	}

	buf, err := redisbuf.New(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = buf.Close()
	}()

	sink := openStore(ctx, cfg)
	if sink == nil {
		slog.Error("No sink configured, nothing to flush into")
		os.Exit(1)
	}

	drained, err := buf.Drain(ctx, sink, flushLimit)
	if err != nil {
		slog.Error("Flush stopped early", "drained", drained, "error", err)
		os.Exit(1)
	}
	slog.Info("Flush complete", "drained", drained)
}
