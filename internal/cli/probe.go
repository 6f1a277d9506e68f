package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/toolguard/config"
	"github.com/vietddude/toolguard/recorder"
	"github.com/vietddude/toolguard/reliability"
	"github.com/vietddude/toolguard/storage/redisbuf"
)

var (
	probeOperation string
	probeRetries   int
	probeNoRetry   bool
)

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Run one HTTP GET through the full reliability envelope",
	Args:  cobra.ExactArgs(1),
	Run:   runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeOperation, "operation", "sys_probe", "operation name used in events and records")
	probeCmd.Flags().IntVar(&probeRetries, "max-retries", -1, "override configured max retries")
	probeCmd.Flags().BoolVar(&probeNoRetry, "no-retry", false, "force a single attempt")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	target := args[0]
	ctx := context.Background()

	maxRetries := cfg.Reliability.MaxRetries
	if probeRetries >= 0 {
		maxRetries = probeRetries
	}
	if probeNoRetry {
		maxRetries = 0
	}

	relCfg := reliability.Config{
		OperationName: probeOperation,
		Timeout:       time.Duration(cfg.Reliability.TimeoutMs) * time.Millisecond,
		MaxRetries:    maxRetries,
		RetryDelay:    time.Duration(cfg.Reliability.RetryDelayMs) * time.Millisecond,
		RetryableKinds: []reliability.ErrorKind{
			reliability.KindTimeout,
			reliability.KindNetwork,
			reliability.KindUpstreamServer,
		},
	}

	httpClient := &http.Client{}
	started := time.Now()
	result := reliability.Execute(ctx, relCfg, func(ctx context.Context) (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return 0, reliability.NewValidationError("invalid probe url: %v", err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return resp.StatusCode, reliability.NewUpstreamError(resp.StatusCode, string(body))
		}
		return resp.StatusCode, nil
	})
	finished := time.Now()

	recordProbe(ctx, cfg, target, started, finished, result)

	if result.OK() {
		slog.Info("Probe succeeded", "url", target, "status", result.Value())
		return
	}
	report := result.Report()
	slog.Error("Probe failed",
		"url", target,
		"kind", string(report.Kind),
		"retryable", report.Retryable,
		"message", report.UserMessage,
		"technical", report.TechnicalMessage,
	)
}

func recordProbe(ctx context.Context, cfg *config.AppConfig, target string, started, finished time.Time, result reliability.Result[int]) {
	store := openStore(ctx, cfg)

	opts := []recorder.Option{}
	if cfg.Redis.URL != "" {
		if buf, err := redisbuf.New(cfg.Redis); err != nil {
			slog.Warn("Fallback buffer unavailable", "error", err)
		} else {
			defer buf.Close()
			opts = append(opts, recorder.WithFallback(buf))
		}
	}

	rec := recorder.New(store, opts...)
	entry := &recorder.InvocationLogEntry{
		OperationName: probeOperation,
		StartedAt:     started,
		FinishedAt:    finished,
		DurationMs:    finished.Sub(started).Milliseconds(),
		Success:       result.OK(),
		Provider:      target,
	}
	if report := result.Report(); report != nil {
		entry.ErrorKind = string(report.Kind)
	}
	rec.Record(entry)
	rec.Close()
}
