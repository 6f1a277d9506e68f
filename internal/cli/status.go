package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/toolguard/storage/postgres"
	"github.com/vietddude/toolguard/storage/redisbuf"
	"github.com/vietddude/toolguard/storage/supabase"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sink health and fallback buffer depth",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "COMPONENT\tSTATUS")

	if cfg.Database.URL != "" {
		store, err := postgres.NewStore(ctx, cfg.Database)
		if err != nil {
			fmt.Fprintf(w, "postgres\tunreachable: %v\n", err)
		} else {
			defer func() { _ = store.Close() }()
			if err := store.Health(ctx); err != nil {
				fmt.Fprintf(w, "postgres\tunhealthy: %v\n", err)
			} else {
				fmt.Fprintln(w, "postgres\tok")
			}
		}
	}

	if cfg.Supabase.URL != "" {
		store, err := supabase.NewStore(cfg.Supabase)
		if err != nil {
			fmt.Fprintf(w, "supabase\tmisconfigured: %v\n", err)
		} else if err := store.Health(ctx); err != nil {
			fmt.Fprintf(w, "supabase\tunhealthy: %v\n", err)
		} else {
			fmt.Fprintln(w, "supabase\tok")
		}
	}

	if cfg.Redis.URL != "" {
		buf, err := redisbuf.New(cfg.Redis)
		if err != nil {
			fmt.Fprintf(w, "redis buffer\tunreachable: %v\n", err)
			return
		}
		defer func() { _ = buf.Close() }()
		depth, err := buf.Len(ctx)
		if err != nil {
			slog.Error("Failed to read buffer depth", "error", err)
			return
		}
		fmt.Fprintf(w, "redis buffer\tok (%d parked)\n", depth)
	}
}
