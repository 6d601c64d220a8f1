package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
	"github.com/Aman-CERP/cjdocs-bridge/internal/index"
	"github.com/Aman-CERP/cjdocs-bridge/internal/logging"
)

func newIndexCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the Cangjie documentation index",
		Long: `Resolve the configured docs version, fetch it if needed, and build
the BM25 (and, if an embedder is configured, vector) index over it.

Use --rebuild to discard any previously built indexes and start fresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, rebuild)
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Discard existing indexes and rebuild from scratch")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, rebuild bool) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		defer cleanup()
		_ = logger
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	if rebuild {
		indexesDir := filepath.Join(cfg.LSP.DataDir, "indexes")
		if err := os.RemoveAll(indexesDir); err != nil {
			return fmt.Errorf("clear existing indexes: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared existing indexes, starting fresh...\n")
	}

	start := time.Now()
	li := index.NewLocalIndex(ctx, cfg)
	defer func() { _ = li.Close() }()

	info, err := li.Init(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed docs version %s (%s) in %s\n", info.Version, info.Lang, time.Since(start).Round(time.Millisecond))
	return nil
}
