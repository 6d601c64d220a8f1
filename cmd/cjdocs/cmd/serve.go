package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cjdocs-bridge/internal/async"
	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
	"github.com/Aman-CERP/cjdocs-bridge/internal/docsource"
	"github.com/Aman-CERP/cjdocs-bridge/internal/httpapi"
	"github.com/Aman-CERP/cjdocs-bridge/internal/index"
	"github.com/Aman-CERP/cjdocs-bridge/internal/logging"
	"github.com/Aman-CERP/cjdocs-bridge/internal/mcp"
	"github.com/Aman-CERP/cjdocs-bridge/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		httpAddr  string
		noHTTP    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (and, optionally, the HTTP surface)",
		Long: `Start the stdio MCP server that bridges AI coding assistants to the
documentation index and the cangjie-lsp language server.

MCP clients speak JSON-RPC over stdio, so nothing but that protocol may
be written to stdout; all logging goes to the log file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, transport, httpAddr, noHTTP)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport: stdio")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "Address for the HTTP surface (empty: use config, 'off': disable)")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "Disable the HTTP surface entirely")

	return cmd
}

func runServe(ctx context.Context, transport, httpAddrFlag string, noHTTP bool) error {
	// MCP requires stdout to carry only JSON-RPC frames: all logging here
	// must go to the log file, never stdout.
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		defer cleanup()
		slog.SetDefault(logger)
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	li := index.NewLocalIndex(ctx, cfg)
	defer func() { _ = li.Close() }()

	progress := async.NewIndexProgress()

	info, err := li.Init(ctx)
	if err != nil {
		slog.Error("index_init_failed", slog.String("error", err.Error()))
		return fmt.Errorf("initialize index: %w", err)
	}

	docs := newDocsSource(cfg, info)

	srv, err := mcp.NewServer(li, docs, cfg, root)
	if err != nil {
		return fmt.Errorf("create mcp server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	srv.SetIndexProgress(progress)
	srv.SetMetrics(telemetry.NewQueryMetrics(nil))

	httpAddr := cfg.Server.HTTPAddr
	if httpAddrFlag != "" {
		httpAddr = httpAddrFlag
	}

	var httpSrv *http.Server
	if !noHTTP && httpAddr != "" && httpAddr != "off" {
		api := httpapi.NewServer(li, docs)
		httpSrv = &http.Server{Addr: httpAddr, Handler: api.Handler()}
		go func() {
			slog.Info("http_surface_starting", slog.String("addr", httpAddr))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http_surface_failed", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
	}

	return srv.Serve(ctx, transport, httpAddr)
}

// newDocsSource builds the DocumentSource capability: a remote peer when
// configured, otherwise the local git checkout IndexInitializer resolved.
func newDocsSource(cfg *config.Config, info interface{ DocsRepoDir() string }) docsource.Source {
	if cfg.LSP.RemotePeerURL != "" {
		return docsource.NewRemoteSource(cfg.LSP.RemotePeerURL, http.DefaultClient)
	}
	return docsource.NewGitSource(info.DocsRepoDir(), docsource.DocsSourceDirName(cfg.LSP.DocsLang))
}
