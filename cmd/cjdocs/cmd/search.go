package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
	"github.com/Aman-CERP/cjdocs-bridge/internal/index"
	"github.com/Aman-CERP/cjdocs-bridge/internal/searchpost"
)

func newSearchCmd() *cobra.Command {
	var (
		category   string
		topK       int
		jsonOutput bool
		noRerank   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the Cangjie documentation index",
		Long: `Run a hybrid (BM25 + vector) search against the documentation index
built by 'cjdocs index', printing ranked excerpts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSearch(ctx, cmd, strings.Join(args, " "), category, topK, jsonOutput, !noRerank)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Restrict results to one documentation category")
	cmd.Flags().IntVar(&topK, "top-k", searchpost.DefaultTopK, "Number of results to return")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noRerank, "no-rerank", false, "Skip the reranking pass")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query, category string, topK int, jsonOutput, rerank bool) error {
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

	if _, err := li.Init(ctx); err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	q := searchpost.Query{
		Text:     query,
		Category: category,
		TopK:     searchpost.ClampTopK(topK),
	}

	raw, err := li.Query(ctx, q.Text, searchpost.FetchCount(q), q.Category, rerank)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	resp := searchpost.Assemble(raw, q)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results.")
		return nil
	}
	for i, item := range resp.Items {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s/%s] %s (score %.3f)\n   %s\n",
			i+1, item.Category, item.Topic, item.Title, item.Score, truncate(item.Content, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
