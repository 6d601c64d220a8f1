// Package rerank implements the reranking capability: given a query and a
// candidate result set, return a reordered, possibly truncated, top_k subset
// with relevance scores.
package rerank

import (
	"context"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// Reranker reorders search results by relevance to query.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []model.SearchResult, topK int) ([]model.SearchResult, error)
	Enabled() bool
}

// NoOpReranker truncates to topK without reordering. Used when no reranking
// provider is configured.
type NoOpReranker struct{}

var _ Reranker = NoOpReranker{}

func (NoOpReranker) Rerank(_ context.Context, _ string, results []model.SearchResult, topK int) ([]model.SearchResult, error) {
	if topK >= 0 && topK < len(results) {
		return results[:topK], nil
	}
	return results, nil
}

func (NoOpReranker) Enabled() bool { return false }

// New builds a Reranker from a provider name ("noop"/"" or "http") and,
// for "http", the reranker service base URL.
func New(provider string, url string) Reranker {
	switch provider {
	case "http":
		return NewHTTPReranker(url, "")
	default:
		return NoOpReranker{}
	}
}
