// Package searchpost implements the search-result post-processing pipeline
// that sits between a raw BM25/vector/fusion query and the MCP tool
// response: lexical reranking, strong deduplication, per-document result
// balancing, package filtering, pagination, and code-example extraction.
// Grounded on original_source/cangjie-mcp/src/server/tools.rs.
package searchpost

import (
	"strings"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// Constants carried from the original's config defaults: MinTopK/MaxTopK
// clamp the caller-supplied top_k, DedupFetchMultiplier over-fetches
// headroom for reranking/dedup, and PackageFetchMultiplier widens that
// headroom further when a package filter will discard most candidates.
const (
	MinTopK                = 1
	MaxTopK                = 20
	DefaultTopK            = 5
	DedupFetchMultiplier   = 4
	PackageFetchMultiplier = 3
)

// CodeExample is one fenced code block extracted from a matched snippet.
type CodeExample struct {
	Language     string `json:"language"`
	Code         string `json:"code"`
	Context      string `json:"context"`
	SourceTopic  string `json:"source_topic"`
	SourceFile   string `json:"source_file"`
}

// ResultItem is one entry in a search response.
type ResultItem struct {
	Content         string        `json:"content"`
	Score           float64       `json:"score"`
	FilePath        string        `json:"file_path"`
	Category        string        `json:"category"`
	Topic           string        `json:"topic"`
	Title           string        `json:"title"`
	HasCodeExamples bool          `json:"has_code_examples"`
	CodeExamples    []CodeExample `json:"code_examples,omitempty"`
}

// SearchResponse is the full cangjie_search_docs tool output.
type SearchResponse struct {
	Items      []ResultItem `json:"items"`
	Total      int          `json:"total"`
	Count      int          `json:"count"`
	Offset     int          `json:"offset"`
	HasMore    bool         `json:"has_more"`
	NextOffset *int         `json:"next_offset,omitempty"`
}

// Query bundles a search_docs request's parameters, after clamping.
type Query struct {
	Text        string
	Category    string
	Package     string
	TopK        int
	Offset      int
	ExtractCode bool
}

// ClampTopK restricts topK to [MinTopK, MaxTopK].
func ClampTopK(topK int) int {
	if topK < MinTopK {
		return MinTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// FetchCount computes how many raw candidates to retrieve from the index so
// that reranking, deduplication, and an optional package filter still leave
// enough headroom to fill one page. Grounded on search_docs's fetch_count.
func FetchCount(q Query) int {
	fetchMultiplier := 1
	if q.Package != "" {
		fetchMultiplier = PackageFetchMultiplier
	}
	return (q.Offset + q.TopK + 1) * fetchMultiplier * DedupFetchMultiplier
}

// HasPackage reports whether result text references package, either as a
// bare substring or via an "import <package>" statement.
func HasPackage(result model.SearchResult, pkg string) bool {
	return strings.Contains(result.Text, pkg) || strings.Contains(result.Text, "import "+pkg)
}
