package searchpost

import (
	"sort"
	"strings"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
	"github.com/Aman-CERP/cjdocs-bridge/internal/store"
)

// QueryTerms tokenizes query the same way indexed documents are tokenized
// (CJK-aware search-mode segmentation plus code-identifier splitting), so
// lexical boosting compares like with like. Grounded on tools.rs's
// query_terms (jieba cut_for_search); reuses store.TokenizeDocs rather than
// re-wiring a segmenter, since it already implements the identical
// gojieba/gse search-mode behavior for the index's own tokenization.
func QueryTerms(query string) []string {
	lower := strings.ToLower(query)
	terms := store.TokenizeDocs(lower)

	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}

	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		if _, ok := seen[tok]; !ok {
			seen[tok] = struct{}{}
			terms = append(terms, tok)
		}
		current.Reset()
	}
	for _, r := range lower {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return terms
}

// LexicalBoost scores how strongly item's topic/title/path/text match the
// query terms, to compensate BM25/vector scores for exact lexical hits they
// underweight. Grounded on tools.rs's lexical_boost — weights and
// thresholds reproduced exactly.
func LexicalBoost(queryTerms []string, query string, item model.SearchResult) float64 {
	topic := strings.ToLower(item.Metadata.Topic)
	title := strings.ToLower(item.Metadata.Title)
	path := strings.ToLower(item.Metadata.FilePath)
	text := strings.ToLower(item.Text)
	queryLC := strings.ToLower(query)

	var boost float64
	for _, term := range queryTerms {
		switch {
		case topic == term:
			boost += 8.0
		case strings.Contains(topic, term):
			boost += 5.0
		}
		switch {
		case title == term:
			boost += 6.0
		case strings.Contains(title, term):
			boost += 4.0
		}
		if strings.Contains(path, term) {
			boost += 2.0
		}
		if strings.Contains(text, term) {
			boost += 1.5
		}
	}

	if queryLC != "" {
		if strings.Contains(topic, queryLC) {
			boost += 6.0
		}
		if strings.Contains(title, queryLC) {
			boost += 5.0
		}
		if strings.Contains(text, queryLC) {
			boost += 2.0
		}
	}

	return boost
}

type scoredResult struct {
	result   model.SearchResult
	adjusted float64
}

// RerankAndDedup applies lexical boosting, strong duplicate suppression on
// normalized whitespace text, and a two-phase per-document balancing pass
// (first maximize distinct-document coverage, then backfill up to a
// per-document cap) before truncating to offset+topK+1 candidates for the
// caller to paginate. Grounded on tools.rs's rerank_and_dedup_results.
func RerankAndDedup(results []model.SearchResult, query string, topK, offset int) []model.SearchResult {
	queryTerms := QueryTerms(query)

	scored := make([]scoredResult, 0, len(results))
	for _, r := range results {
		scored = append(scored, scoredResult{result: r, adjusted: r.Score + LexicalBoost(queryTerms, query, r)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].adjusted > scored[j].adjusted
	})

	perDocLimit := 2
	if topK <= 3 {
		perDocLimit = 1
	}
	limit := offset + topK + 1

	seenTextKeys := make(map[string]struct{})
	candidates := make([]scoredResult, 0, len(scored))
	for _, sr := range scored {
		key := strings.ToLower(strings.Join(strings.Fields(sr.result.Text), " "))
		if _, dup := seenTextKeys[key]; dup {
			continue
		}
		seenTextKeys[key] = struct{}{}
		candidates = append(candidates, sr)
	}

	selected := make([]scoredResult, 0, limit)
	perDocCount := make(map[string]int)

	for _, sr := range candidates {
		if len(selected) >= limit {
			break
		}
		key := sr.result.Metadata.FilePath
		if perDocCount[key] == 0 {
			selected = append(selected, sr)
			perDocCount[key] = 1
		}
	}

	for _, sr := range candidates {
		if len(selected) >= limit {
			break
		}
		key := sr.result.Metadata.FilePath
		count := perDocCount[key]
		if count == 0 || count >= perDocLimit {
			continue
		}
		selected = append(selected, sr)
		perDocCount[key] = count + 1
	}

	out := make([]model.SearchResult, 0, len(selected))
	for _, sr := range selected {
		out = append(out, sr.result)
	}
	return out
}
