// Package fusion merges ranked result lists with Reciprocal Rank Fusion.
package fusion

import (
	"sort"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

func dedupKey(r model.SearchResult) string {
	text := r.Text
	if len(text) > 200 {
		// text-prefix dedup is over runes in the original; count runes, not
		// bytes, so multi-byte CJK text isn't cut mid-codepoint.
		runes := []rune(text)
		if len(runes) > 200 {
			text = string(runes[:200])
		}
	}
	return r.Metadata.FilePath + "|" + text
}

// ReciprocalRankFusion merges resultLists using RRF: each appearance of a
// result contributes 1/(k+rank+1) to its accumulated score (rank is
// 0-based). Results sharing a (file_path, 200-char text prefix) dedup key
// collapse into one, keeping the representative with the highest original
// producer score. Output is truncated to topK and sorted descending by
// fused score.
func ReciprocalRankFusion(resultLists [][]model.SearchResult, k int, topK int) []model.SearchResult {
	if len(resultLists) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	best := make(map[string]model.SearchResult)

	for _, results := range resultLists {
		for rank, result := range results {
			key := dedupKey(result)
			rrfScore := 1.0 / (float64(k) + float64(rank) + 1.0)
			scores[key] += rrfScore

			if existing, ok := best[key]; !ok || result.Score > existing.Score {
				best[key] = result
			}
		}
	}

	keys := make([]string, 0, len(scores))
	for key := range scores {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return scores[keys[i]] > scores[keys[j]]
	})

	if topK >= 0 && len(keys) > topK {
		keys = keys[:topK]
	}

	out := make([]model.SearchResult, 0, len(keys))
	for _, key := range keys {
		original := best[key]
		out = append(out, model.SearchResult{
			Text:  original.Text,
			Score: scores[key],
			Metadata: model.SearchResultMetadata{
				FilePath: original.Metadata.FilePath,
				Category: original.Metadata.Category,
				Topic:    original.Metadata.Topic,
				Title:    original.Metadata.Title,
				HasCode:  original.Metadata.HasCode,
			},
		})
	}
	return out
}
