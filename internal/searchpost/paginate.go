package searchpost

import (
	"github.com/Aman-CERP/cjdocs-bridge/internal/docsource"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// Assemble runs the full search_docs post-processing pipeline over raw
// candidates: rerank+dedup, optional package filtering, pagination, and
// optional code-example extraction. Grounded on tools.rs's search_docs tool
// body (the part after the raw index query).
func Assemble(raw []model.SearchResult, q Query) SearchResponse {
	results := RerankAndDedup(raw, q.Text, q.TopK, q.Offset)

	if q.Package != "" {
		filtered := results[:0:0]
		for _, r := range results {
			if HasPackage(r, q.Package) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	total := len(results)
	end := q.Offset + q.TopK
	if end > total {
		end = total
	}
	var paginated []model.SearchResult
	if q.Offset < total {
		paginated = results[q.Offset:end]
	}

	hasMore := total > q.Offset+q.TopK

	items := make([]ResultItem, 0, len(paginated))
	for _, r := range paginated {
		item := ResultItem{
			Content:         r.Text,
			Score:           r.Score,
			FilePath:        r.Metadata.FilePath,
			Category:        r.Metadata.Category,
			Topic:           r.Metadata.Topic,
			Title:           r.Metadata.Title,
			HasCodeExamples: r.Metadata.HasCode,
		}
		if q.ExtractCode {
			blocks := docsource.ExtractCodeBlocks(r.Text)
			examples := make([]CodeExample, 0, len(blocks))
			for _, b := range blocks {
				examples = append(examples, CodeExample{
					Language:    b.Language,
					Code:        b.Code,
					Context:     b.Context,
					SourceTopic: r.Metadata.Topic,
					SourceFile:  r.Metadata.FilePath,
				})
			}
			item.CodeExamples = examples
		}
		items = append(items, item)
	}

	resp := SearchResponse{
		Items:   items,
		Total:   total,
		Count:   len(items),
		Offset:  q.Offset,
		HasMore: hasMore,
	}
	if hasMore {
		next := q.Offset + resp.Count
		resp.NextOffset = &next
	}
	return resp
}
