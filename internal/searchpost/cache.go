package searchpost

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PageCache memoizes assembled search pages by their full query shape, so a
// client re-paging through results (bumping offset one page at a time)
// doesn't re-run BM25/vector retrieval and reranking for a query it just
// issued. Not part of the original (which has no persistent server
// process issuing repeat queries), but grounded in the same teacher
// pattern used for the embedding cache: golang-lru/v2 with a fixed
// capacity, looked up by a deterministic string key.
type PageCache struct {
	cache *lru.Cache[string, SearchResponse]
}

// NewPageCache builds a page cache holding up to capacity entries.
func NewPageCache(capacity int) (*PageCache, error) {
	c, err := lru.New[string, SearchResponse](capacity)
	if err != nil {
		return nil, fmt.Errorf("create search page cache: %w", err)
	}
	return &PageCache{cache: c}, nil
}

// Key derives a cache key from a query's full shape.
func Key(q Query) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%d\x1f%d\x1f%t", q.Text, q.Category, q.Package, q.TopK, q.Offset, q.ExtractCode)
}

func (c *PageCache) Get(q Query) (SearchResponse, bool) {
	return c.cache.Get(Key(q))
}

func (c *PageCache) Put(q Query, resp SearchResponse) {
	c.cache.Add(Key(q), resp)
}
