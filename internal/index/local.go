package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
	"github.com/Aman-CERP/cjdocs-bridge/internal/embed"
	"github.com/Aman-CERP/cjdocs-bridge/internal/fusion"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
	"github.com/Aman-CERP/cjdocs-bridge/internal/rerank"
	"github.com/Aman-CERP/cjdocs-bridge/internal/store"
)

// LocalIndex is the query-side counterpart to IndexInitializer: it holds the
// opened BM25/vector stores for one index generation and answers Query
// calls. Grounded on the Rust original's LocalSearchIndex
// (indexer::search::mod).
type LocalIndex struct {
	cfg *config.Config

	info model.IndexInfo
	bm25 store.BM25Index
	vec  store.VectorStore

	embedder embed.Embedder
	reranker rerank.Reranker
	chunks   *chunkStore

	watcher *metadataWatcher
	stale   atomic.Bool
}

// NewLocalIndex constructs a LocalIndex whose reranker and query-time
// embedder are independent instances from whatever IndexInitializer used to
// build the index, matching the original's two separate
// embedding::create_embedder calls (one in the initializer, one in
// LocalSearchIndex::new). Embedder construction failure is logged and
// tolerated rather than fatal: BM25-only operation remains available.
func NewLocalIndex(ctx context.Context, cfg *config.Config) *LocalIndex {
	li := &LocalIndex{
		cfg:      cfg,
		reranker: rerank.New(cfg.Embeddings.RerankProvider, cfg.Embeddings.RerankURL),
	}

	if cfg.Embeddings.Provider != "" {
		embedder, err := embed.NewEmbedder(ctx, embed.ParseProvider(cfg.Embeddings.Provider), cfg.Embeddings.Model)
		if err != nil {
			slog.Warn("query_embedder_unavailable", slog.String("error", err.Error()))
		} else {
			li.embedder = embedder
		}
	}

	return li
}

// Init resolves (and builds, if needed) the docs index via IndexInitializer,
// then opens the resulting BM25 index, chunk sidecar, and (if an embedder is
// available) vector store for querying.
func (li *LocalIndex) Init(ctx context.Context) (model.IndexInfo, error) {
	info, err := NewIndexInitializer(li.cfg).InitializeAndIndex(ctx)
	if err != nil {
		return model.IndexInfo{}, err
	}

	if li.bm25 != nil {
		_ = li.bm25.Close()
		li.bm25 = nil
	}
	if li.vec != nil {
		_ = li.vec.Close()
		li.vec = nil
	}

	li.info = info

	bm25, err := store.NewBM25IndexWithBackend(info.BM25Dir(), store.DefaultBM25Config(), "")
	if err != nil {
		return model.IndexInfo{}, fmt.Errorf("open bm25 index: %w", err)
	}
	if err := bm25.Load(info.BM25Dir()); err != nil {
		return model.IndexInfo{}, fmt.Errorf("load bm25 index: %w", err)
	}
	li.bm25 = bm25

	cs, err := loadChunkStore(chunkStorePath(info))
	if err != nil {
		return model.IndexInfo{}, fmt.Errorf("load chunk store: %w", err)
	}
	li.chunks = cs

	if li.embedder != nil && info.EmbeddingModelName != "" {
		if err := li.initVectorStore(ctx, info); err != nil {
			return model.IndexInfo{}, err
		}
	}

	if li.watcher != nil {
		_ = li.watcher.Stop()
	}
	li.stale.Store(false)
	li.watcher = startMetadataWatcher(info.MetadataPath(), func() { li.stale.Store(true) })

	return info, nil
}

// refreshIfStale reopens the BM25/vector stores when metadataWatcher has
// observed a newer index_metadata.json written by another process (e.g. a
// concurrent `cjdocs index --rebuild`). Errors are logged and swallowed:
// the previously-open generation keeps serving queries rather than failing
// the request outright.
func (li *LocalIndex) refreshIfStale(ctx context.Context) {
	if !li.stale.Load() {
		return
	}
	if _, err := li.Init(ctx); err != nil {
		slog.Warn("index_refresh_failed", slog.String("error", err.Error()))
	}
}

// initVectorStore opens the persisted vector store for info: the
// SQLite-backed store by default, or an in-memory HNSW accelerator when
// cfg.Search.VectorAccelerator is set (spec.md §4.4) — VectorAccelerator
// implements the same store.VectorStore contract, so which backend built
// the index determines which one is opened here.
func (li *LocalIndex) initVectorStore(ctx context.Context, info model.IndexInfo) error {
	if li.cfg.Search.VectorAccelerator {
		accel, err := store.NewVectorAccelerator(store.DefaultAcceleratorConfig(li.embedder.Dimensions()))
		if err != nil {
			return fmt.Errorf("create vector accelerator: %w", err)
		}
		if err := accel.Load(acceleratorPath(info)); err != nil {
			return fmt.Errorf("load vector accelerator: %w", err)
		}
		li.vec = accel
		return nil
	}

	vstore, err := store.NewSQLiteVectorStore(info.VectorDBPath(), store.DefaultVectorStoreConfig(li.embedder.Dimensions()))
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	if err := vstore.Load(info.VectorDBPath()); err != nil {
		return fmt.Errorf("load vector store: %w", err)
	}
	li.vec = vstore
	return nil
}

// Query implements the dispatch table of spec.md §4.6:
//   - neither BM25 nor vector configured -> empty result
//   - BM25 only -> BM25 search, optional rerank
//   - BM25 + vector -> both searches, RRF fusion, optional rerank
//
// Rerank failures fall back to the pre-rerank result set on both branches
// (SPEC_FULL.md's documented correction over the Rust original's narrower
// hybrid-only fallback).
func (li *LocalIndex) Query(ctx context.Context, query string, topK int, category string, doRerank bool) ([]model.SearchResult, error) {
	li.refreshIfStale(ctx)

	if li.bm25 == nil {
		return nil, nil
	}

	bm25Results, err := li.searchBM25(ctx, query, topK, category)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	var results []model.SearchResult
	if li.embedder != nil && li.vec != nil {
		vecResults, err := li.searchVector(ctx, query, topK, category)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		results = fusion.ReciprocalRankFusion([][]model.SearchResult{bm25Results, vecResults}, 60, topK)
	} else {
		results = bm25Results
	}

	if doRerank && li.reranker.Enabled() {
		reranked, err := li.reranker.Rerank(ctx, query, results, topK)
		if err != nil {
			slog.Warn("rerank_failed", slog.String("error", err.Error()))
			return results, nil
		}
		return reranked, nil
	}

	if topK >= 0 && topK < len(results) {
		return results[:topK], nil
	}
	return results, nil
}

func (li *LocalIndex) searchBM25(ctx context.Context, query string, topK int, category string) ([]model.SearchResult, error) {
	raw, err := li.bm25.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	results := make([]model.SearchResult, 0, len(raw))
	for _, r := range raw {
		chunk, ok := li.chunks.get(r.DocID)
		if !ok {
			continue
		}
		if category != "" && chunk.Metadata.Category != category {
			continue
		}
		results = append(results, model.SearchResult{
			Text:     chunk.Text,
			Score:    r.Score,
			Metadata: toResultMetadata(chunk.Metadata),
		})
	}
	return results, nil
}

func (li *LocalIndex) searchVector(ctx context.Context, query string, topK int, category string) ([]model.SearchResult, error) {
	vec, err := li.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	raw, err := li.vec.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	results := make([]model.SearchResult, 0, len(raw))
	for _, r := range raw {
		chunk, ok := li.chunks.get(r.ID)
		if !ok {
			continue
		}
		if category != "" && chunk.Metadata.Category != category {
			continue
		}
		results = append(results, model.SearchResult{
			Text:     chunk.Text,
			Score:    float64(r.Score),
			Metadata: toResultMetadata(chunk.Metadata),
		})
	}
	return results, nil
}

func acceleratorPath(info model.IndexInfo) string {
	return info.VectorDBPath() + ".hnsw"
}

func toResultMetadata(m model.DocMetadata) model.SearchResultMetadata {
	return model.SearchResultMetadata{
		FilePath: m.FilePath,
		Category: m.Category,
		Topic:    m.Topic,
		Title:    m.Title,
		HasCode:  m.HasCode,
	}
}

// Close releases the embedder, the metadata watcher, and any open store
// handles.
func (li *LocalIndex) Close() error {
	var firstErr error
	if li.watcher != nil {
		if err := li.watcher.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if li.bm25 != nil {
		if err := li.bm25.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if li.vec != nil {
		if err := li.vec.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if li.embedder != nil {
		if err := li.embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
