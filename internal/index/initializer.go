package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/Aman-CERP/cjdocs-bridge/internal/chunk"
	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
	"github.com/Aman-CERP/cjdocs-bridge/internal/docsource"
	"github.com/Aman-CERP/cjdocs-bridge/internal/embed"
	cjerrors "github.com/Aman-CERP/cjdocs-bridge/internal/errors"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
	"github.com/Aman-CERP/cjdocs-bridge/internal/store"
)

// PrebuiltMode is the dispatch mode of IndexInitializer, per spec.md §4.7.
type PrebuiltMode int

const (
	PrebuiltOff PrebuiltMode = iota
	PrebuiltVersion
	PrebuiltAuto
)

func parsePrebuiltMode(cfg *config.Config) (PrebuiltMode, string) {
	switch strings.ToLower(cfg.LSP.PrebuiltMode) {
	case "version":
		return PrebuiltVersion, cfg.LSP.PrebuiltVersion
	case "auto":
		return PrebuiltAuto, ""
	default:
		return PrebuiltOff, ""
	}
}

// IndexInitializer resolves which docs version to serve and, if it hasn't
// been indexed yet, builds the BM25 and (if configured) vector indexes for
// it. Grounded on the Rust original's indexer::initializer module, split
// from LocalIndex the way the original splits index_is_ready/build_index
// from LocalSearchIndex::query.
type IndexInitializer struct {
	cfg *config.Config
}

func NewIndexInitializer(cfg *config.Config) *IndexInitializer {
	return &IndexInitializer{cfg: cfg}
}

func (ii *IndexInitializer) embeddingModelName() string {
	if ii.cfg.Embeddings.Provider == "" {
		return ""
	}
	return ii.cfg.Embeddings.Model
}

// indexIsReady implements the readiness predicate of spec.md §3: the
// metadata file parses and its (version, lang, document count) agree with
// what info expects.
func indexIsReady(info model.IndexInfo) bool {
	data, err := os.ReadFile(info.MetadataPath())
	if err != nil {
		return false
	}
	var meta model.IndexMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return false
	}
	return meta.Ready(info.Version, info.Lang)
}

// InitializeAndIndex resolves the configured docs version (or loads a
// pre-built index, per PrebuiltMode) and ensures the on-disk index is
// ready to query, building it if necessary.
func (ii *IndexInitializer) InitializeAndIndex(ctx context.Context) (model.IndexInfo, error) {
	mode, pinnedVersion := parsePrebuiltMode(ii.cfg)
	if mode != PrebuiltOff {
		return ii.loadPrebuilt(mode, pinnedVersion)
	}

	// Concurrent callers must not resolve/checkout the shared docs tree at
	// the same time; the version isn't known until after resolution, so the
	// lock is scoped to the data directory rather than a per-version path.
	lockPath := filepath.Join(ii.cfg.LSP.DataDir, ".resolve.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return model.IndexInfo{}, cjerrors.IOError("create data directory", err)
	}
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return model.IndexInfo{}, cjerrors.IOError("acquire docs resolve lock", err)
	}
	defer fl.Unlock()

	info := model.IndexInfo{
		Lang:               ii.cfg.LSP.DocsLang,
		EmbeddingModelName: ii.embeddingModelName(),
		DataDir:            ii.cfg.LSP.DataDir,
	}

	gitMgr := docsource.NewGitManager(info.DocsRepoDir(), ii.cfg.LSP.DocsRepoURL)
	resolved, err := gitMgr.ResolveVersion(ctx, ii.cfg.LSP.DocsVersion)
	if err != nil {
		return model.IndexInfo{}, fmt.Errorf("resolve docs version %q: %w", ii.cfg.LSP.DocsVersion, err)
	}
	info.Version = resolved
	slog.Info("docs_version_resolved", slog.String("requested", ii.cfg.LSP.DocsVersion), slog.String("resolved", resolved))

	if indexIsReady(info) {
		slog.Info("index_already_built", slog.String("version", info.Version), slog.String("lang", info.Lang))
		return info, nil
	}

	if err := ii.buildLocked(ctx, info); err != nil {
		return model.IndexInfo{}, err
	}
	return info, nil
}

// buildLocked serializes index builds for one (version, lang) pair behind a
// dedicated lock file under that index's own directory, distinct from the
// data-directory-wide resolve lock above: two processes that already agree
// on the resolved version (e.g. a pinned docs_version) may still race to
// build it, and re-checking readiness after acquiring the lock avoids a
// redundant rebuild by whichever process loses the race.
func (ii *IndexInitializer) buildLocked(ctx context.Context, info model.IndexInfo) error {
	if err := os.MkdirAll(info.Dir(), 0755); err != nil {
		return cjerrors.IOError("create index directory", err)
	}
	fl := flock.New(info.BuildLockPath())
	if err := fl.Lock(); err != nil {
		return cjerrors.IOError("acquire index build lock", err)
	}
	defer fl.Unlock()

	if indexIsReady(info) {
		slog.Info("index_already_built", slog.String("version", info.Version), slog.String("lang", info.Lang))
		return nil
	}
	return ii.build(ctx, info)
}

func (ii *IndexInitializer) loadPrebuilt(mode PrebuiltMode, pinnedVersion string) (model.IndexInfo, error) {
	switch mode {
	case PrebuiltVersion:
		info := model.IndexInfo{
			Version:            pinnedVersion,
			Lang:               ii.cfg.LSP.DocsLang,
			EmbeddingModelName: ii.embeddingModelName(),
			DataDir:            ii.cfg.LSP.DataDir,
		}
		if !indexIsReady(info) {
			return model.IndexInfo{}, cjerrors.NotFound(
				fmt.Sprintf("pre-built index not found for version=%s lang=%s model=%s", pinnedVersion, info.Lang, info.ModelSlug()), nil)
		}
		return info, nil

	case PrebuiltAuto:
		versions, err := ii.discoverPrebuiltVersions()
		if err != nil {
			return model.IndexInfo{}, err
		}
		switch len(versions) {
		case 0:
			return model.IndexInfo{}, cjerrors.NotFound(
				fmt.Sprintf("no pre-built indexes found under %s", filepath.Join(ii.cfg.LSP.DataDir, "indexes")), nil)
		case 1:
			return model.IndexInfo{
				Version:            versions[0],
				Lang:               ii.cfg.LSP.DocsLang,
				EmbeddingModelName: ii.embeddingModelName(),
				DataDir:            ii.cfg.LSP.DataDir,
			}, nil
		default:
			return model.IndexInfo{}, cjerrors.Validation(
				fmt.Sprintf("found %d pre-built indexes [%s]; set lsp.prebuilt_version to pick one", len(versions), strings.Join(versions, ", ")))
		}

	default:
		return model.IndexInfo{}, fmt.Errorf("unreachable prebuilt mode")
	}
}

// discoverPrebuiltVersions lists subdirectories of <data_dir>/indexes whose
// persisted metadata is ready for the configured language and embedding
// model, mirroring the original's discover_prebuilt_versions.
func (ii *IndexInitializer) discoverPrebuiltVersions() ([]string, error) {
	indexesDir := filepath.Join(ii.cfg.LSP.DataDir, "indexes")
	entries, err := os.ReadDir(indexesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cjerrors.IOError("list pre-built indexes directory", err)
	}

	var versions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info := model.IndexInfo{
			Version:            e.Name(),
			Lang:               ii.cfg.LSP.DocsLang,
			EmbeddingModelName: ii.embeddingModelName(),
			DataDir:            ii.cfg.LSP.DataDir,
		}
		if indexIsReady(info) {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

type builtChunk struct {
	id    string
	chunk model.TextChunk
}

// build loads the full docs tree at info's resolved version, chunks it,
// and populates the BM25 index, the chunk sidecar, and (if an embedding
// provider is configured) the vector index, then writes index_metadata.json
// last so a crash mid-build never leaves a ready-looking but incomplete
// index behind.
func (ii *IndexInitializer) build(ctx context.Context, info model.IndexInfo) error {
	slog.Info("loading_documents", slog.String("lang", info.Lang))
	source := docsource.NewGitSource(info.DocsRepoDir(), docsource.DocsSourceDirName(info.Lang))
	docs, err := source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return cjerrors.Validation(fmt.Sprintf("no documents found for version=%s lang=%s", info.Version, info.Lang))
	}
	slog.Info("documents_loaded", slog.Int("count", len(docs)))

	var built []builtChunk
	for _, doc := range docs {
		for i, c := range chunk.ChunkDocument(doc, ii.cfg.Search.ChunkMaxSize) {
			built = append(built, builtChunk{id: chunkID(doc.DocID, i), chunk: c})
		}
	}
	slog.Info("documents_chunked", slog.Int("chunks", len(built)))

	cs := newChunkStore()
	bm25Docs := make([]*store.Document, 0, len(built))
	for _, b := range built {
		cs.add(b.id, b.chunk)
		bm25Docs = append(bm25Docs, &store.Document{ID: b.id, Content: b.chunk.Text})
	}

	bm25, err := store.NewBM25IndexWithBackend(info.BM25Dir(), store.DefaultBM25Config(), "")
	if err != nil {
		return fmt.Errorf("open bm25 index: %w", err)
	}
	defer bm25.Close()
	if err := bm25.Index(ctx, bm25Docs); err != nil {
		return fmt.Errorf("index bm25 documents: %w", err)
	}
	if err := bm25.Save(info.BM25Dir()); err != nil {
		return fmt.Errorf("save bm25 index: %w", err)
	}

	searchMode := model.SearchModeBM25
	if ii.cfg.Embeddings.Provider != "" {
		if err := ii.buildVectorIndex(ctx, info, built); err != nil {
			return fmt.Errorf("build vector index: %w", err)
		}
		searchMode = model.SearchModeHybrid
	}

	if err := cs.save(chunkStorePath(info)); err != nil {
		return fmt.Errorf("save chunk store: %w", err)
	}

	meta := model.IndexMetadata{
		Version:        info.Version,
		Lang:           info.Lang,
		EmbeddingModel: info.EmbeddingModelName,
		DocumentCount:  len(docs),
		SearchMode:     searchMode,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal index metadata: %w", err)
	}
	tmp := info.MetadataPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write index metadata: %w", err)
	}
	if err := os.Rename(tmp, info.MetadataPath()); err != nil {
		return fmt.Errorf("finalize index metadata: %w", err)
	}
	slog.Info("index_build_complete", slog.String("version", info.Version), slog.Int("documents", len(docs)), slog.Int("chunks", len(built)))
	return nil
}

func (ii *IndexInitializer) buildVectorIndex(ctx context.Context, info model.IndexInfo, built []builtChunk) error {
	embedder, err := embed.NewEmbedder(ctx, embed.ParseProvider(ii.cfg.Embeddings.Provider), ii.cfg.Embeddings.Model)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	defer embedder.Close()

	var vstore store.VectorStore
	if ii.cfg.Search.VectorAccelerator {
		vstore, err = store.NewVectorAccelerator(store.DefaultAcceleratorConfig(embedder.Dimensions()))
		if err != nil {
			return fmt.Errorf("create vector accelerator: %w", err)
		}
	} else {
		vstore, err = store.NewSQLiteVectorStore(info.VectorDBPath(), store.DefaultVectorStoreConfig(embedder.Dimensions()))
		if err != nil {
			return fmt.Errorf("open vector store: %w", err)
		}
	}
	defer vstore.Close()

	const batchSize = embed.DefaultBatchSize
	for start := 0; start < len(built); start += batchSize {
		end := min(start+batchSize, len(built))
		batch := built[start:end]

		texts := make([]string, len(batch))
		ids := make([]string, len(batch))
		for i, b := range batch {
			texts[i] = b.chunk.Text
			ids[i] = b.id
		}

		embedder.SetBatchIndex(start / batchSize)
		embedder.SetFinalBatch(end == len(built))
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at offset %d: %w", start, err)
		}
		if err := vstore.Add(ctx, ids, vectors); err != nil {
			return fmt.Errorf("add vectors at offset %d: %w", start, err)
		}
	}

	if ii.cfg.Search.VectorAccelerator {
		if err := vstore.Save(acceleratorPath(info)); err != nil {
			return fmt.Errorf("save vector accelerator: %w", err)
		}
	} else {
		if err := vstore.Save(info.VectorDBPath()); err != nil {
			return fmt.Errorf("save vector store: %w", err)
		}
	}

	return nil
}

func chunkStorePath(info model.IndexInfo) string {
	return filepath.Join(info.Dir(), "chunks.json")
}
