package model

import (
	"path/filepath"
	"strings"
)

// IndexInfo is the in-memory descriptor an IndexInitializer produces; all
// on-disk paths for one index generation derive from it.
type IndexInfo struct {
	Version            string
	Lang               string
	EmbeddingModelName string // empty if BM25-only
	DataDir            string
}

// ModelSlug is "bm25-only" when no embedder is configured, else the
// embedding model name with ':' and '/' replaced by "--" (so it is safe as
// a path component).
func (i IndexInfo) ModelSlug() string {
	if i.EmbeddingModelName == "" {
		return "bm25-only"
	}
	r := strings.NewReplacer(":", "--", "/", "--")
	return r.Replace(i.EmbeddingModelName)
}

// Dir is the root directory for this index generation:
// <data_dir>/indexes/<version>/<lang>/<model-slug>/
func (i IndexInfo) Dir() string {
	return filepath.Join(i.DataDir, "indexes", i.Version, i.Lang, i.ModelSlug())
}

// BM25Dir is Dir()/bm25_index.
func (i IndexInfo) BM25Dir() string { return filepath.Join(i.Dir(), "bm25_index") }

// VectorDBPath is Dir()/vector_db (a sqlite file).
func (i IndexInfo) VectorDBPath() string { return filepath.Join(i.Dir(), "vector_db") }

// MetadataPath is Dir()/index_metadata.json.
func (i IndexInfo) MetadataPath() string { return filepath.Join(i.Dir(), "index_metadata.json") }

// DocsRepoDir is <data_dir>/docs_repo, the sole git checkout working
// directory for this process.
func (i IndexInfo) DocsRepoDir() string { return filepath.Join(i.DataDir, "docs_repo") }

// BuildLockPath is Dir()/.build.lock, used by gofrs/flock to serialize
// concurrent builders of the same index generation.
func (i IndexInfo) BuildLockPath() string { return filepath.Join(i.Dir(), ".build.lock") }
