// Package model holds the plain data types shared across the indexing,
// search, and language-bridge layers.
package model

// DocMetadata describes the document (and, per chunk, the chunk) a piece of
// retrieved text came from. (category, topic) uniquely identifies a document
// within one language's documentation tree.
type DocMetadata struct {
	FilePath       string `json:"file_path"`
	Category       string `json:"category"`
	Topic          string `json:"topic"`
	Title          string `json:"title"`
	HasCode        bool   `json:"has_code"`
	CodeBlockCount int    `json:"code_block_count"`
}

// DocData is a fully loaded document, as produced by a DocumentSource and
// consumed by the Chunker. Immutable once created.
type DocData struct {
	DocID    string // == FilePath
	Text     string
	Metadata DocMetadata
}

// TextChunk is a chunker output. Every field of the parent DocMetadata is
// preserved except HasCode, which is recomputed per chunk.
type TextChunk struct {
	Text     string
	Metadata DocMetadata
}

// SearchResult is the unit returned by BM25Store, VectorStore, Fusion, and
// the reranker. Scores are only comparable within one producer except
// through RRF.
type SearchResult struct {
	Text     string
	Score    float64
	Metadata SearchResultMetadata
}

// SearchResultMetadata is the subset of DocMetadata carried on search
// results (code_block_count is a build-time-only concern).
type SearchResultMetadata struct {
	FilePath string `json:"file_path"`
	Category string `json:"category"`
	Topic    string `json:"topic"`
	Title    string `json:"title"`
	HasCode  bool   `json:"has_code"`
}

// SearchMode records which retrieval paths an index was built with.
type SearchMode string

const (
	SearchModeBM25   SearchMode = "bm25"
	SearchModeHybrid SearchMode = "hybrid"
)

// IndexMetadata is persisted as JSON next to the index files. An index is
// ready iff this file parses, Version and Lang match the resolved settings,
// and DocumentCount > 0.
type IndexMetadata struct {
	Version        string     `json:"version"`
	Lang           string     `json:"lang"`
	EmbeddingModel string     `json:"embedding_model"`
	DocumentCount  int        `json:"document_count"`
	SearchMode     SearchMode `json:"search_mode"`
}

// Ready reports whether m satisfies the index-readiness predicate for the
// given resolved version and language.
func (m IndexMetadata) Ready(version, lang string) bool {
	return m.Version == version && m.Lang == lang && m.DocumentCount > 0
}

// CodeBlock is an extracted fenced code block used by tool responses.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Context  string `json:"context"`
}
