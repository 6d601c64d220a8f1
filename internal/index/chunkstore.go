package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// chunkID derives the identifier chunks are indexed under in both the
// BM25Index and the VectorStore: the parent document's file path plus the
// chunk's position within it. Stable across rebuilds as long as the
// chunker produces chunks in the same order for the same document.
func chunkID(filePath string, ord int) string {
	return fmt.Sprintf("%s#%d", filePath, ord)
}

// chunkStore is the sidecar mapping from chunkID to full chunk text and
// metadata. BM25Index and VectorStore only round-trip (id, content) and
// (id, vector) pairs — neither backend is required to carry document
// metadata alongside it, so LocalIndex reassembles model.SearchResult from
// this side table after a raw BM25Result/VectorResult comes back. This
// replaces the original's tantivy/sqlite colocated-fields schema, which
// doesn't translate cleanly across the two BM25 backends (bleve vs. FTS5).
type chunkStore struct {
	chunks map[string]model.TextChunk
}

func newChunkStore() *chunkStore {
	return &chunkStore{chunks: make(map[string]model.TextChunk)}
}

func (s *chunkStore) add(id string, chunk model.TextChunk) {
	s.chunks[id] = chunk
}

func (s *chunkStore) get(id string) (model.TextChunk, bool) {
	c, ok := s.chunks[id]
	return c, ok
}

func (s *chunkStore) len() int { return len(s.chunks) }

type chunkStoreEntry struct {
	ID    string          `json:"id"`
	Chunk model.TextChunk `json:"chunk"`
}

// save persists the store as a flat JSON array, atomically (write to a
// temp file, then rename) so a crash mid-write never leaves a truncated
// file for the next load to choke on.
func (s *chunkStore) save(path string) error {
	entries := make([]chunkStoreEntry, 0, len(s.chunks))
	for id, c := range s.chunks {
		entries = append(entries, chunkStoreEntry{ID: id, Chunk: c})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal chunk store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create chunk store directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write chunk store temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize chunk store: %w", err)
	}
	return nil
}

func loadChunkStore(path string) (*chunkStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk store: %w", err)
	}
	var entries []chunkStoreEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse chunk store: %w", err)
	}
	s := newChunkStore()
	for _, e := range entries {
		s.chunks[e.ID] = e.Chunk
	}
	return s, nil
}
