package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SQLiteVectorStore implements VectorStore on top of SQLite, colocating
// chunk IDs with their embeddings the way the original implementation's
// vector.rs does (a sqlite-vec vec0 virtual table next to a plain id
// table), rather than the in-memory graph internal/store used previously.
// That keeps the vector index durable and queryable with plain SQL
// alongside the BM25 store, and lets two processes share one file under
// WAL the same way SQLiteBM25Index does.
//
// The actual KNN mechanism is swapped by build tag: the default build uses
// the CGo sqlite-vec extension (vector_cgo.go) for true ANN-free but
// index-accelerated cosine search; a "purego" build (vector_purego.go)
// falls back to an in-process brute-force scan over the same schema so the
// binary can still be cross-compiled without a C toolchain.
type SQLiteVectorStore struct {
	mu      sync.RWMutex
	db      *sql.DB
	path    string
	config  VectorStoreConfig
	backend vecBackend
	closed  bool
}

// vecBackend is the build-tag-selected embedding storage/search mechanism.
type vecBackend interface {
	// init prepares the backend's schema on db (vec0 virtual table or a
	// plain BLOB column), given the configured dimensionality and metric.
	init(db *sql.DB, dim int, metric string) error
	// upsert stores vectors for the given rowids, replacing any existing entry.
	upsert(db *sql.DB, rowIDs []int64, vectors [][]float32) error
	// search returns the k nearest rowids to query, nearest first, alongside
	// their distance under the configured metric.
	search(db *sql.DB, query []float32, k int, metric string) ([]vecHit, error)
	// delete removes the given rowids.
	delete(db *sql.DB, rowIDs []int64) error
}

// vecHit is one raw KNN match before it is joined against vector_ids.
type vecHit struct {
	RowID    int64
	Distance float32
}

// NewSQLiteVectorStore opens (or creates) a vector store at path. If path
// is empty, an in-memory database is used (for tests).
func NewSQLiteVectorStore(path string, config VectorStoreConfig) (*SQLiteVectorStore, error) {
	if config.Dimensions <= 0 {
		return nil, fmt.Errorf("vector store requires a positive dimensionality, got %d", config.Dimensions)
	}
	if config.Metric == "" {
		config.Metric = "cosine"
	}

	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path
	}

	db, err := sql.Open(sqlDriverName, dsnWithPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS vector_ids (
		rowid INTEGER PRIMARY KEY,
		id    TEXT UNIQUE NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vector_ids table: %w", err)
	}

	backend := newVecBackend()
	if err := backend.init(db, config.Dimensions, config.Metric); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize vector backend: %w", err)
	}

	return &SQLiteVectorStore{db: db, path: path, config: config, backend: backend}, nil
}

// Add inserts vectors with their IDs. If an ID exists, its embedding is replaced.
func (s *SQLiteVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(v)}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rowIDs := make([]int64, len(ids))
	for i, id := range ids {
		var rowID int64
		err := tx.QueryRowContext(ctx, `SELECT rowid FROM vector_ids WHERE id = ?`, id).Scan(&rowID)
		switch {
		case err == sql.ErrNoRows:
			res, insErr := tx.ExecContext(ctx, `INSERT INTO vector_ids (id) VALUES (?)`, id)
			if insErr != nil {
				return fmt.Errorf("insert vector_ids for %s: %w", id, insErr)
			}
			rowID, _ = res.LastInsertId()
		case err != nil:
			return fmt.Errorf("lookup vector_ids for %s: %w", id, err)
		}
		rowIDs[i] = rowID
	}

	if err := s.backend.upsert(s.db, rowIDs, vectors); err != nil {
		return fmt.Errorf("upsert embeddings: %w", err)
	}

	return tx.Commit()
}

// Search finds k nearest neighbors to query vector.
func (s *SQLiteVectorStore) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(query)}
	}
	if k <= 0 {
		return []*VectorResult{}, nil
	}

	hits, err := s.backend.search(s.db, query, k, s.config.Metric)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	results := make([]*VectorResult, 0, len(hits))
	for _, hit := range hits {
		var id string
		if err := s.db.QueryRowContext(ctx, `SELECT id FROM vector_ids WHERE rowid = ?`, hit.RowID).Scan(&id); err != nil {
			continue // orphaned rowid (race with delete), skip
		}
		results = append(results, &VectorResult{
			ID:       id,
			Distance: hit.Distance,
			Score:    distanceToScore(hit.Distance, metricShortName(s.config.Metric)),
		})
	}

	return results, nil
}

// Delete removes vectors by ID.
func (s *SQLiteVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	rowIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		var rowID int64
		if err := s.db.QueryRowContext(ctx, `SELECT rowid FROM vector_ids WHERE id = ?`, id).Scan(&rowID); err == nil {
			rowIDs = append(rowIDs, rowID)
		}
	}
	if len(rowIDs) == 0 {
		return nil
	}

	if err := s.backend.delete(s.db, rowIDs); err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}

	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM vector_ids WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete vector_ids for %s: %w", id, err)
		}
	}

	return nil
}

// AllIDs returns all vector IDs in the store.
func (s *SQLiteVectorStore) AllIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}

	rows, err := s.db.Query(`SELECT id FROM vector_ids`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Contains checks if ID exists.
func (s *SQLiteVectorStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	var rowID int64
	return s.db.QueryRow(`SELECT rowid FROM vector_ids WHERE id = ?`, id).Scan(&rowID) == nil
}

// Count returns number of vectors.
func (s *SQLiteVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM vector_ids`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Save is a no-op: the store is already persisted at its open-time path.
func (s *SQLiteVectorStore) Save(path string) error { return nil }

// Load is a no-op: SQLite state is read live, not snapshotted into memory.
func (s *SQLiteVectorStore) Load(path string) error { return nil }

// Close closes the underlying database connection.
func (s *SQLiteVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// metricShortName maps the VectorStoreConfig.Metric spelling ("cosine"/"l2")
// to the short form distanceToScore (shared with the accelerator) expects.
func metricShortName(metric string) string {
	if metric == "l2" {
		return "l2"
	}
	return "cos"
}

var _ VectorStore = (*SQLiteVectorStore)(nil)
