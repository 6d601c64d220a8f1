//go:build !purego

package store

import (
	"database/sql"
	"fmt"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlitevec.Auto()
}

// sqlDriverName is the database/sql driver used for the vector store. The
// CGo build uses mattn/go-sqlite3 because sqlite-vec ships as a native
// loadable extension that only mattn's cgo driver can register.
const sqlDriverName = "sqlite3"

func dsnWithPragmas(dsn string) string {
	if dsn == ":memory:" {
		return dsn
	}
	return dsn + "?_journal_mode=WAL&_busy_timeout=5000"
}

// cgoVecBackend stores embeddings in a sqlite-vec vec0 virtual table and
// delegates KNN search to sqlite-vec's native MATCH operator.
type cgoVecBackend struct{}

func newVecBackend() vecBackend { return cgoVecBackend{} }

func (cgoVecBackend) init(db *sql.DB, dim int, metric string) error {
	distanceMetric := "L2"
	if metric == "cosine" || metric == "cos" {
		distanceMetric = "cosine"
	}
	_, err := db.Exec(fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vectors_vec USING vec0(embedding float[%d] distance_metric=%s)`,
		dim, distanceMetric))
	return err
}

func (cgoVecBackend) upsert(db *sql.DB, rowIDs []int64, vectors [][]float32) error {
	for i, rowID := range rowIDs {
		blob, err := sqlitevec.SerializeFloat32(vectors[i])
		if err != nil {
			return fmt.Errorf("serialize embedding: %w", err)
		}
		if _, err := db.Exec(`DELETE FROM vectors_vec WHERE rowid = ?`, rowID); err != nil {
			return fmt.Errorf("clear old embedding for rowid %d: %w", rowID, err)
		}
		if _, err := db.Exec(`INSERT INTO vectors_vec (rowid, embedding) VALUES (?, ?)`, rowID, blob); err != nil {
			return fmt.Errorf("insert embedding for rowid %d: %w", rowID, err)
		}
	}
	return nil
}

func (cgoVecBackend) search(db *sql.DB, query []float32, k int, metric string) ([]vecHit, error) {
	blob, err := sqlitevec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := db.Query(
		`SELECT rowid, distance FROM vectors_vec WHERE embedding MATCH ? AND k = ? ORDER BY distance`,
		blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vecHit
	for rows.Next() {
		var h vecHit
		if err := rows.Scan(&h.RowID, &h.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (cgoVecBackend) delete(db *sql.DB, rowIDs []int64) error {
	for _, rowID := range rowIDs {
		if _, err := db.Exec(`DELETE FROM vectors_vec WHERE rowid = ?`, rowID); err != nil {
			return err
		}
	}
	return nil
}
