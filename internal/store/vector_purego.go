//go:build purego

package store

import (
	"database/sql"
	"encoding/binary"
	"math"
	"sort"

	_ "modernc.org/sqlite"
)

// sqlDriverName is the database/sql driver used for the vector store. The
// purego build uses modernc.org/sqlite (pure Go, no CGo) since sqlite-vec's
// vec0 virtual table is a native extension unavailable without CGo.
const sqlDriverName = "sqlite"

func dsnWithPragmas(dsn string) string {
	if dsn == ":memory:" {
		return dsn
	}
	return dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// puregoVecBackend stores each embedding as a BLOB of little-endian
// float32s and does an in-process brute-force distance scan. This is the
// same schema-less tradeoff sqlite_bm25.go makes for FTS5 vs. bleve: a
// CGo-free, slower-at-scale alternative that needs no native extension.
type puregoVecBackend struct{}

func newVecBackend() vecBackend { return puregoVecBackend{} }

func (puregoVecBackend) init(db *sql.DB, dim int, metric string) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS vectors_blob (
		rowid     INTEGER PRIMARY KEY,
		embedding BLOB NOT NULL
	)`)
	return err
}

func (puregoVecBackend) upsert(db *sql.DB, rowIDs []int64, vectors [][]float32) error {
	for i, rowID := range rowIDs {
		blob := encodeFloat32s(vectors[i])
		if _, err := db.Exec(
			`INSERT INTO vectors_blob (rowid, embedding) VALUES (?, ?)
			 ON CONFLICT(rowid) DO UPDATE SET embedding = excluded.embedding`,
			rowID, blob); err != nil {
			return err
		}
	}
	return nil
}

func (puregoVecBackend) search(db *sql.DB, query []float32, k int, metric string) ([]vecHit, error) {
	rows, err := db.Query(`SELECT rowid, embedding FROM vectors_blob`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vecHit
	for rows.Next() {
		var rowID int64
		var blob []byte
		if err := rows.Scan(&rowID, &blob); err != nil {
			return nil, err
		}
		vec := decodeFloat32s(blob)
		hits = append(hits, vecHit{RowID: rowID, Distance: bruteForceDistance(query, vec, metric)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (puregoVecBackend) delete(db *sql.DB, rowIDs []int64) error {
	for _, rowID := range rowIDs {
		if _, err := db.Exec(`DELETE FROM vectors_blob WHERE rowid = ?`, rowID); err != nil {
			return err
		}
	}
	return nil
}

func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeFloat32s(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// bruteForceDistance computes L2 or (1 - cosine similarity) distance,
// matching the scale sqlite-vec's vec0 MATCH operator returns so
// distanceToScore behaves identically across both backends.
func bruteForceDistance(a, b []float32, metric string) float32 {
	if metric == "l2" {
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return float32(math.Sqrt(sum))
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2.0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return float32(1 - cos)
}
