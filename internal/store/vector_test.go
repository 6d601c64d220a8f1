package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectorStore(t *testing.T, dim int) *SQLiteVectorStore {
	t.Helper()
	vs, err := NewSQLiteVectorStore("", DefaultVectorStoreConfig(dim))
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })
	return vs
}

func TestSQLiteVectorStore_AddAndSearch(t *testing.T) {
	vs := newTestVectorStore(t, 4)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.9, 0.1, 0, 0},
	}
	require.NoError(t, vs.Add(ctx, ids, vectors))

	results, err := vs.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
}

func TestSQLiteVectorStore_UpdateReplacesEmbedding(t *testing.T) {
	vs := newTestVectorStore(t, 2)
	ctx := context.Background()

	require.NoError(t, vs.Add(ctx, []string{"a"}, [][]float32{{1, 0}}))
	require.NoError(t, vs.Add(ctx, []string{"a"}, [][]float32{{0, 1}}))

	assert.Equal(t, 1, vs.Count())

	results, err := vs.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestSQLiteVectorStore_Delete(t *testing.T) {
	vs := newTestVectorStore(t, 2)
	ctx := context.Background()

	require.NoError(t, vs.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, vs.Delete(ctx, []string{"a"}))

	assert.False(t, vs.Contains("a"))
	assert.True(t, vs.Contains("b"))
	assert.Equal(t, 1, vs.Count())
}

func TestSQLiteVectorStore_AllIDs(t *testing.T) {
	vs := newTestVectorStore(t, 2)
	ctx := context.Background()

	require.NoError(t, vs.Add(ctx, []string{"a", "b", "c"}, [][]float32{{1, 0}, {0, 1}, {1, 1}}))

	ids := vs.AllIDs()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestSQLiteVectorStore_DimensionMismatchOnAdd(t *testing.T) {
	vs := newTestVectorStore(t, 3)
	err := vs.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)
}

func TestSQLiteVectorStore_DimensionMismatchOnSearch(t *testing.T) {
	vs := newTestVectorStore(t, 3)
	_, err := vs.Search(context.Background(), []float32{1, 0}, 1)
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
}

func TestSQLiteVectorStore_MismatchedIDsAndVectors(t *testing.T) {
	vs := newTestVectorStore(t, 2)
	err := vs.Add(context.Background(), []string{"a", "b"}, [][]float32{{1, 0}})
	require.Error(t, err)
}

func TestSQLiteVectorStore_SearchEmptyStoreReturnsEmpty(t *testing.T) {
	vs := newTestVectorStore(t, 2)
	results, err := vs.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteVectorStore_RejectsNonPositiveDimensions(t *testing.T) {
	_, err := NewSQLiteVectorStore("", DefaultVectorStoreConfig(0))
	assert.Error(t, err)
}

func TestSQLiteVectorStore_CloseIdempotent(t *testing.T) {
	vs, err := NewSQLiteVectorStore("", DefaultVectorStoreConfig(2))
	require.NoError(t, err)
	require.NoError(t, vs.Close())
	require.NoError(t, vs.Close())
}

func TestSQLiteVectorStore_OperationsAfterCloseFail(t *testing.T) {
	vs, err := NewSQLiteVectorStore("", DefaultVectorStoreConfig(2))
	require.NoError(t, err)
	require.NoError(t, vs.Close())

	assert.Error(t, vs.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}}))
	_, err = vs.Search(context.Background(), []float32{1, 0}, 1)
	assert.Error(t, err)
	assert.False(t, vs.Contains("a"))
	assert.Equal(t, 0, vs.Count())
}

func TestSQLiteVectorStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.db")

	vs, err := NewSQLiteVectorStore(path, DefaultVectorStoreConfig(2))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, vs.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, vs.Close())

	reopened, err := NewSQLiteVectorStore(path, DefaultVectorStoreConfig(2))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 2, reopened.Count())
	assert.True(t, reopened.Contains("a"))
}

func TestMetricShortName(t *testing.T) {
	assert.Equal(t, "l2", metricShortName("l2"))
	assert.Equal(t, "cos", metricShortName("cosine"))
	assert.Equal(t, "cos", metricShortName(""))
}
