package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

func mk(text string, score float64, file string) model.SearchResult {
	return model.SearchResult{
		Text:  text,
		Score: score,
		Metadata: model.SearchResultMetadata{
			FilePath: file,
			Category: "test",
			Topic:    "test",
			Title:    "Test",
		},
	}
}

func TestReciprocalRankFusion_EmptyInput(t *testing.T) {
	assert.Empty(t, ReciprocalRankFusion(nil, 60, 5))
}

func TestReciprocalRankFusion_SingleListOrdering(t *testing.T) {
	list := []model.SearchResult{mk("doc1", 0.9, "a.md"), mk("doc2", 0.8, "b.md")}
	out := ReciprocalRankFusion([][]model.SearchResult{list}, 60, 5)
	require.Len(t, out, 2)
	assert.Greater(t, out[0].Score, out[1].Score)
}

func TestReciprocalRankFusion_OverlapBoostsScore(t *testing.T) {
	list1 := []model.SearchResult{mk("shared doc", 0.9, "a.md"), mk("only in list1", 0.8, "b.md")}
	list2 := []model.SearchResult{mk("shared doc", 0.7, "a.md"), mk("only in list2", 0.6, "c.md")}
	out := ReciprocalRankFusion([][]model.SearchResult{list1, list2}, 60, 5)
	require.NotEmpty(t, out)
	assert.Equal(t, "shared doc", out[0].Text)
}

func TestReciprocalRankFusion_RespectsTopK(t *testing.T) {
	list := []model.SearchResult{mk("doc1", 0.9, "a.md"), mk("doc2", 0.8, "b.md"), mk("doc3", 0.7, "c.md")}
	out := ReciprocalRankFusion([][]model.SearchResult{list}, 60, 2)
	assert.Len(t, out, 2)
}

func TestReciprocalRankFusion_Deduplicates(t *testing.T) {
	list1 := []model.SearchResult{mk("same text", 0.9, "a.md")}
	list2 := []model.SearchResult{mk("same text", 0.8, "a.md")}
	out := ReciprocalRankFusion([][]model.SearchResult{list1, list2}, 60, 5)
	assert.Len(t, out, 1)
}

func TestReciprocalRankFusion_LiteralE2EScenario(t *testing.T) {
	// spec.md §8 E2E scenario 4.
	list1 := []model.SearchResult{mk("A", 1.0, "a.md"), mk("B", 0.8, "b.md")}
	list2 := []model.SearchResult{mk("B", 0.9, "b.md"), mk("C", 0.7, "c.md")}
	out := ReciprocalRankFusion([][]model.SearchResult{list1, list2}, 60, 10)
	require.Len(t, out, 3)
	assert.Equal(t, "b.md", out[0].Metadata.FilePath)
	assert.InDelta(t, 1.0/61.0+1.0/62.0, out[0].Score, 1e-9)
	assert.InDelta(t, 1.0/61.0, out[1].Score, 1e-9)
	assert.Greater(t, out[0].Score, out[1].Score)
	assert.Greater(t, out[1].Score, out[2].Score)
}

func TestReciprocalRankFusion_MonotonicNonIncreasing(t *testing.T) {
	list := []model.SearchResult{mk("a", 0.9, "a.md"), mk("b", 0.8, "b.md"), mk("c", 0.7, "c.md")}
	out := ReciprocalRankFusion([][]model.SearchResult{list}, 60, 10)
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i].Score, out[i-1].Score)
	}
}
