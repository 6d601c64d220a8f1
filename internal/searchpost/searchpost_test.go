package searchpost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

func TestClampTopK_ClampsToRange(t *testing.T) {
	assert.Equal(t, MinTopK, ClampTopK(0))
	assert.Equal(t, MinTopK, ClampTopK(-5))
	assert.Equal(t, MaxTopK, ClampTopK(1000))
	assert.Equal(t, 5, ClampTopK(5))
}

func TestFetchCount_WidensForPackageFilter(t *testing.T) {
	base := FetchCount(Query{TopK: 5, Offset: 0})
	withPkg := FetchCount(Query{TopK: 5, Offset: 0, Package: "std.core"})
	assert.Greater(t, withPkg, base)
}

func TestHasPackage_MatchesBareAndImportForm(t *testing.T) {
	r := model.SearchResult{Text: "import std.collection.ArrayList\nuse it here"}
	assert.True(t, HasPackage(r, "std.collection"))

	r2 := model.SearchResult{Text: "no package reference here"}
	assert.False(t, HasPackage(r2, "std.collection"))
}

func TestQueryTerms_SplitsCodeIdentifiers(t *testing.T) {
	terms := QueryTerms("ArrayList_init function")
	assert.Contains(t, terms, "arraylist_init")
	assert.Contains(t, terms, "function")
}

func TestRerankAndDedup_RemovesDuplicateText(t *testing.T) {
	results := []model.SearchResult{
		{Text: "same content here", Score: 1.0, Metadata: model.SearchResultMetadata{FilePath: "a.md"}},
		{Text: "same   content  here", Score: 0.5, Metadata: model.SearchResultMetadata{FilePath: "b.md"}},
	}
	out := RerankAndDedup(results, "content", 5, 0)
	assert.Len(t, out, 1)
}

func TestRerankAndDedup_BoostsLexicalMatches(t *testing.T) {
	results := []model.SearchResult{
		{Text: "unrelated filler text", Score: 1.0, Metadata: model.SearchResultMetadata{FilePath: "a.md", Topic: "other"}},
		{Text: "discusses ArrayList usage", Score: 0.9, Metadata: model.SearchResultMetadata{FilePath: "b.md", Topic: "ArrayList"}},
	}
	out := RerankAndDedup(results, "ArrayList", 5, 0)
	assert.Equal(t, "b.md", out[0].Metadata.FilePath)
}

func TestRerankAndDedup_PerDocumentCapLimitsDuplicateFiles(t *testing.T) {
	var results []model.SearchResult
	for i := 0; i < 5; i++ {
		results = append(results, model.SearchResult{
			Text:     "distinct content block number",
			Score:    float64(5 - i),
			Metadata: model.SearchResultMetadata{FilePath: "same.md"},
		})
		// vary text slightly to avoid text-dedup removing them
		results[i].Text = results[i].Text + string(rune('a'+i))
	}
	out := RerankAndDedup(results, "content", 10, 0)
	assert.LessOrEqual(t, len(out), 2, "per-document cap should limit repeats from the same file")
}

func TestAssemble_PaginatesAndReportsHasMore(t *testing.T) {
	var raw []model.SearchResult
	for i := 0; i < 10; i++ {
		raw = append(raw, model.SearchResult{
			Text:     "result content " + string(rune('a'+i)),
			Score:    float64(10 - i),
			Metadata: model.SearchResultMetadata{FilePath: "file" + string(rune('a'+i)) + ".md"},
		})
	}
	resp := Assemble(raw, Query{Text: "result", TopK: 3, Offset: 0})
	assert.Len(t, resp.Items, 3)
	assert.True(t, resp.HasMore)
	assert.NotNil(t, resp.NextOffset)
	assert.Equal(t, 3, *resp.NextOffset)
}

func TestAssemble_FiltersByPackage(t *testing.T) {
	raw := []model.SearchResult{
		{Text: "import std.collection.ArrayList", Score: 2.0, Metadata: model.SearchResultMetadata{FilePath: "a.md"}},
		{Text: "unrelated content entirely", Score: 1.0, Metadata: model.SearchResultMetadata{FilePath: "b.md"}},
	}
	resp := Assemble(raw, Query{Text: "content", TopK: 5, Offset: 0, Package: "std.collection"})
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "a.md", resp.Items[0].FilePath)
}

func TestAssemble_ExtractsCodeExamplesWhenRequested(t *testing.T) {
	text := "Example:\n```cangjie\nfunc main() {}\n```\n"
	raw := []model.SearchResult{
		{Text: text, Score: 1.0, Metadata: model.SearchResultMetadata{FilePath: "a.md", HasCode: true}},
	}
	resp := Assemble(raw, Query{Text: "example", TopK: 5, Offset: 0, ExtractCode: true})
	if assert.Len(t, resp.Items, 1) {
		assert.True(t, resp.Items[0].HasCodeExamples)
	}
}

func TestNewPageCache_GetPutRoundTrip(t *testing.T) {
	cache, err := NewPageCache(4)
	assert.NoError(t, err)

	q := Query{Text: "hello", TopK: 5}
	resp := SearchResponse{Total: 1}

	_, ok := cache.Get(q)
	assert.False(t, ok)

	cache.Put(q, resp)
	got, ok := cache.Get(q)
	assert.True(t, ok)
	assert.Equal(t, resp, got)
}

func TestKey_DiffersOnQueryShape(t *testing.T) {
	k1 := Key(Query{Text: "a", TopK: 5})
	k2 := Key(Query{Text: "a", TopK: 6})
	assert.NotEqual(t, k1, k2)
}
