package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

type stubIndex struct {
	results []model.SearchResult
	err     error
}

func (s *stubIndex) Query(_ context.Context, _ string, _ int, _ string, _ bool) ([]model.SearchResult, error) {
	return s.results, s.err
}

type stubDocs struct {
	docs []model.DocData
}

func (d *stubDocs) IsAvailable(context.Context) bool { return true }

func (d *stubDocs) Categories(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, doc := range d.docs {
		if !seen[doc.Metadata.Category] {
			seen[doc.Metadata.Category] = true
			out = append(out, doc.Metadata.Category)
		}
	}
	return out, nil
}

func (d *stubDocs) TopicsIn(_ context.Context, category string) ([]string, error) {
	var out []string
	for _, doc := range d.docs {
		if doc.Metadata.Category == category {
			out = append(out, doc.Metadata.Topic)
		}
	}
	return out, nil
}

func (d *stubDocs) Document(_ context.Context, topic, category string) (*model.DocData, bool, error) {
	for _, doc := range d.docs {
		if doc.Metadata.Topic == topic && (category == "" || doc.Metadata.Category == category) {
			docCopy := doc
			return &docCopy, true, nil
		}
	}
	return nil, false, nil
}

func (d *stubDocs) LoadAll(context.Context) ([]model.DocData, error) { return d.docs, nil }

func (d *stubDocs) TopicTitles(_ context.Context, category string) (map[string]string, error) {
	out := make(map[string]string)
	for _, doc := range d.docs {
		if doc.Metadata.Category == category {
			out[doc.Metadata.Topic] = doc.Metadata.Title
		}
	}
	return out, nil
}

func newTestDocs() *stubDocs {
	return &stubDocs{docs: []model.DocData{
		{DocID: "syntax/closures.md", Text: "closures are first-class", Metadata: model.DocMetadata{
			FilePath: "syntax/closures.md", Category: "syntax", Topic: "closures", Title: "Closures",
		}},
	}}
}

func TestHandleHealth_ReturnsOK(t *testing.T) {
	srv := NewServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleInfo_ReturnsNameAndVersion(t *testing.T) {
	srv := NewServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "cjdocs-bridge", out["name"])
}

func TestHandleSearch_MissingQuery_ReturnsBadRequest(t *testing.T) {
	srv := NewServer(&stubIndex{}, newTestDocs())

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSearch_NilIndex_ReturnsServiceUnavailable(t *testing.T) {
	srv := NewServer(nil, newTestDocs())

	req := httptest.NewRequest(http.MethodGet, "/search?q=closures", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleSearch_ReturnsResults(t *testing.T) {
	idx := &stubIndex{results: []model.SearchResult{
		{Text: "closures are first-class", Score: 1.0, Metadata: model.SearchResultMetadata{
			Category: "syntax", Topic: "closures", Title: "Closures",
		}},
	}}
	srv := NewServer(idx, newTestDocs())

	req := httptest.NewRequest(http.MethodGet, "/search?q=closures", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out["items"])
}

func TestHandleListTopics_NilDocs_ReturnsServiceUnavailable(t *testing.T) {
	srv := NewServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/topics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleListTopics_ReturnsCategories(t *testing.T) {
	srv := NewServer(nil, newTestDocs())

	req := httptest.NewRequest(http.MethodGet, "/topics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Contains(t, out["categories"], "syntax")
}

func TestHandleGetTopic_Found(t *testing.T) {
	srv := NewServer(nil, newTestDocs())

	req := httptest.NewRequest(http.MethodGet, "/topics/syntax/closures", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleGetTopic_NotFound(t *testing.T) {
	srv := NewServer(nil, newTestDocs())

	req := httptest.NewRequest(http.MethodGet, "/topics/syntax/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
