package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	cjerrors "github.com/Aman-CERP/cjdocs-bridge/internal/errors"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// HTTPReranker calls an OpenAI-rerank-API-compatible HTTP endpoint
// (POST {baseURL}/rerank).
type HTTPReranker struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ Reranker = (*HTTPReranker)(nil)

// NewHTTPReranker creates an HTTPReranker against baseURL using model (may
// be empty, in which case the remote service's default model is used).
func NewHTTPReranker(baseURL, model string) *HTTPReranker {
	return &HTTPReranker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPReranker) Enabled() bool { return true }

type rerankRequest struct {
	Model           string   `json:"model,omitempty"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []rerankItem `json:"results"`
}

type rerankItem struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Rerank posts results' text to the configured /rerank endpoint and
// reassembles the response's (index, relevance_score) pairs against the
// original result metadata.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, results []model.SearchResult, topK int) ([]model.SearchResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	documents := make([]string, len(results))
	for i, res := range results {
		documents[i] = res.Text
	}

	reqBody := rerankRequest{
		Model:           r.model,
		Query:           query,
		Documents:       documents,
		TopN:            topK,
		ReturnDocuments: false,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, cjerrors.Transport("rerank request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, cjerrors.Remote(fmt.Sprintf("rerank service returned status %d", resp.StatusCode), nil)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, cjerrors.Remote("decode rerank response", err)
	}

	reranked := make([]model.SearchResult, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		if item.Index < 0 || item.Index >= len(results) {
			continue
		}
		res := results[item.Index]
		res.Score = item.RelevanceScore
		reranked = append(reranked, res)
	}
	return reranked, nil
}
