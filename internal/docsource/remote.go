package docsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	cjerrors "github.com/Aman-CERP/cjdocs-bridge/internal/errors"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// topicsResponse mirrors the HTTP /topics shape of spec.md §6.
type topicsResponse struct {
	Categories map[string][]topicEntry `json:"categories"`
}

type topicEntry struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type documentResponse struct {
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
	Category string `json:"category"`
	Topic    string `json:"topic"`
	Title    string `json:"title"`
}

// RemoteSource is the HTTP-backed DocumentSource: it talks to a peer
// instance's /topics and /topics/{category}/{topic} endpoints. LoadAll is
// not supported remotely, matching the original's RemoteDocumentSource.
type RemoteSource struct {
	baseURL    string
	httpClient *http.Client

	once    sync.Once
	topics  *topicsResponse
	topicsErr error
}

var _ Source = (*RemoteSource)(nil)

// NewRemoteSource creates a RemoteSource against baseURL, trimming any
// trailing slashes.
func NewRemoteSource(baseURL string, httpClient *http.Client) *RemoteSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteSource{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (r *RemoteSource) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (r *RemoteSource) fetchTopics(ctx context.Context) (*topicsResponse, error) {
	r.once.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/topics", nil)
		if err != nil {
			r.topicsErr = err
			return
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			r.topicsErr = cjerrors.NetworkError("fetch /topics", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			r.topicsErr = cjerrors.Remote(fmt.Sprintf("unexpected status %d from /topics", resp.StatusCode), nil)
			return
		}
		var parsed topicsResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			r.topicsErr = cjerrors.Remote("decode /topics response", err)
			return
		}
		r.topics = &parsed
	})
	return r.topics, r.topicsErr
}

func (r *RemoteSource) Categories(ctx context.Context) ([]string, error) {
	topics, err := r.fetchTopics(ctx)
	if err != nil {
		return nil, err
	}
	cats := make([]string, 0, len(topics.Categories))
	for c := range topics.Categories {
		cats = append(cats, c)
	}
	return cats, nil
}

func (r *RemoteSource) TopicsIn(ctx context.Context, category string) ([]string, error) {
	topics, err := r.fetchTopics(ctx)
	if err != nil {
		return nil, err
	}
	entries, ok := topics.Categories[category]
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (r *RemoteSource) TopicTitles(ctx context.Context, category string) (map[string]string, error) {
	topics, err := r.fetchTopics(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, e := range topics.Categories[category] {
		out[e.Name] = e.Title
	}
	return out, nil
}

func (r *RemoteSource) Document(ctx context.Context, topic string, category string) (*model.DocData, bool, error) {
	url := fmt.Sprintf("%s/topics/%s/%s", r.baseURL, category, topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, false, cjerrors.NetworkError("fetch document", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, cjerrors.Remote(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	var parsed documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, cjerrors.Remote("decode document response", err)
	}
	doc := model.DocData{
		DocID: parsed.FilePath,
		Text:  parsed.Content,
		Metadata: model.DocMetadata{
			FilePath: parsed.FilePath,
			Category: parsed.Category,
			Topic:    parsed.Topic,
			Title:    parsed.Title,
		},
	}
	return &doc, true, nil
}

func (r *RemoteSource) LoadAll(ctx context.Context) ([]model.DocData, error) {
	return nil, cjerrors.New(cjerrors.ErrCodeInvalidInput, "LoadAll is not supported by a remote document source", nil)
}
