// Package httpapi exposes the documentation index over plain HTTP, as a
// thin chi-routed alternative to the MCP stdio surface for clients that
// can't speak the MCP protocol. Grounded on spec.md §6's HTTP surface
// table; router usage grounded on the pack's hector repo (go-chi/chi).
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Aman-CERP/cjdocs-bridge/internal/docsource"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
	"github.com/Aman-CERP/cjdocs-bridge/internal/searchpost"
	"github.com/Aman-CERP/cjdocs-bridge/pkg/version"
)

// SearchIndex is the subset of internal/index.LocalIndex the HTTP surface
// depends on, mirroring internal/mcp.SearchIndex.
type SearchIndex interface {
	Query(ctx context.Context, query string, topK int, category string, doRerank bool) ([]model.SearchResult, error)
}

// Server serves the HTTP surface of spec.md §6 over the same index and
// docs source the MCP server uses.
type Server struct {
	index  SearchIndex
	docs   docsource.Source
	logger *slog.Logger
	router chi.Router
}

// NewServer builds the HTTP surface. index/docs may be nil, matching
// internal/mcp.NewServer's nil-tolerant construction.
func NewServer(index SearchIndex, docs docsource.Source) *Server {
	s := &Server{
		index:  index,
		docs:   docs,
		logger: slog.Default(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the server's http.Handler, for use with http.Server or
// httptest.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", s.handleHealth)
	r.Get("/info", s.handleInfo)
	r.Get("/search", s.handleSearch)
	r.Get("/topics", s.handleListTopics)
	r.Get("/topics/{category}/{topic}", s.handleGetTopic)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "cjdocs-bridge",
		"version": version.Version,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusServiceUnavailable, "documentation index is not available")
		return
	}

	query := r.URL.Query()
	text := query.Get("q")
	if text == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	topK := searchpost.ClampTopK(intParam(query, "top_k", searchpost.DefaultTopK))
	offset := intParam(query, "offset", 0)

	q := searchpost.Query{
		Text:        text,
		Category:    query.Get("category"),
		Package:     query.Get("package"),
		TopK:        topK,
		Offset:      offset,
		ExtractCode: query.Get("extract_code") == "true",
	}

	raw, err := s.index.Query(r.Context(), q.Text, searchpost.FetchCount(q), q.Category, true)
	if err != nil {
		s.logger.Error("http_search_failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, searchpost.Assemble(raw, q))
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		writeError(w, http.StatusServiceUnavailable, "documentation source is not available")
		return
	}

	category := r.URL.Query().Get("category")

	categories, err := s.docs.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	targets := categories
	if category != "" {
		targets = []string{category}
	}

	out := make(map[string]map[string]string, len(targets))
	for _, cat := range targets {
		titles, err := s.docs.TopicTitles(r.Context(), cat)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out[cat] = titles
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"topics":     out,
	})
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		writeError(w, http.StatusServiceUnavailable, "documentation source is not available")
		return
	}

	category := chi.URLParam(r, "category")
	topic := chi.URLParam(r, "topic")

	doc, found, err := s.docs.Document(r.Context(), topic, category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "topic not found")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func intParam(q map[string][]string, name string, def int) int {
	vs, ok := q[name]
	if !ok || len(vs) == 0 {
		return def
	}
	n, err := strconv.Atoi(vs[0])
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
