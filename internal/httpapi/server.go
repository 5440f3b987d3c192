// Package httpapi is the query service's HTTP binding (§6), grounded on
// rdwj-advanced-rag's chunker-server main.go: a plain net/http.ServeMux,
// one handler function per route, JSON in and out, no framework. Wire
// request/response shapes are kept as small local structs distinct from
// the internal domain/usecase types, the way chunker-server's own
// chunkRequest/chunkResponse sit apart from the chunking package's
// types, so the §6 contract stays stable even if the internal
// representations change.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"ragindex/internal/domain"
	"ragindex/internal/usecase"
)

// Server exposes a QueryService and MultiShardEngine over HTTP.
type Server struct {
	queries      *usecase.QueryService
	shards       *usecase.MultiShardEngine
	queryTimeout time.Duration
	mux          *http.ServeMux
}

// New builds the HTTP handler tree. shards may be nil if the caller
// never wires multi-shard support.
func New(queries *usecase.QueryService, shards *usecase.MultiShardEngine, queryTimeout time.Duration) *Server {
	s := &Server{queries: queries, shards: shards, queryTimeout: queryTimeout, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleHealth)
	s.mux.HandleFunc("GET /cache/stats", s.handleStats)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("POST /multi-query", s.handleMultiQuery)
	s.mux.HandleFunc("DELETE /cache/{path...}", s.handleEvict)
	s.mux.HandleFunc("DELETE /cache", s.handleEvictAll)
	s.mux.HandleFunc("POST /cache/reload", s.handleReload)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is GET / (§6): {service, status, cached_count, paths}.
type healthResponse struct {
	Service     string   `json:"service"`
	Status      string   `json:"status"`
	CachedCount int      `json:"cached_count"`
	Paths       []string `json:"paths"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.queries.Health()
	writeJSON(w, http.StatusOK, healthResponse{
		Service:     "ragindex",
		Status:      h.Status,
		CachedCount: h.CachedCount,
		Paths:       h.Paths,
	})
}

// statsResponse is GET /cache/stats (§6): {total_cached, indices:[...]}.
type statsResponse struct {
	TotalCached int                `json:"total_cached"`
	Indices     []domain.CacheStat `json:"indices"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.queries.Stats()
	writeJSON(w, http.StatusOK, statsResponse{TotalCached: len(stats), Indices: stats})
}

// queryRequest is POST /query's body (§6): {pdf_directory, question, top_k}.
type queryRequest struct {
	PDFDirectory string `json:"pdf_directory"`
	Question     string `json:"question"`
	TopK         int    `json:"top_k"`
}

type sourceMetadata struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

type sourceEntry struct {
	Content  string         `json:"content"`
	Metadata sourceMetadata `json:"metadata"`
}

// queryResponse is POST /query's body (§6):
// {answer, sources:[{content, metadata:{source,page}}], load_time_seconds, retrieval_time_seconds, from_cache}.
type queryResponse struct {
	Answer               string        `json:"answer"`
	Sources              []sourceEntry `json:"sources"`
	LoadTimeSeconds      float64       `json:"load_time_seconds"`
	RetrievalTimeSeconds float64       `json:"retrieval_time_seconds"`
	FromCache            bool          `json:"from_cache"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.PDFDirectory == "" || req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pdf_directory and question are required"})
		return
	}

	resp, err := s.queries.Query(req.PDFDirectory, req.Question, req.TopK)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}

	sources := make([]sourceEntry, 0, len(resp.Passages))
	for _, p := range resp.Passages {
		sources = append(sources, sourceEntry{
			Content:  p.Chunk.Text,
			Metadata: sourceMetadata{Source: p.Chunk.Source, Page: p.Chunk.Page},
		})
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:               resp.Answer,
		Sources:              sources,
		LoadTimeSeconds:      resp.LoadTimeSeconds,
		RetrievalTimeSeconds: resp.RetrievalTimeSeconds,
		FromCache:            resp.FromCache,
	})
}

// multiQueryRequest is POST /multi-query's body (in-process API in the
// CLI and here alike, §6): one question fanned out across named shards.
type multiQueryRequest struct {
	Root     string   `json:"root"`
	Question string   `json:"question"`
	Sources  []string `json:"sources"`
	TopK     int      `json:"top_k"`
	Markdown bool     `json:"markdown"`
}

func (s *Server) handleMultiQuery(w http.ResponseWriter, r *http.Request) {
	if s.shards == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "multi-shard engine not configured"})
		return
	}
	var req multiQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := usecase.ValidateMultiQueryRequest([]string{req.Question}, req.Sources, 0, 0); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	start := time.Now()
	results, err := s.shards.MultiQuery(ctx, req.Question, req.Sources, req.TopK, 0, s.queryTimeout)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	agg := usecase.AggregateShardResults(req.Question, results, time.Since(start))

	if req.Markdown {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(usecase.RenderMarkdown(agg)))
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// evictResponse is DELETE /cache/{path} (§6): {ok}.
type evictResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) handleEvict(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
		return
	}
	s.queries.Evict(path)
	writeJSON(w, http.StatusOK, evictResponse{OK: true})
}

// evictAllResponse is DELETE /cache (§6): {ok, evicted}.
type evictAllResponse struct {
	OK      bool `json:"ok"`
	Evicted int  `json:"evicted"`
}

func (s *Server) handleEvictAll(w http.ResponseWriter, r *http.Request) {
	n := s.queries.EvictAll()
	writeJSON(w, http.StatusOK, evictAllResponse{OK: true, Evicted: n})
}

// reloadRequest is POST /cache/reload's optional body (§6): {path?}. An
// absent or empty path reloads every resident entry, generalizing
// original_source/RagON/src/server_broken.py's POST /cache/reload
// (which reloads one hardcoded default path) to every path this
// process actually has cached, since ragindex has no single default
// collection.
type reloadRequest struct {
	Path string `json:"path"`
}

// reloadResponse is POST /cache/reload's body (§6): {load_time_seconds, docs_count}.
type reloadResponse struct {
	LoadTimeSeconds float64 `json:"load_time_seconds"`
	DocsCount       int     `json:"docs_count"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if req.Path == "" {
		loadTime, docs, errs := s.queries.ReloadAll()
		if len(errs) > 0 {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errs[0].Error()})
			return
		}
		writeJSON(w, http.StatusOK, reloadResponse{LoadTimeSeconds: loadTime, DocsCount: docs})
		return
	}

	loadTime, docs, err := s.queries.Reload(req.Path)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{LoadTimeSeconds: loadTime, DocsCount: docs})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrReadOnlyCollection):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAllShardsFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
