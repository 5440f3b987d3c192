// Package usecase holds the service's orchestration logic: the Index
// Builder (build.go), the Query Service (this file), the Multi-Shard
// Engine (multishard.go), the Cache Reclaimer (reclaim.go), and the
// Result Aggregator (aggregate.go) — the five hard parts of §4 wired
// together over the adapter packages.
package usecase

import (
	"fmt"
	"log"
	"strings"
	"time"

	"ragindex/internal/adapter/cache"
	"ragindex/internal/domain"
	"ragindex/internal/port"
)

// QueryService is the long-running process's request/response surface
// (§4.F): QUERY/STATS/EVICT/EVICT_ALL/RELOAD/HEALTH, all built on top
// of the in-memory index cache and the embeddings singleton. Grounded
// on the teacher's internal/cli/query.go retrieve-and-render flow,
// generalized from a one-shot CLI command into a resident service.
type QueryService struct {
	cache    *cache.IndexCache
	embedder port.Embedder
}

// NewQueryService wires a QueryService over an already-constructed
// index cache and the process-wide embedder.
func NewQueryService(c *cache.IndexCache, embedder port.Embedder) *QueryService {
	return &QueryService{cache: c, embedder: embedder}
}

// QueryResponse is the result of a QUERY operation.
type QueryResponse struct {
	Passages             []domain.ScoredPassage `json:"passages"`
	Answer               string                 `json:"answer"`
	FromCache            bool                   `json:"from_cache"`
	LoadTimeSeconds      float64                `json:"load_time_seconds"`
	RetrievalTimeSeconds float64                `json:"retrieval_time_seconds"`
}

// Query obtains (or loads) the index at path, embeds question, and
// searches for the k most similar passages (§4.F op 1). Query does not
// check path for staleness: it serves whatever entry is resident.
// WarnIfStale is the separate check that logs domain.ErrStaleCache.
func (s *QueryService) Query(path, question string, k int) (QueryResponse, error) {
	if k <= 0 {
		k = 4
	}

	lease, hit, loadTime, err := s.cache.GetOrLoad(path)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer lease.Release()

	vectors, err := s.embedder.Embed([]string{question})
	if err != nil {
		return QueryResponse{}, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}

	retrievalStart := time.Now()
	passages, err := lease.Handle().Search(vectors[0], k)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("search %s: %w", path, err)
	}
	retrievalTime := time.Since(retrievalStart)

	return QueryResponse{
		Passages:             passages,
		Answer:               RenderAnswer(passages),
		FromCache:            hit,
		LoadTimeSeconds:      loadTime.Seconds(),
		RetrievalTimeSeconds: retrievalTime.Seconds(),
	}, nil
}

// RenderAnswer deterministically renders passages in the
// "[source] Page N:\n<content>" form joined by "\n---\n" (§6): it is
// not generated text, it is the deterministic rendering rule from
// original_source/src/minirag/pipeline.py's _format_docs, with the
// spec's "Page N" label. The " Page N" part appears only when the
// chunk's Page is above 0, printed as stored; otherwise the header is
// just "[source]:".
func RenderAnswer(passages []domain.ScoredPassage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		header := fmt.Sprintf("[%s]", p.Chunk.Source)
		if p.Chunk.Page > 0 {
			header = fmt.Sprintf("[%s] Page %d", p.Chunk.Source, p.Chunk.Page)
		}
		parts = append(parts, fmt.Sprintf("%s:\n%s", header, strings.TrimSpace(p.Chunk.Text)))
	}
	return strings.Join(parts, "\n---\n")
}

// Stats lists every resident cache entry (§4.F op 2).
func (s *QueryService) Stats() []domain.CacheStat {
	return s.cache.Stats()
}

// Evict removes the cache entry for path (§4.F op 3).
func (s *QueryService) Evict(path string) bool {
	return s.cache.Evict(path)
}

// EvictAll removes every cache entry.
func (s *QueryService) EvictAll() int {
	return s.cache.EvictAll()
}

// Reload force-rebuilds path's cache entry: load the new index first,
// then swap (§4.F op 4, §4.E).
func (s *QueryService) Reload(path string) (loadTimeSeconds float64, docCount int, err error) {
	elapsed, docs, err := s.cache.Reload(path)
	if err != nil {
		return 0, 0, err
	}
	return elapsed.Seconds(), docs, nil
}

// ReloadAll force-rebuilds every resident cache entry, the reload-all
// counterpart of Reload used when a RELOAD request names no path
// (§4.F op 4, §6 POST /cache/reload with an empty body).
func (s *QueryService) ReloadAll() (loadTimeSeconds float64, docCount int, errs []error) {
	elapsed, docs, errs := s.cache.ReloadAll()
	return elapsed.Seconds(), docs, errs
}

// Health is the process health snapshot (§4.F op 5).
type Health struct {
	Status      string   `json:"status"`
	CachedCount int      `json:"cached_count"`
	Paths       []string `json:"paths"`
}

func (s *QueryService) Health() Health {
	return Health{
		Status:      "ok",
		CachedCount: s.cache.Len(),
		Paths:       s.cache.Paths(),
	}
}

// WarnIfStale logs (but does not refuse to serve) when the resident
// manifest for path no longer matches currentFingerprints, per the
// StaleCache taxonomy (§7, §9 open question: auto-rebuild is left to
// the operator's explicit Reload).
func (s *QueryService) WarnIfStale(path string, currentFingerprints []string) {
	manifest, ok := s.cache.Manifest(path)
	if !ok {
		return
	}
	if !sameSet(manifest.Fingerprints, currentFingerprints) {
		log.Printf("warning: %v for %s (resident index was built from %v, directory now has %v); reload to refresh",
			domain.ErrStaleCache, path, manifest.Fingerprints, currentFingerprints)
	}
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			return false
		}
	}
	return true
}

// Preload warms path into the cache at process start so the first
// external query is a hit (§4.E preload policy). Errors are logged,
// not fatal: preload failing should not prevent the service from
// starting.
func (s *QueryService) Preload(path string) {
	if path == "" {
		return
	}
	lease, _, loadTime, err := s.cache.GetOrLoad(path)
	if err != nil {
		log.Printf("preload %s failed: %v", path, err)
		return
	}
	lease.Release()
	log.Printf("preloaded %s in %s", path, loadTime)
}
