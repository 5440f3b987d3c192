package annindex

import (
	"fmt"
	"sort"

	"ragindex/internal/domain"
	"ragindex/internal/port"
)

// Handle adapts a Store plus its chunk text into the port.IndexHandle
// capability the cache and query layers consume. It is the unit a single
// cache entry holds, whether that entry backs one fingerprint or an
// entire merged collection.
type Handle struct {
	store  *Store
	chunks map[string]domain.Chunk // vector ID -> chunk
	fps    []string
}

// NewHandle wraps store with the chunk records its vectors were built
// from. chunks must be keyed by the same IDs used in store.Upsert.
func NewHandle(store *Store, chunks map[string]domain.Chunk) *Handle {
	seen := make(map[string]struct{})
	for _, c := range chunks {
		seen[c.Fingerprint] = struct{}{}
	}
	fps := make([]string, 0, len(seen))
	for fp := range seen {
		fps = append(fps, fp)
	}
	sort.Strings(fps)

	return &Handle{store: store, chunks: chunks, fps: fps}
}

// Search embeds nothing itself: vector is the already-embedded query.
func (h *Handle) Search(vector []float32, k int) ([]domain.ScoredPassage, error) {
	results, err := h.store.Search(vector, k)
	if err != nil {
		return nil, fmt.Errorf("ann search: %w", err)
	}

	passages := make([]domain.ScoredPassage, 0, len(results))
	for _, r := range results {
		chunk, ok := h.chunks[r.ID]
		if !ok {
			continue
		}
		passages = append(passages, domain.ScoredPassage{Chunk: chunk, Score: r.Score})
	}
	return passages, nil
}

func (h *Handle) DocCount() int {
	return len(h.chunks)
}

func (h *Handle) Dimension() int {
	return h.store.Dimension()
}

func (h *Handle) Fingerprints() []string {
	return h.fps
}

func (h *Handle) Close() error {
	return h.store.Close()
}

var _ port.IndexHandle = (*Handle)(nil)
