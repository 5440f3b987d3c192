package port

import "ragindex/internal/domain"

// IndexHandle is the capability set a loaded index exposes to the cache
// and query layers. A single-file index and a merged-collection index
// both satisfy it and are interchangeable at the cache layer (§9).
type IndexHandle interface {
	Search(vector []float32, k int) ([]domain.ScoredPassage, error)
	DocCount() int
	Dimension() int
	Fingerprints() []string
	Close() error
}
