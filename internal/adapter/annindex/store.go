// Package annindex is the one on-disk ANN index implementation this
// repository ships: a bbolt-persisted, in-memory-mirrored brute-force
// cosine-similarity vector store, adapted from the teacher's
// internal/adapter/store.BoltVectorStore. Store satisfies
// port.VectorStore, but diskstore.Save and NewHandle take the concrete
// *Store type.
package annindex

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"ragindex/internal/port"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
)

// Store implements port.VectorStore on top of a single bbolt file
// (index.bolt in the on-disk layout). Every vector is also mirrored in
// memory so Search never touches disk.
type Store struct {
	db        *bbolt.DB
	dimension int
	mu        sync.RWMutex
	vectors   map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	metadata map[string]string
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

// Open opens (creating if absent) the bbolt file at path and loads every
// stored vector into memory. dimension is only enforced for freshly
// created files; an existing file's recorded dimension always wins.
func Open(path string, dimension int) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open ann index %s: %w", path, err)
	}

	s := &Store{db: db, dimension: dimension, vectors: make(map[string]vectorEntry)}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketVectors); err != nil {
			return err
		}
		metaBucket, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if existing := metaBucket.Get(keyDimension); existing != nil {
			var d int
			if err := json.Unmarshal(existing, &d); err == nil {
				s.dimension = d
			}
		} else if dimension > 0 {
			data, err := json.Marshal(dimension)
			if err != nil {
				return err
			}
			if err := metaBucket.Put(keyDimension, data); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.loadVectors(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load ann index %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil
			}
			s.vectors[string(k)] = vectorEntry{vector: stored.Vector, metadata: stored.Metadata}
			return nil
		})
	})
}

// Upsert adds or updates vectors in the store.
func (s *Store) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, item := range items {
			if s.dimension != 0 && len(item.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(item.Vector))
			}
			stored := storedVector{Vector: item.Vector, Metadata: item.Metadata}
			data, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}
			s.vectors[item.ID] = vectorEntry{vector: item.Vector, metadata: item.Metadata}
		}
		return nil
	})
}

// Search finds the k nearest vectors to query by cosine similarity.
func (s *Store) Search(query []float32, k int) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension != 0 && len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}

	type scored struct {
		id       string
		score    float64
		metadata map[string]string
	}

	scores := make([]scored, 0, len(s.vectors))
	for id, entry := range s.vectors {
		scores = append(scores, scored{id: id, score: cosineSimilarity(query, entry.vector), metadata: entry.metadata})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].id < scores[j].id
	})

	if k > len(scores) || k <= 0 {
		k = len(scores)
	}

	results := make([]port.VectorResult, k)
	for i := 0; i < k; i++ {
		results[i] = port.VectorResult{ID: scores[i].id, Score: scores[i].score, Metadata: scores[i].metadata}
	}
	return results, nil
}

// Delete removes vectors by their IDs.
func (s *Store) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
			delete(s.vectors, id)
		}
		return nil
	})
}

// Count returns the number of vectors in the store.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Dimension returns the embedding dimension this store was created with.
func (s *Store) Dimension() int {
	return s.dimension
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
