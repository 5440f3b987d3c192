package diskstore

import (
	"fmt"
	"os"

	"ragindex/internal/adapter/annindex"
	"ragindex/internal/domain"
	"ragindex/internal/port"
)

// ResolveIndexDir maps a path the caller asked to load into the actual
// on-disk directory holding index.bolt/chunks.json/manifest.json. path
// may itself be a per-fingerprint directory, or a collection root whose
// merged index lives under its .mini_rag_index/ subdirectory.
func ResolveIndexDir(path string) (string, error) {
	collectionDir := CollectionIndexDir(path)
	if _, err := os.Stat(ManifestPath(collectionDir)); err == nil {
		return collectionDir, nil
	}
	if _, err := os.Stat(ManifestPath(path)); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, path)
}

// Load opens the on-disk index directory (as returned by
// ResolveIndexDir) and returns a ready port.IndexHandle plus its build
// manifest.
func Load(dir string) (port.IndexHandle, domain.BuildManifest, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, domain.BuildManifest{}, err
	}

	chunks, err := ReadChunks(dir)
	if err != nil {
		return nil, domain.BuildManifest{}, err
	}

	store, err := annindex.Open(IndexPath(dir), 0)
	if err != nil {
		return nil, domain.BuildManifest{}, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}

	chunkMap := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		chunkMap[c.ID] = c
	}

	return annindex.NewHandle(store, chunkMap), manifest, nil
}

// Save persists a freshly built index into dir: the vectors (already
// upserted into store by the builder), the chunk records, and the build
// manifest. dir is created if it does not exist.
func Save(dir string, store *annindex.Store, chunks []domain.Chunk, manifest domain.BuildManifest) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := WriteChunks(dir, chunks); err != nil {
		return err
	}
	if err := WriteManifest(dir, manifest); err != nil {
		return err
	}
	return store.Close()
}
