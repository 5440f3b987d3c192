package diskstore

import (
	"encoding/json"
	"fmt"
	"os"

	"ragindex/internal/domain"
)

// WriteManifest writes a per-fingerprint build manifest into dir.
func WriteManifest(dir string, m domain.BuildManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(ManifestPath(dir), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the per-fingerprint build manifest from dir.
func ReadManifest(dir string) (domain.BuildManifest, error) {
	var m domain.BuildManifest
	data, err := os.ReadFile(ManifestPath(dir))
	if err != nil {
		return m, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	return m, nil
}

// WriteCollectionManifest writes the collection-level manifest at the
// root of a merged collection (a sibling of the source files, not
// inside the index directory).
func WriteCollectionManifest(collectionRoot string, m domain.CollectionManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection manifest: %w", err)
	}
	if err := os.WriteFile(CollectionManifestPath(collectionRoot), data, 0644); err != nil {
		return fmt.Errorf("write collection manifest: %w", err)
	}
	return nil
}

// ReadCollectionManifest reads the collection-level manifest, or
// returns os.ErrNotExist if the collection has never been built.
func ReadCollectionManifest(collectionRoot string) (domain.CollectionManifest, error) {
	var m domain.CollectionManifest
	data, err := os.ReadFile(CollectionManifestPath(collectionRoot))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	return m, nil
}
