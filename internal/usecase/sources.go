package usecase

import (
	"fmt"

	"ragindex/internal/adapter/fingerprint"
)

// SourceInfo describes one source file discovered under a collection
// root, independent of whether it has been indexed yet.
type SourceInfo struct {
	Fingerprint string
	Filename    string
	Size        int64
}

// ListFingerprints is the source-discovery-with-metadata operator
// utility supplemented from multi-query's source_manager.list_pdfs_metadata
// (§12.3): it reports every source file directly under root together with
// its content fingerprint, without touching any on-disk index.
func ListFingerprints(root string) ([]SourceInfo, error) {
	manifest, err := fingerprint.DirectoryManifest(root, nil)
	if err != nil {
		return nil, fmt.Errorf("list fingerprints: %w", err)
	}

	out := make([]SourceInfo, 0, len(manifest))
	for fp, entry := range manifest {
		out = append(out, SourceInfo{Fingerprint: fp, Filename: entry.Filename, Size: entry.Size})
	}
	return out, nil
}
