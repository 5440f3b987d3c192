// Package diskstore implements the content-addressed on-disk index
// layout: one directory per source-file fingerprint holding an ANN
// index, chunk metadata, and a build manifest, plus optional support for
// a merged collection rooted at a directory of source files with its own
// .mini_rag_index/ subdirectory. Both layouts are supported side by side
// per the resolved open question recorded in DESIGN.md.
package diskstore

import "path/filepath"

const (
	IndexFilename    = "index.bolt"
	ChunksFilename   = "chunks.json"
	ManifestFilename = "manifest.json"

	// CollectionDir is the subdirectory holding a merged-collection
	// index at a collection root (§4.D).
	CollectionDir = ".mini_rag_index"
)

// FingerprintDir returns the per-file index directory for fingerprint,
// a sibling of the source file it was built from.
func FingerprintDir(root, fingerprint string) string {
	return filepath.Join(root, fingerprint)
}

// CollectionIndexDir returns the merged index directory at a collection
// root.
func CollectionIndexDir(collectionRoot string) string {
	return filepath.Join(collectionRoot, CollectionDir)
}

// CollectionManifestPath returns the collection-level manifest, a
// sibling of the source files rather than inside the index directory.
func CollectionManifestPath(collectionRoot string) string {
	return filepath.Join(collectionRoot, ManifestFilename)
}

func IndexPath(dir string) string    { return filepath.Join(dir, IndexFilename) }
func ChunksPath(dir string) string   { return filepath.Join(dir, ChunksFilename) }
func ManifestPath(dir string) string { return filepath.Join(dir, ManifestFilename) }
