package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ragindex/internal/adapter/annindex"
	"ragindex/internal/adapter/diskstore"
	"ragindex/internal/domain"
	"ragindex/internal/port"
)

const defaultBatchSize = 48

// Source is one input to Builder.Build: a fingerprinted file plus its
// already-extracted plain text. PDF extraction is an external
// collaborator (§1); this package only ever sees plain text.
type Source struct {
	Fingerprint string
	Filename    string
	Text        string
}

// Builder is the Index Builder (§4.C): chunk source text, embed the
// chunks through the process-wide embedder, build an ANN index, and
// persist it under a fingerprint-keyed output directory alongside a
// build manifest. Grounded on the teacher's internal/cli/index.go
// generateEmbeddings batch loop and internal/usecase/index.go's
// manifest bookkeeping shape.
type Builder struct {
	chunker      port.Chunker
	embedder     port.Embedder
	batchSize    int
	chunkSize    int
	chunkOverlap int
}

// NewBuilder creates a Builder. chunkSize/chunkOverlap are recorded
// into every build manifest verbatim; they are not derived from
// chunker because port.Chunker does not expose its own configuration.
func NewBuilder(chunker port.Chunker, embedder port.Embedder, batchSize, chunkSize, chunkOverlap int) *Builder {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Builder{
		chunker:      chunker,
		embedder:     embedder,
		batchSize:    batchSize,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Build chunks, embeds, and indexes every source, writing the result to
// outputDir only if every step succeeds. An unreadable/empty source is
// skipped and recorded as a warning rather than aborting the whole
// build; an embedding failure aborts the build and leaves outputDir
// untouched (§4.C failure modes).
func (b *Builder) Build(sources []Source, outputDir string) (domain.BuildReport, error) {
	chunks, fingerprints, singleFilename, warnings := b.chunkSources(sources)
	if len(chunks) == 0 {
		return domain.BuildReport{}, fmt.Errorf("%w: no chunks produced from %d source(s)", domain.ErrEmbeddingFailure, len(sources))
	}

	vectors, err := b.embedAll(chunks)
	if err != nil {
		return domain.BuildReport{}, err
	}

	if err := os.RemoveAll(outputDir); err != nil && !os.IsNotExist(err) {
		return domain.BuildReport{}, fmt.Errorf("clear stale build dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return domain.BuildReport{}, fmt.Errorf("create output dir: %w", err)
	}

	store, err := annindex.Open(diskstore.IndexPath(outputDir), b.embedder.Dimension())
	if err != nil {
		return domain.BuildReport{}, fmt.Errorf("open ann index: %w", err)
	}

	items := make([]port.VectorItem, len(chunks))
	for i, c := range chunks {
		items[i] = port.VectorItem{ID: c.ID, Vector: vectors[i]}
	}
	if err := store.Upsert(items); err != nil {
		store.Close()
		os.RemoveAll(outputDir)
		return domain.BuildReport{}, fmt.Errorf("upsert vectors: %w", err)
	}

	manifest := domain.BuildManifest{
		SchemaVersion:  domain.BuildManifestSchemaVersion,
		Fingerprints:   fingerprints,
		Chunks:         len(chunks),
		ChunkSize:      b.chunkSize,
		ChunkOverlap:   b.chunkOverlap,
		EmbeddingModel: b.embedder.ModelName(),
		BuiltAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if len(sources) == 1 {
		manifest.Filename = singleFilename
	}

	if err := diskstore.Save(outputDir, store, chunks, manifest); err != nil {
		os.RemoveAll(outputDir)
		return domain.BuildReport{}, fmt.Errorf("persist index: %w", err)
	}

	return domain.BuildReport{Manifest: manifest, Warnings: warnings}, nil
}

// BuildCollection builds a merged index over every source (§4.D): the
// ANN index and chunk metadata land under the collection root's
// .mini_rag_index/ subdirectory, and a collection manifest mapping
// fingerprint -> filename is written at the collection root itself,
// the source of truth for "which files were in this merged index".
//
// It additionally builds one per-fingerprint sibling directory per
// source, the same layout a non-collection build produces, so the
// Multi-Shard Engine's per-fingerprint resolvePath (§4.G) always finds
// a shard to query regardless of which build mode an operator used
// (§9 cache layout decision). Per-source warnings from that pass are
// merged into the collection's own report; a per-source build failure
// is recorded as a warning rather than failing the whole collection
// build, since the merged index it guards is already safely persisted.
func (b *Builder) BuildCollection(sources []Source, collectionRoot string) (domain.BuildReport, error) {
	report, err := b.Build(sources, diskstore.CollectionIndexDir(collectionRoot))
	if err != nil {
		return report, err
	}

	files := make(map[string]string, len(sources))
	for _, s := range sources {
		files[s.Fingerprint] = s.Filename
	}
	collManifest := domain.CollectionManifest{
		Files:       files,
		BuiltAt:     report.Manifest.BuiltAt,
		TotalChunks: report.Manifest.Chunks,
	}
	if err := diskstore.WriteCollectionManifest(collectionRoot, collManifest); err != nil {
		return report, fmt.Errorf("write collection manifest: %w", err)
	}

	for _, s := range sources {
		shardDir := filepath.Join(collectionRoot, s.Fingerprint)
		if _, shardErr := b.Build([]Source{s}, shardDir); shardErr != nil {
			report.Warnings = append(report.Warnings, domain.BuildWarning{
				Source: s.Filename,
				Reason: fmt.Sprintf("per-fingerprint shard build failed: %v", shardErr),
			})
		}
	}

	return report, nil
}

func (b *Builder) chunkSources(sources []Source) (chunks []domain.Chunk, fingerprints []string, singleFilename string, warnings []domain.BuildWarning) {
	for _, src := range sources {
		if src.Text == "" {
			warnings = append(warnings, domain.BuildWarning{Source: src.Filename, Reason: "empty or unreadable source"})
			continue
		}
		cs, err := b.chunker.Chunk(src.Fingerprint, src.Filename, src.Text)
		if err != nil {
			warnings = append(warnings, domain.BuildWarning{Source: src.Filename, Reason: err.Error()})
			continue
		}
		chunks = append(chunks, cs...)
		fingerprints = append(fingerprints, src.Fingerprint)
		singleFilename = src.Filename
	}
	return
}

func (b *Builder) embedAll(chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += b.batchSize {
		end := i + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-i)
		for j, c := range chunks[i:end] {
			texts[j] = c.Text
		}
		embedded, err := b.embedder.Embed(texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
		}
		if len(embedded) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d inputs", domain.ErrEmbeddingFailure, len(embedded), len(texts))
		}
		vectors = append(vectors, embedded...)
	}
	return vectors, nil
}
