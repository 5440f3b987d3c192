package domain

import "time"

// SourceFile is a plain-text artifact produced from a PDF. Identified by
// its absolute path; its fingerprint is derived only from file contents.
type SourceFile struct {
	Path        string
	Fingerprint string
	Size        int64
}

// Chunk is a contiguous span of source text with attached provenance.
type Chunk struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"` // fingerprint of the source file this chunk came from
	Source      string `json:"source"`      // display filename, not used for addressing
	Page        int    `json:"page"`        // 0 if unknown
	Ordinal     int    `json:"ordinal"`     // position within the source
	Text        string `json:"text"`
}

// ScoredPassage is a chunk returned by a search, carrying its similarity
// score and the fingerprint of the shard that produced it.
type ScoredPassage struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// BuildManifest is persisted alongside every on-disk index.
type BuildManifest struct {
	SchemaVersion   int      `json:"schema_version"`
	Fingerprints    []string `json:"fingerprints"`
	Filename        string   `json:"filename,omitempty"`
	Chunks          int      `json:"chunks"`
	ChunkSize       int      `json:"chunk_size"`
	ChunkOverlap    int      `json:"chunk_overlap"`
	EmbeddingModel  string   `json:"embedding_model"`
	BuiltAt         string   `json:"built_at"`
}

// CollectionManifest is the source of truth at a merged-collection root:
// which files (by fingerprint) were included when the collection index
// was last built.
type CollectionManifest struct {
	Files       map[string]string `json:"files"` // fingerprint -> filename
	BuiltAt     string            `json:"built_at"`
	TotalChunks int               `json:"total_chunks"`
}

const BuildManifestSchemaVersion = 1

// BuildWarning records a non-fatal problem encountered while building an
// index (e.g. an unreadable source file that was skipped).
type BuildWarning struct {
	Source string
	Reason string
}

// BuildReport is returned by the Index Builder.
type BuildReport struct {
	Manifest BuildManifest
	Warnings []BuildWarning
}

// CacheStat describes one resident in-memory cache entry.
type CacheStat struct {
	Path      string    `json:"path"`
	LoadedAt  time.Time `json:"loaded_at"`
	DocsCount int       `json:"docs_count"`
}

// ShardStatus is the outcome of querying one shard in a multi-shard call.
type ShardStatus string

const (
	ShardOK      ShardStatus = "ok"
	ShardTimeout ShardStatus = "timeout"
	ShardFailed  ShardStatus = "failed"
)

// ShardResult is the outcome of querying a single per-fingerprint index
// within a multi-shard fan-out.
type ShardResult struct {
	Fingerprint string          `json:"fingerprint"`
	Status      ShardStatus     `json:"status"`
	Passages    []ScoredPassage `json:"passages"`
	Elapsed     time.Duration   `json:"elapsed"`
	Err         error           `json:"-"` // reported via Status/Failed, not serialized directly
}

// AggregatedPassage is a passage deduplicated across shards, tagged with
// every shard fingerprint that contributed it.
type AggregatedPassage struct {
	Passage          ScoredPassage `json:"passage"`
	ContentKey       string        `json:"content_key"`
	ContributingOnes []string      `json:"contributing_shards"` // fingerprints of shards that produced this content
}

// AggregatedResult is the final, deduplicated, ordered output of a
// multi-shard query.
type AggregatedResult struct {
	Query      string              `json:"query"`
	Passages   []AggregatedPassage `json:"passages"`
	Successful []string            `json:"successful_shards"` // shard fingerprints that returned successfully
	Failed     map[string]string   `json:"failed_shards"`     // shard fingerprint -> failure reason
	Elapsed    time.Duration       `json:"elapsed"`
}

// ReclaimReport summarizes one Cache Reclaimer pass.
type ReclaimReport struct {
	OrphansFound int      `json:"orphans_found"`
	Kept         int      `json:"kept"`
	BytesFreed   int64    `json:"bytes_freed"`
	Errors       []string `json:"errors"`
}
