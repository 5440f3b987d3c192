package port

import "ragindex/internal/domain"

// Chunker splits a source file's plain text into overlapping chunks.
type Chunker interface {
	Chunk(fingerprint, filename string, text string) ([]domain.Chunk, error)
}
