package diskstore

import (
	"encoding/json"
	"fmt"
	"os"

	"ragindex/internal/domain"
)

// WriteChunks persists a source's chunk records as chunks.json inside
// dir, in stable ordinal order.
func WriteChunks(dir string, chunks []domain.Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	if err := os.WriteFile(ChunksPath(dir), data, 0644); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}
	return nil
}

// ReadChunks loads chunks.json from dir.
func ReadChunks(dir string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(ChunksPath(dir))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	return chunks, nil
}
