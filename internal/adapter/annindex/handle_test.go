package annindex

import (
	"testing"

	"ragindex/internal/domain"
	"ragindex/internal/port"
)

func TestHandleSearchReturnsChunks(t *testing.T) {
	s := openTestStore(t, 2)
	if err := s.Upsert([]port.VectorItem{
		{ID: "c1", Vector: []float32{1, 0}},
		{ID: "c2", Vector: []float32{0, 1}},
	}); err != nil {
		t.Fatal(err)
	}

	chunks := map[string]domain.Chunk{
		"c1": {ID: "c1", Fingerprint: "fp1", Source: "a.pdf", Ordinal: 0, Text: "alpha"},
		"c2": {ID: "c2", Fingerprint: "fp2", Source: "b.pdf", Ordinal: 0, Text: "beta"},
	}
	h := NewHandle(s, chunks)

	passages, err := h.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(passages) != 1 || passages[0].Chunk.ID != "c1" {
		t.Fatalf("expected to retrieve chunk c1, got %+v", passages)
	}

	if h.DocCount() != 2 {
		t.Errorf("expected DocCount 2, got %d", h.DocCount())
	}
	if h.Dimension() != 2 {
		t.Errorf("expected Dimension 2, got %d", h.Dimension())
	}

	fps := h.Fingerprints()
	if len(fps) != 2 || fps[0] != "fp1" || fps[1] != "fp2" {
		t.Errorf("expected sorted fingerprints [fp1 fp2], got %v", fps)
	}
}
