package chunker

import (
	"strings"
	"testing"
)

func TestSplitterEmptyContent(t *testing.T) {
	s := NewRecursiveSplitter(1200, 150)
	chunks, err := s.Chunk("fp1", "doc.txt", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty content, got %d", len(chunks))
	}
}

func TestSplitterShortContentSingleChunk(t *testing.T) {
	s := NewRecursiveSplitter(1200, 150)
	text := "This is a short passage that fits in one chunk."
	chunks, err := s.Chunk("fp1", "doc.txt", text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk text to match input verbatim")
	}
	if chunks[0].Fingerprint != "fp1" || chunks[0].Source != "doc.txt" {
		t.Error("expected chunk to carry fingerprint and source filename")
	}
}

func TestSplitterLongContentMultipleChunks(t *testing.T) {
	s := NewRecursiveSplitter(200, 40)

	var paras []string
	for i := 0; i < 20; i++ {
		paras = append(paras, strings.Repeat("word ", 10))
	}
	text := strings.Join(paras, "\n\n")

	chunks, err := s.Chunk("fp1", "doc.txt", text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long content, got %d", len(chunks))
	}

	for i, c := range chunks {
		if len(c.Text) == 0 {
			t.Errorf("chunk %d has empty text", i)
		}
		if c.Ordinal != i {
			t.Errorf("expected ordinal %d, got %d", i, c.Ordinal)
		}
	}
}

func TestSplitterOverlapBetweenNeighbors(t *testing.T) {
	s := NewRecursiveSplitter(100, 30)
	text := strings.Repeat("alpha beta gamma delta epsilon ", 30)

	chunks, err := s.Chunk("fp1", "doc.txt", text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatal("need at least 2 chunks to test overlap")
	}

	// Neighboring chunks should share some trailing/leading text.
	shared := false
	for i := 0; i < len(chunks)-1; i++ {
		a := chunks[i].Text
		b := chunks[i+1].Text
		tail := lastNChars(a, 10)
		if tail != "" && strings.Contains(b, tail) {
			shared = true
			break
		}
	}
	if !shared {
		t.Error("expected at least one pair of neighboring chunks to overlap")
	}
}

func TestSplitterChunkIDsUnique(t *testing.T) {
	s := NewRecursiveSplitter(50, 10)
	text := strings.Repeat("one two three four five six seven\n\n", 20)

	chunks, err := s.Chunk("fp1", "doc.txt", text)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, c := range chunks {
		if seen[c.ID] {
			t.Errorf("duplicate chunk ID: %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestSplitterNoSeparatorsFallsBackToHardSplit(t *testing.T) {
	s := NewRecursiveSplitter(20, 5)
	text := strings.Repeat("x", 500) // no separators at all

	chunks, err := s.Chunk("fp1", "doc.txt", text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected hard-split fallback to produce chunks")
	}
}

func TestSplitterDefaultsApplied(t *testing.T) {
	s := NewRecursiveSplitter(0, -1)
	if s.size != 1200 {
		t.Errorf("expected default size 1200, got %d", s.size)
	}
	if s.overlap != 150 {
		t.Errorf("expected default overlap 150, got %d", s.overlap)
	}
}
