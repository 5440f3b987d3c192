// Package chunker splits source text into overlapping chunks using a
// recursive separator hierarchy, the same strategy as the original
// Python implementation's LangChain-backed splitter (original_source/src/minirag/splitter.py,
// RecursiveCharacterTextSplitter with ["\n\n", "\n", ". ", " "]).
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"ragindex/internal/domain"
)

// separators is the hierarchy tried, in order, to find a split point
// inside an oversized piece: paragraph, then line, then sentence, then
// word. A final character-level fallback guarantees termination.
var separators = []string{"\n\n", "\n", ". ", " "}

// RecursiveSplitter chunks text into spans of approximately size
// characters with overlap characters shared between neighbors.
type RecursiveSplitter struct {
	size    int
	overlap int
}

// NewRecursiveSplitter creates a splitter with the given target chunk
// size and overlap, both in characters (spec defaults: 1200 / 150).
func NewRecursiveSplitter(size, overlap int) *RecursiveSplitter {
	if size <= 0 {
		size = 1200
	}
	if overlap < 0 || overlap >= size {
		overlap = 150
	}
	return &RecursiveSplitter{size: size, overlap: overlap}
}

// Chunk splits text belonging to the source file identified by
// fingerprint (display name filename) into ordered, overlapping chunks.
func (s *RecursiveSplitter) Chunk(fingerprint, filename string, text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	pieces := s.split(text, separators)

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:          chunkID(fingerprint, i),
			Fingerprint: fingerprint,
			Source:      filename,
			Page:        0,
			Ordinal:     i,
			Text:        p,
		})
	}
	return chunks, nil
}

// split recursively breaks text into pieces of about s.size characters
// (the overlap carried between neighbors can push a piece past s.size),
// preferring to split on the earliest separator in seps that is
// actually present, and otherwise falling back to a hard character
// cut. Neighboring pieces share s.overlap characters.
func (s *RecursiveSplitter) split(text string, seps []string) []string {
	if len(text) <= s.size {
		return []string{text}
	}

	sep := s.bestSeparator(text, seps)

	var spans []string
	if sep != "" {
		spans = s.splitOnSeparator(text, sep)
	} else {
		spans = s.hardSplit(text)
	}

	return s.mergeWithOverlap(spans)
}

// bestSeparator returns the first separator (in priority order) that
// appears in text, or "" if none do (forcing a hard character split).
func (s *RecursiveSplitter) bestSeparator(text string, seps []string) string {
	for _, sep := range seps {
		if strings.Contains(text, sep) {
			return sep
		}
	}
	return ""
}

func (s *RecursiveSplitter) splitOnSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// hardSplit cuts text into fixed-size runs of runes when no separator
// hierarchy level is present (e.g. one giant unbroken token).
func (s *RecursiveSplitter) hardSplit(text string) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += s.size {
		end := i + s.size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// mergeWithOverlap greedily packs consecutive spans into chunks of about
// s.size characters, carrying s.overlap trailing characters from the
// previous chunk into the next one. The carried tail is not counted
// against s.size, so a chunk can be longer than s.size. Spans themselves larger than
// s.size are recursively split further down the separator hierarchy.
func (s *RecursiveSplitter) mergeWithOverlap(spans []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		tail := lastNChars(current.String(), s.overlap)
		current.Reset()
		current.WriteString(tail)
	}

	for _, span := range spans {
		if len(span) > s.size {
			// span itself is too big for one chunk: descend further.
			for _, sub := range s.split(span, nextLevel(span, separators)) {
				if current.Len()+len(sub) > s.size && current.Len() > 0 {
					flush()
				}
				current.WriteString(sub)
			}
			continue
		}
		if current.Len()+len(span) > s.size && current.Len() > 0 {
			flush()
		}
		current.WriteString(span)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// nextLevel drops separators already known not to be present in span,
// so recursive descent doesn't retry the same failed separator. A
// separator that only occurs as span's trailing suffix (as left there by
// splitOnSeparator) counts as not present.
func nextLevel(span string, seps []string) []string {
	for i, sep := range seps {
		if strings.Contains(strings.TrimSuffix(span, sep), sep) {
			return seps[i:]
		}
	}
	return nil
}

func lastNChars(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) == 0 {
		return ""
	}
	if n >= len(r) {
		return s
	}
	return string(r[len(r)-n:])
}

func chunkID(fingerprint string, ordinal int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", fingerprint, ordinal)))
	return hex.EncodeToString(h[:8])
}
