package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"ragindex/internal/domain"
)

// whitespaceRun collapses any run of whitespace to a single space
// before hashing, so two passages differing only in formatting still
// dedup to the same content key.
var whitespaceRun = regexp.MustCompile(`\s+`)

// ContentKey computes the canonical content key for a passage's text
// (§4.I): whitespace-normalized, then sha256-hex-truncated the same
// way the teacher's query_cache.go cacheKey truncates its digest.
// Grounded on original_source/multi-query/src/utils.py's
// compute_content_hash (MD5 of normalized text) translated to the
// teacher's sha256-truncate idiom.
func ContentKey(text string) string {
	normalized := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// AggregateShardResults is the Result Aggregator (§4.I): it
// canonicalizes passages across shards by content key, merges source
// attribution for duplicates, and returns a stable, descending-score
// ordering. Grounded on
// original_source/multi-query/src/result_aggregator.py's
// aggregate_results (dedup-by-hash-map, order-preserving) generalized
// from its post-hoc string-splitting (source_results[i].context split
// on "\n---\n") to operating directly on already-structured
// domain.ScoredPassage values.
func AggregateShardResults(query string, results []domain.ShardResult, elapsed time.Duration) domain.AggregatedResult {
	byKey := make(map[string]*domain.AggregatedPassage)
	var order []string

	successful := make([]string, 0, len(results))
	failed := make(map[string]string)

	for _, r := range results {
		switch r.Status {
		case domain.ShardOK:
			successful = append(successful, r.Fingerprint)
		case domain.ShardTimeout:
			failed[r.Fingerprint] = "timeout"
		default:
			if r.Err != nil {
				failed[r.Fingerprint] = r.Err.Error()
			} else {
				failed[r.Fingerprint] = "failed"
			}
		}

		if r.Status != domain.ShardOK {
			continue
		}
		for _, p := range r.Passages {
			key := ContentKey(p.Chunk.Text)
			existing, seen := byKey[key]
			if !seen {
				byKey[key] = &domain.AggregatedPassage{
					Passage:          p,
					ContentKey:       key,
					ContributingOnes: []string{r.Fingerprint},
				}
				order = append(order, key)
				continue
			}

			if !containsString(existing.ContributingOnes, r.Fingerprint) {
				existing.ContributingOnes = append(existing.ContributingOnes, r.Fingerprint)
			}
			if p.Score > existing.Passage.Score {
				existing.Passage = p
			}
		}
	}

	passages := make([]domain.AggregatedPassage, 0, len(order))
	for _, key := range order {
		passages = append(passages, *byKey[key])
	}

	sort.SliceStable(passages, func(i, j int) bool {
		a, b := passages[i], passages[j]
		if a.Passage.Score != b.Passage.Score {
			return a.Passage.Score > b.Passage.Score
		}
		if a.Passage.Chunk.Fingerprint != b.Passage.Chunk.Fingerprint {
			return a.Passage.Chunk.Fingerprint < b.Passage.Chunk.Fingerprint
		}
		return a.Passage.Chunk.Ordinal < b.Passage.Chunk.Ordinal
	})

	sort.Strings(successful)

	return domain.AggregatedResult{
		Query:      query,
		Passages:   passages,
		Successful: successful,
		Failed:     failed,
		Elapsed:    elapsed,
	}
}

// RenderMarkdown renders an aggregated multi-shard result as a
// human-readable Markdown report (§12.4), grounded on
// original_source/multi-query/src/result_aggregator.py's
// format_markdown_output. Like RenderAnswer, this is a deterministic
// rendering rule, not generated text.
func RenderMarkdown(agg domain.AggregatedResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Query: %s\n\n", agg.Query)
	fmt.Fprintf(&b, "Shards: %d succeeded, %d failed (%.2fs)\n\n", len(agg.Successful), len(agg.Failed), agg.Elapsed.Seconds())

	for i, p := range agg.Passages {
		header := fmt.Sprintf("[%s]", p.Passage.Chunk.Source)
		if p.Passage.Chunk.Page > 0 {
			header = fmt.Sprintf("[%s] Page %d", p.Passage.Chunk.Source, p.Passage.Chunk.Page)
		}
		fmt.Fprintf(&b, "## %d. %s (score %.4f)\n\n", i+1, header, p.Passage.Score)
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(p.Passage.Chunk.Text))
		if len(p.ContributingOnes) > 1 {
			fmt.Fprintf(&b, "_found in %d shards: %s_\n\n", len(p.ContributingOnes), strings.Join(p.ContributingOnes, ", "))
		}
	}

	if len(agg.Failed) > 0 {
		b.WriteString("## Failed shards\n\n")
		for fp, reason := range agg.Failed {
			fmt.Fprintf(&b, "- %s: %s\n", fp, reason)
		}
	}

	return strings.TrimSpace(b.String())
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
