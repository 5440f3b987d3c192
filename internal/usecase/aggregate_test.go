package usecase

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ragindex/internal/domain"
)

func passage(fp string, ordinal int, text string, score float64) domain.ScoredPassage {
	return domain.ScoredPassage{
		Chunk: domain.Chunk{Fingerprint: fp, Source: fp + ".txt", Ordinal: ordinal, Text: text},
		Score: score,
	}
}

func TestAggregateShardResults_DedupsAcrossShards(t *testing.T) {
	results := []domain.ShardResult{
		{
			Fingerprint: "aaaa",
			Status:      domain.ShardOK,
			Passages: []domain.ScoredPassage{
				passage("aaaa", 0, "the quick brown fox", 0.8),
				passage("aaaa", 1, "unique to shard a", 0.4),
			},
		},
		{
			Fingerprint: "bbbb",
			Status:      domain.ShardOK,
			Passages: []domain.ScoredPassage{
				passage("bbbb", 0, "the   quick brown   fox", 0.95), // same content, higher score, extra whitespace
			},
		},
	}

	agg := AggregateShardResults("q", results, 10*time.Millisecond)

	if len(agg.Passages) != 2 {
		t.Fatalf("expected 2 deduplicated passages, got %d", len(agg.Passages))
	}

	top := agg.Passages[0]
	if top.Passage.Score != 0.95 {
		t.Errorf("expected deduped passage to keep the higher score, got %v", top.Passage.Score)
	}
	if len(top.ContributingOnes) != 2 {
		t.Errorf("expected 2 contributing shards, got %v", top.ContributingOnes)
	}

	if len(agg.Successful) != 2 {
		t.Errorf("expected 2 successful shards, got %v", agg.Successful)
	}
	if len(agg.Failed) != 0 {
		t.Errorf("expected no failures, got %v", agg.Failed)
	}
}

func TestAggregateShardResults_OrderingIsDeterministic(t *testing.T) {
	results := []domain.ShardResult{
		{
			Fingerprint: "bbbb",
			Status:      domain.ShardOK,
			Passages: []domain.ScoredPassage{
				passage("bbbb", 2, "tie score second ordinal", 0.5),
				passage("bbbb", 1, "tie score first ordinal", 0.5),
			},
		},
		{
			Fingerprint: "aaaa",
			Status:      domain.ShardOK,
			Passages: []domain.ScoredPassage{
				passage("aaaa", 0, "tie score earlier fingerprint", 0.5),
			},
		},
	}

	agg := AggregateShardResults("q", results, 0)
	if len(agg.Passages) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(agg.Passages))
	}
	if agg.Passages[0].Passage.Chunk.Fingerprint != "aaaa" {
		t.Errorf("expected ascending-fingerprint tiebreak first, got %+v", agg.Passages[0])
	}
	if agg.Passages[1].Passage.Chunk.Ordinal != 1 || agg.Passages[2].Passage.Chunk.Ordinal != 2 {
		t.Errorf("expected ascending-ordinal tiebreak within the same fingerprint, got %+v then %+v",
			agg.Passages[1], agg.Passages[2])
	}
}

func TestAggregateShardResults_RecordsFailuresWithoutDroppingSuccesses(t *testing.T) {
	results := []domain.ShardResult{
		{Fingerprint: "aaaa", Status: domain.ShardOK, Passages: []domain.ScoredPassage{passage("aaaa", 0, "ok content", 0.7)}},
		{Fingerprint: "bbbb", Status: domain.ShardTimeout, Err: errors.New("deadline exceeded")},
		{Fingerprint: "cccc", Status: domain.ShardFailed, Err: errors.New("corrupt index")},
	}

	agg := AggregateShardResults("q", results, 0)

	if len(agg.Passages) != 1 {
		t.Fatalf("expected 1 passage from the surviving shard, got %d", len(agg.Passages))
	}
	if len(agg.Successful) != 1 || agg.Successful[0] != "aaaa" {
		t.Errorf("expected only aaaa successful, got %v", agg.Successful)
	}
	if len(agg.Failed) != 2 {
		t.Errorf("expected 2 failure entries, got %v", agg.Failed)
	}
	if _, ok := agg.Failed["bbbb"]; !ok {
		t.Error("expected bbbb recorded as failed")
	}
}

func TestRenderMarkdown_IncludesPassagesAndFailures(t *testing.T) {
	agg := AggregateShardResults("fog lights", []domain.ShardResult{
		{Fingerprint: "aaaa", Status: domain.ShardOK, Passages: []domain.ScoredPassage{
			passage("aaaa", 0, "lighthouses guide ships", 0.8),
		}},
		{Fingerprint: "bbbb", Status: domain.ShardFailed, Err: errors.New("corrupt index")},
	}, 5*time.Millisecond)

	md := RenderMarkdown(agg)
	if !strings.Contains(md, "fog lights") {
		t.Error("expected the query to appear in the report")
	}
	if !strings.Contains(md, "lighthouses guide ships") {
		t.Error("expected the passage text to appear")
	}
	if !strings.Contains(md, "bbbb") || !strings.Contains(md, "corrupt index") {
		t.Error("expected the failed shard and its reason to appear")
	}
}

func TestContentKey_NormalizesWhitespace(t *testing.T) {
	a := ContentKey("  the quick\nbrown   fox  ")
	b := ContentKey("the quick brown fox")
	if a != b {
		t.Errorf("expected whitespace-normalized keys to match: %q vs %q", a, b)
	}

	c := ContentKey("a different sentence entirely")
	if a == c {
		t.Error("expected distinct content to produce distinct keys")
	}
}
