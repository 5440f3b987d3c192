// Command ragbench is a local benchmark harness for a single built
// index: it embeds a query, searches, and reports similarity quality
// metrics. Adapted from the teacher's cmd/benchmark/main.go, which
// benchmarked a BM25+embedding hybrid store; this version benchmarks
// the content-addressed ANN index directly.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"ragindex/config"
	"ragindex/internal/adapter/diskstore"
	"ragindex/internal/adapter/embedding"
)

func main() {
	indexPath := flag.String("index", ".", "path to a built index directory (per-fingerprint or collection root)")
	query := flag.String("q", "", "query to test")
	topK := flag.Int("k", 10, "number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: ragbench -index ./docs/<fingerprint> -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Embedding infrastructure (model connection, vector dimension)")
		fmt.Println("  2. Semantic similarity of the top-k matches")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	dir, err := diskstore.ResolveIndexDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error resolving index: %v\n", err)
		os.Exit(1)
	}
	handle, manifest, err := diskstore.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening index: %v\n", err)
		os.Exit(1)
	}
	defer handle.Close()

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building embedder: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", handle.DocCount())
	fmt.Printf("Model:          %s\n", manifest.EmbeddingModel)
	fmt.Printf("Dimension:      %d\n", handle.Dimension())
	fmt.Println()

	fmt.Printf("Query: %q\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	vectors, err := embedder.Embed([]string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "embedding error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Query embedded: %d dimensions\n\n", len(vectors[0]))

	results, err := handle.Search(vectors[0], *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := strings.ReplaceAll(r.Chunk.Text, "\n", " ")
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		totalScore += r.Score
		rating := "LOW"
		switch {
		case r.Score > 0.7:
			rating = "HIGH"
		case r.Score > 0.5:
			rating = "GOOD"
		case r.Score > 0.3:
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s (page %d)\n", i+1, rating, r.Score, r.Chunk.Source, r.Chunk.Page)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("QUALITY METRICS:")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)

	switch {
	case avgScore > 0.5:
		fmt.Println("  Status: GOOD - semantic search working well")
	case avgScore > 0.3:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - may need better embeddings or a rebuild")
	}
}
