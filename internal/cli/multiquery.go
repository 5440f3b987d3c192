package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ragindex/internal/adapter/cache"
	"ragindex/internal/adapter/diskstore"
	"ragindex/internal/adapter/embedding"
	"ragindex/internal/domain"
	"ragindex/internal/port"
	"ragindex/internal/usecase"
)

var (
	multiQueryText     string
	multiQuerySources  []string
	multiQueryTopK     int
	multiQueryMarkdown bool
)

var multiQueryCmd = &cobra.Command{
	Use:   "multi-query [root]",
	Short: "Fan a query out across multiple per-fingerprint shards",
	Long: `multi-query embeds one question once and searches it against every
listed fingerprint's index under root, in parallel, isolating any shard
that fails or times out from the rest (§4.G).

Examples:
  ragindex multi-query ./docs -q "..." --sources fp1,fp2,fp3
  ragindex multi-query ./docs -q "..." --sources fp1,fp2 --markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runMultiQuery,
}

func init() {
	rootCmd.AddCommand(multiQueryCmd)
	multiQueryCmd.Flags().StringVarP(&multiQueryText, "query", "q", "", "search query (required)")
	multiQueryCmd.Flags().StringSliceVar(&multiQuerySources, "sources", nil, "comma-separated shard fingerprints (required)")
	multiQueryCmd.Flags().IntVarP(&multiQueryTopK, "top-k", "k", 0, "passages per shard (default from config)")
	multiQueryCmd.Flags().BoolVar(&multiQueryMarkdown, "markdown", false, "render the aggregated result as Markdown")
	multiQueryCmd.MarkFlagRequired("query")
	multiQueryCmd.MarkFlagRequired("sources")
}

func runMultiQuery(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	c := GetConfig()
	if err := usecase.ValidateMultiQueryRequest([]string{multiQueryText}, multiQuerySources, c.MultiShard.MaxQueriesPerCall, c.MultiShard.MaxSourcesPerCall); err != nil {
		return err
	}

	k := c.MultiShard.KPerShard
	if multiQueryTopK > 0 {
		k = multiQueryTopK
	}

	embedder, err := embedding.New(c.Embedding)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	loader := func(p string) (port.IndexHandle, domain.BuildManifest, error) {
		resolved, err := diskstore.ResolveIndexDir(p)
		if err != nil {
			return nil, domain.BuildManifest{}, err
		}
		return diskstore.Load(resolved)
	}
	engine := usecase.NewMultiShardEngine(
		cache.NewIndexCache(loader),
		embedder,
		func(fp string) string { return filepath.Join(root, fp) },
	)

	timeout := time.Duration(c.MultiShard.PerShardTimeoutS) * time.Second
	start := time.Now()
	results, err := engine.MultiQuery(context.Background(), multiQueryText, multiQuerySources, k, c.MultiShard.MaxWorkers, timeout)
	if err != nil {
		return fmt.Errorf("multi-query failed: %w", err)
	}

	agg := usecase.AggregateShardResults(multiQueryText, results, time.Since(start))

	if multiQueryMarkdown {
		fmt.Println(usecase.RenderMarkdown(agg))
		return nil
	}

	fmt.Printf("Query: %s\n", agg.Query)
	fmt.Printf("Shards: %d ok, %d failed (%s)\n\n", len(agg.Successful), len(agg.Failed), agg.Elapsed)
	for i, p := range agg.Passages {
		fmt.Printf("[%d] score=%.4f source=%s shards=%s\n", i+1, p.Passage.Score, p.Passage.Chunk.Source, strings.Join(p.ContributingOnes, ","))
		fmt.Printf("    %s\n", strings.TrimSpace(p.Passage.Chunk.Text))
	}
	if len(agg.Failed) > 0 {
		fmt.Println("\nFailed shards:")
		for fp, reason := range agg.Failed {
			fmt.Printf("  %s: %s\n", fp, reason)
		}
	}
	return nil
}
