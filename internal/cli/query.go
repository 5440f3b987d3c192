package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ragindex/internal/adapter/cache"
	"ragindex/internal/adapter/diskstore"
	"ragindex/internal/adapter/embedding"
	"ragindex/internal/domain"
	"ragindex/internal/port"
	"ragindex/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [index-path]",
	Short: "Query a single built index",
	Long: `Query embeds the given question and searches the index at index-path
(a per-fingerprint directory, or a collection root with a merged index).

Examples:
  ragindex query ./docs/<fingerprint> -q "how do lighthouses work"
  ragindex query ./docs -q "..." --json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of passages to return (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	c := GetConfig()
	topK := c.Service.DefaultTopK
	if queryTopK > 0 {
		topK = queryTopK
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
	svc := usecase.NewQueryService(cache.NewIndexCache(loader), embedder)

	resp, err := svc.Query(path, queryText, topK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Found %d passage(s) for: %s\n\n", len(resp.Passages), queryText)
	fmt.Println(resp.Answer)
	fmt.Printf("\n(load %.3fs, retrieval %.3fs, from_cache=%v)\n", resp.LoadTimeSeconds, resp.RetrievalTimeSeconds, resp.FromCache)
	return nil
}
