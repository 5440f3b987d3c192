// Command ragindexd is the long-running query service (§4.F, §6): it
// preloads a configured index, then serves QUERY/STATS/EVICT/RELOAD
// over HTTP until killed.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ragindex/config"
	"ragindex/internal/adapter/cache"
	"ragindex/internal/adapter/diskstore"
	"ragindex/internal/adapter/embedding"
	"ragindex/internal/domain"
	"ragindex/internal/httpapi"
	"ragindex/internal/port"
	"ragindex/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to ragindex.yaml (default: look in the working directory)")
	dir := flag.String("dir", ".", "working directory to resolve relative config paths against")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromDir(*dir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	// The embedder loads lazily behind a Singleton: the daemon can bind
	// its listener and start answering /cache/stats immediately, and
	// pays the model load cost once, on the first QUERY or multi-query,
	// however many query/multi-query goroutines race to trigger it.
	// Preload only warms the index cache and does not load the model.
	embedderOnce := embedding.NewSingleton(func() (port.Embedder, error) {
		return embedding.New(cfg.Embedding)
	})
	embedder := embedderOnce.AsEmbedder()

	loader := func(path string) (port.IndexHandle, domain.BuildManifest, error) {
		resolved, err := diskstore.ResolveIndexDir(path)
		if err != nil {
			return nil, domain.BuildManifest{}, err
		}
		return diskstore.Load(resolved)
	}
	idxCache := cache.NewIndexCache(loader)
	queries := usecase.NewQueryService(idxCache, embedder)

	resolvePath := func(fingerprint string) string { return filepath.Join(cfg.StoreRoot(*dir), fingerprint) }
	shards := usecase.NewMultiShardEngine(idxCache, embedder, resolvePath)

	if cfg.Service.PreloadPath != "" {
		queries.Preload(cfg.Service.PreloadPath)
	}

	queryTimeout := time.Duration(cfg.Service.QueryTimeoutS) * time.Second
	srv := httpapi.New(queries, shards, queryTimeout)

	addr := fmt.Sprintf(":%d", cfg.Service.Port)
	log.Printf("ragindexd listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
