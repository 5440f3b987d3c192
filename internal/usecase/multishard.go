package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ragindex/internal/adapter/cache"
	"ragindex/internal/domain"
	"ragindex/internal/port"
)

// MultiShardEngine is the parallel multi-shard query engine (§4.G):
// fan-out of one query over N independently-built per-fingerprint
// indices, each an independent failure domain, bounded by a
// fixed-size worker pool. Grounded on
// dshills-gocontext-mcp/internal/indexer/indexer.go's
// errgroup.WithContext + semaphore shape; redesigned per §9 into
// shared-heap goroutines rather than the original per-shard OS
// processes (original_source/multi-query/src/parallel_query.py's
// ProcessPoolExecutor) so the embeddings singleton's model load is
// paid once regardless of shard count.
type MultiShardEngine struct {
	cache       *cache.IndexCache
	embedder    port.Embedder
	resolvePath func(fingerprint string) string
}

// NewMultiShardEngine wires the engine over a shared index cache and
// embedder. resolvePath maps a fingerprint to the on-disk per-file
// index directory the cache should load for it.
func NewMultiShardEngine(c *cache.IndexCache, embedder port.Embedder, resolvePath func(string) string) *MultiShardEngine {
	return &MultiShardEngine{cache: c, embedder: embedder, resolvePath: resolvePath}
}

// MultiQuery fans out question over fingerprints, at most
// maxConcurrency shards in flight at once, each bounded by
// perShardTimeout independently of the others (§4.G, §5). A shard
// failure or timeout is isolated: it is recorded in its ShardResult
// and never cancels its siblings. The call itself fails only when
// every shard fails (§7 AllShardsFailed); otherwise it returns
// successfully with whatever subset of shards succeeded.
func (e *MultiShardEngine) MultiQuery(ctx context.Context, question string, fingerprints []string, kPerShard, maxConcurrency int, perShardTimeout time.Duration) ([]domain.ShardResult, error) {
	if kPerShard <= 0 {
		kPerShard = 3
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	if perShardTimeout <= 0 {
		perShardTimeout = 30 * time.Second
	}

	results := make([]domain.ShardResult, len(fingerprints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i, fp := range fingerprints {
		i, fp := i, fp
		g.Go(func() error {
			// Never return a non-nil error here: a shard's own
			// failure must not cancel gctx and take down its
			// siblings. Failures are captured in results instead.
			results[i] = e.queryShard(gctx, fp, question, kPerShard, perShardTimeout)
			return nil
		})
	}
	_ = g.Wait()

	successes := 0
	var causes []string
	for _, r := range results {
		if r.Status == domain.ShardOK {
			successes++
		} else {
			causes = append(causes, fmt.Sprintf("%s: %v", r.Fingerprint, r.Err))
		}
	}
	if len(fingerprints) > 0 && successes == 0 {
		return results, fmt.Errorf("%w: %s", domain.ErrAllShardsFailed, strings.Join(causes, "; "))
	}
	return results, nil
}

// queryShard runs one shard under its own deadline. Because
// port.Embedder and port.IndexHandle expose no context-aware variant,
// an expired deadline abandons waiting on the shard rather than
// interrupting in-flight work (§5 cancellation): the goroutine's
// result, once it finally arrives, is simply discarded.
func (e *MultiShardEngine) queryShard(ctx context.Context, fingerprint, question string, k int, timeout time.Duration) domain.ShardResult {
	shardCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan domain.ShardResult, 1)

	go func() {
		done <- e.runShard(fingerprint, question, k)
	}()

	select {
	case res := <-done:
		res.Elapsed = time.Since(start)
		return res
	case <-shardCtx.Done():
		return domain.ShardResult{
			Fingerprint: fingerprint,
			Status:      domain.ShardTimeout,
			Elapsed:     time.Since(start),
			Err:         fmt.Errorf("%w: %s", domain.ErrShardTimeout, fingerprint),
		}
	}
}

func (e *MultiShardEngine) runShard(fingerprint, question string, k int) domain.ShardResult {
	path := e.resolvePath(fingerprint)

	lease, _, _, err := e.cache.GetOrLoad(path)
	if err != nil {
		return domain.ShardResult{
			Fingerprint: fingerprint,
			Status:      domain.ShardFailed,
			Err:         fmt.Errorf("%w: %v", domain.ErrShardFailure, err),
		}
	}
	defer lease.Release()

	vectors, err := e.embedder.Embed([]string{question})
	if err != nil {
		return domain.ShardResult{
			Fingerprint: fingerprint,
			Status:      domain.ShardFailed,
			Err:         fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err),
		}
	}

	passages, err := lease.Handle().Search(vectors[0], k)
	if err != nil {
		return domain.ShardResult{
			Fingerprint: fingerprint,
			Status:      domain.ShardFailed,
			Err:         fmt.Errorf("%w: %v", domain.ErrShardFailure, err),
		}
	}

	return domain.ShardResult{Fingerprint: fingerprint, Status: domain.ShardOK, Passages: passages}
}

// ValidateMultiQueryRequest enforces the per-call limits supplemented
// from original_source/multi-query's argparse epilog (§12.5): at most
// maxQueries questions and maxSources fingerprints per invocation,
// returning a structured validation error instead of silently
// truncating either list.
func ValidateMultiQueryRequest(queries, sources []string, maxQueries, maxSources int) error {
	if maxQueries > 0 && len(queries) > maxQueries {
		return fmt.Errorf("at most %d queries allowed per call, got %d", maxQueries, len(queries))
	}
	if maxSources > 0 && len(sources) > maxSources {
		return fmt.Errorf("at most %d sources allowed per call, got %d", maxSources, len(sources))
	}
	return nil
}
