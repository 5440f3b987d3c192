package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ragindex/internal/adapter/cache"
	"ragindex/internal/adapter/chunker"
	"ragindex/internal/adapter/diskstore"
	"ragindex/internal/adapter/embedding"
	"ragindex/internal/domain"
	"ragindex/internal/port"
)

// TestFullPipeline_BuildQueryReclaim exercises the whole build -> query ->
// multi-query -> reclaim lifecycle end to end, the way an operator would
// drive the CLI. Uses testify's one-liner assertions, matching the
// corpus's integration-style suites (dshills-gocontext-mcp).
func TestFullPipeline_BuildQueryReclaim(t *testing.T) {
	root := t.TempDir()
	writeSourceFile(t, root, "lighthouses.txt", longText("lighthouses guide ships through coastal fog banks. ", 30))
	writeSourceFile(t, root, "orchards.txt", longText("apple orchards bloom in early spring sunshine. ", 30))

	sources, err := ListFingerprints(root)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	builder := NewBuilder(chunker.NewRecursiveSplitter(200, 20), embedding.NewDummyHashEmbedder(32), 8, 200, 20)
	var fingerprints []string
	for _, s := range sources {
		data, readErr := os.ReadFile(filepath.Join(root, s.Filename))
		require.NoError(t, readErr)

		_, err := builder.Build([]Source{{Fingerprint: s.Fingerprint, Filename: s.Filename, Text: string(data)}}, filepath.Join(root, s.Fingerprint))
		require.NoError(t, err)
		fingerprints = append(fingerprints, s.Fingerprint)
	}

	loader := func(path string) (port.IndexHandle, domain.BuildManifest, error) {
		resolved, err := diskstore.ResolveIndexDir(path)
		if err != nil {
			return nil, domain.BuildManifest{}, err
		}
		return diskstore.Load(resolved)
	}
	idxCache := cache.NewIndexCache(loader)
	embedder := embedding.NewDummyHashEmbedder(32)

	svc := NewQueryService(idxCache, embedder)
	resp, err := svc.Query(filepath.Join(root, fingerprints[0]), "lighthouses and fog", 3)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Passages)
	require.NotEmpty(t, resp.Answer)

	engine := NewMultiShardEngine(idxCache, embedder, func(fp string) string { return filepath.Join(root, fp) })
	results, err := engine.MultiQuery(context.Background(), "lighthouses and fog", fingerprints, 2, 2, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, results, 2)

	agg := AggregateShardResults("lighthouses and fog", results, 0)
	require.Equal(t, 2, len(agg.Successful))
	require.NotEmpty(t, agg.Passages)

	require.True(t, svc.Evict(filepath.Join(root, fingerprints[0])))

	report, err := Reclaim(root, false)
	require.NoError(t, err)
	require.Equal(t, 2, report.Kept)
	require.Equal(t, 0, report.OrphansFound)
}

