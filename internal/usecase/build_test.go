package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ragindex/internal/adapter/chunker"
	"ragindex/internal/adapter/diskstore"
	"ragindex/internal/adapter/embedding"
	"ragindex/internal/domain"
)

func TestBuilder_Build_WritesManifestAndIndex(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "fp1")

	b := NewBuilder(chunker.NewRecursiveSplitter(200, 20), embedding.NewDummyHashEmbedder(32), 8, 200, 20)

	report, err := b.Build([]Source{
		{Fingerprint: "fp1", Filename: "a.pdf.txt", Text: longText("apple banana cherry ", 60)},
	}, outputDir)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.Manifest.Chunks == 0 {
		t.Fatal("expected at least one chunk")
	}
	if report.Manifest.Filename != "a.pdf.txt" {
		t.Errorf("expected single-source manifest to record filename, got %q", report.Manifest.Filename)
	}
	if report.Manifest.EmbeddingModel != "dummy-hash" {
		t.Errorf("expected embedding model recorded, got %q", report.Manifest.EmbeddingModel)
	}

	if _, err := os.Stat(diskstore.ManifestPath(outputDir)); err != nil {
		t.Errorf("expected manifest.json on disk: %v", err)
	}
	if _, err := os.Stat(diskstore.IndexPath(outputDir)); err != nil {
		t.Errorf("expected index.bolt on disk: %v", err)
	}
}

func TestBuilder_Build_SkipsEmptySourceAsWarning(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(chunker.NewRecursiveSplitter(200, 20), embedding.NewDummyHashEmbedder(32), 8, 200, 20)

	report, err := b.Build([]Source{
		{Fingerprint: "fp1", Filename: "good.txt", Text: longText("alpha beta gamma ", 40)},
		{Fingerprint: "fp2", Filename: "empty.txt", Text: ""},
	}, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Source != "empty.txt" {
		t.Errorf("expected one warning for empty.txt, got %+v", report.Warnings)
	}
}

func TestBuilder_Build_EmbeddingFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "out")

	failing := failingEmbedder{err: errors.New("provider unavailable")}
	b := NewBuilder(chunker.NewRecursiveSplitter(200, 20), failing, 8, 200, 20)

	_, err := b.Build([]Source{
		{Fingerprint: "fp1", Filename: "a.txt", Text: longText("x y z ", 40)},
	}, outputDir)
	if !errors.Is(err, domain.ErrEmbeddingFailure) {
		t.Fatalf("expected ErrEmbeddingFailure, got %v", err)
	}
	if _, statErr := os.Stat(outputDir); !os.IsNotExist(statErr) {
		t.Errorf("expected no output directory after embedding failure, stat err: %v", statErr)
	}
}

func TestBuilder_BuildCollection_WritesCollectionManifest(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder(chunker.NewRecursiveSplitter(200, 20), embedding.NewDummyHashEmbedder(32), 8, 200, 20)

	_, err := b.BuildCollection([]Source{
		{Fingerprint: "fpA", Filename: "a.pdf.txt", Text: longText("one two three ", 40)},
		{Fingerprint: "fpB", Filename: "b.pdf.txt", Text: longText("four five six ", 40)},
	}, root)
	if err != nil {
		t.Fatalf("build collection: %v", err)
	}

	manifest, err := diskstore.ReadCollectionManifest(root)
	if err != nil {
		t.Fatalf("read collection manifest: %v", err)
	}
	if manifest.Files["fpA"] != "a.pdf.txt" || manifest.Files["fpB"] != "b.pdf.txt" {
		t.Errorf("unexpected collection manifest files: %+v", manifest.Files)
	}

	if _, err := os.Stat(diskstore.ManifestPath(diskstore.CollectionIndexDir(root))); err != nil {
		t.Errorf("expected merged index manifest under .mini_rag_index/: %v", err)
	}
}

func TestBuilder_BuildCollection_AlsoWritesPerFingerprintSiblingDirs(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder(chunker.NewRecursiveSplitter(200, 20), embedding.NewDummyHashEmbedder(32), 8, 200, 20)

	_, err := b.BuildCollection([]Source{
		{Fingerprint: "fpA", Filename: "a.pdf.txt", Text: longText("one two three ", 40)},
		{Fingerprint: "fpB", Filename: "b.pdf.txt", Text: longText("four five six ", 40)},
	}, root)
	if err != nil {
		t.Fatalf("build collection: %v", err)
	}

	for _, fp := range []string{"fpA", "fpB"} {
		shardDir := filepath.Join(root, fp)
		if _, err := os.Stat(diskstore.ManifestPath(shardDir)); err != nil {
			t.Errorf("expected per-fingerprint shard manifest under %s (so multi-shard resolvePath finds it): %v", shardDir, err)
		}
	}
}

type failingEmbedder struct{ err error }

func (f failingEmbedder) Embed(texts []string) ([][]float32, error) { return nil, f.err }
func (f failingEmbedder) Dimension() int                             { return 8 }
func (f failingEmbedder) ModelName() string                          { return "failing" }

func longText(phrase string, repeat int) string {
	out := ""
	for i := 0; i < repeat; i++ {
		out += phrase
	}
	return out
}
