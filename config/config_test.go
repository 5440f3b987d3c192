package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.Size != 1200 {
		t.Errorf("expected Chunking.Size=1200, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 150 {
		t.Errorf("expected Chunking.Overlap=150, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Service.Port != 1411 {
		t.Errorf("expected Service.Port=1411, got %d", cfg.Service.Port)
	}
	if cfg.MultiShard.MaxWorkers != 4 {
		t.Errorf("expected MultiShard.MaxWorkers=4, got %d", cfg.MultiShard.MaxWorkers)
	}
	if cfg.MultiShard.PerShardTimeoutS != 30 {
		t.Errorf("expected MultiShard.PerShardTimeoutS=30, got %d", cfg.MultiShard.PerShardTimeoutS)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragindex.yaml")

	content := `
chunking:
  size: 800
  overlap: 100
service:
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunking.Size != 800 {
		t.Errorf("expected Chunking.Size=800, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 100 {
		t.Errorf("expected Chunking.Overlap=100, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Service.Port != 9000 {
		t.Errorf("expected Service.Port=9000, got %d", cfg.Service.Port)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragindex.yaml")

	content := `
multi_shard:
  max_workers: 8
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MultiShard.MaxWorkers != 8 {
		t.Errorf("expected MultiShard.MaxWorkers=8, got %d", cfg.MultiShard.MaxWorkers)
	}
}

func TestStoreRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Root = "pdfs"

	got := cfg.StoreRoot("/home/user/project")
	want := filepath.Join("/home/user/project", "pdfs")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	cfg.Store.Root = "/abs/root"
	if got := cfg.StoreRoot("/home/user/project"); got != "/abs/root" {
		t.Errorf("expected absolute root to pass through unchanged, got %s", got)
	}
}

func TestIsReadOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.ReadOnlyRoots = []string{"/data/archive"}

	if !cfg.IsReadOnly("/data/archive") {
		t.Error("expected exact match to be read-only")
	}
	if !cfg.IsReadOnly("/data/archive/2024") {
		t.Error("expected subdirectory of a read-only root to be read-only")
	}
	if cfg.IsReadOnly("/data/active") {
		t.Error("expected unrelated directory to be writable")
	}
}
