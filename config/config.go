// Package config loads and saves the YAML configuration shared by the
// index service, CLI, and benchmark binaries: chunking parameters, the
// embedding provider, cache sizing hints, the query service's HTTP
// settings, and multi-shard fan-out defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ragindex tools.
type Config struct {
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Cache      CacheConfig      `yaml:"cache"`
	Service    ServiceConfig    `yaml:"service"`
	MultiShard MultiShardConfig `yaml:"multi_shard"`
	Store      StoreConfig      `yaml:"store"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ChunkingConfig controls the Index Builder's recursive splitter (§4.C).
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig selects and configures the Embeddings Singleton's
// backing provider (§4.B). Provider mirrors the teacher's switch:
// openai/deepseek/jina/ollama/mock.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// CacheConfig is an operator sizing hint only; the in-memory cache
// never evicts automatically (§5).
type CacheConfig struct {
	MaxResident int `yaml:"max_resident"`
}

// ServiceConfig configures the long-running query service's HTTP
// binding and defaults (§4.F, §6).
type ServiceConfig struct {
	Port          int    `yaml:"port"`
	PreloadPath   string `yaml:"preload_path"`
	DefaultTopK   int    `yaml:"default_top_k"`
	QueryTimeoutS int    `yaml:"query_timeout_seconds"`
}

// MultiShardConfig configures the fan-out engine's defaults (§4.G).
type MultiShardConfig struct {
	MaxWorkers        int `yaml:"max_workers"`
	PerShardTimeoutS  int `yaml:"per_shard_timeout_seconds"`
	KPerShard         int `yaml:"k_per_shard"`
	MaxSourcesPerCall int `yaml:"max_sources_per_call"`
	MaxQueriesPerCall int `yaml:"max_queries_per_call"`
}

// StoreConfig names the on-disk index layout's root and file extensions
// (§4.D), plus the set of collection roots that build/reload/reclaim
// must never mutate (§12.2, original_source's no_train_dirs).
type StoreConfig struct {
	Root          string   `yaml:"root"`
	AnnExtension  string   `yaml:"ann_extension"`
	MetaExtension string   `yaml:"meta_extension"`
	ReadOnlyRoots []string `yaml:"read_only_roots"`
}

// IsReadOnly reports whether root (or a parent of root) is listed in
// ReadOnlyRoots.
func (c *Config) IsReadOnly(root string) bool {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	for _, ro := range c.Store.ReadOnlyRoots {
		roAbs, err := filepath.Abs(ro)
		if err != nil {
			roAbs = ro
		}
		if abs == roAbs || strings.HasPrefix(abs, roAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// LoggingConfig controls the daemon and CLI binaries' log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Size:    1200,
			Overlap: 150,
		},
		Embedding: EmbeddingConfig{
			Provider:  "mock",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 48,
		},
		Cache: CacheConfig{
			MaxResident: 64,
		},
		Service: ServiceConfig{
			Port:          1411,
			DefaultTopK:   4,
			QueryTimeoutS: 300,
		},
		MultiShard: MultiShardConfig{
			MaxWorkers:        4,
			PerShardTimeoutS:  30,
			KPerShard:         3,
			MaxSourcesPerCall: 64,
			MaxQueriesPerCall: 3,
		},
		Store: StoreConfig{
			Root:          ".",
			AnnExtension:  "bolt",
			MetaExtension: "json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// for anything the file doesn't set. A missing file is not an error:
// it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration by looking for ragindex.yaml, then
// .ragindex/config.yaml, inside dir.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragindex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragindex", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StoreRoot resolves the configured on-disk index store root relative
// to baseDir when it is itself a relative path.
func (c *Config) StoreRoot(baseDir string) string {
	if filepath.IsAbs(c.Store.Root) {
		return c.Store.Root
	}
	return filepath.Join(baseDir, c.Store.Root)
}
