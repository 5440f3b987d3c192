package embedding

import (
	"fmt"

	"ragindex/config"
	"ragindex/internal/port"
)

// New builds the embedder named by cfg.Provider, the same provider
// switch the teacher's CLI used inline (openai/deepseek/jina/ollama),
// plus "mock" for a deterministic, non-semantic fallback used in tests
// and offline builds.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "deepseek":
		return NewDeepSeekEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "jina":
		return NewJinaEmbedder(cfg.APIKeyEnv, cfg.Model)
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	case "mock", "":
		return NewDummyHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
