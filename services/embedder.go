package services

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"regbot/config"
)

// NewEmbedder builds the embedding capability for the configured provider.
// The same provider and model must be used at index build time and at query
// time; the persisted index records the model name to enforce this.
func NewEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		client, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai embedding client: %w", err)
		}
		return embeddings.NewEmbedder(client)
	case "ollama":
		client, err := ollama.New(
			ollama.WithServerURL(cfg.OllamaBaseURL),
			ollama.WithModel(cfg.EmbeddingModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama embedding client: %w", err)
		}
		return embeddings.NewEmbedder(client)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}
