package model

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	ProviderVectorize = "vectorize"
	ProviderOpenAI    = "openai"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type EmbedderConfig struct {
	Provider string
	URL      string
	Model    string
	APIKey   string
	Dim      int
}

// NewEmbedder picks the implementation named by cfg.Provider.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case ProviderVectorize, "":
		slog.Info("using vectorize service for embeddings", "url", cfg.URL)
		return NewVectorizeEmbedder(cfg.URL, cfg.Dim), nil
	case ProviderOpenAI:
		slog.Info("using OpenAI-compatible API for embeddings", "model", cfg.Model)
		return NewOpenAIEmbedder(cfg.URL, cfg.APIKey, cfg.Model, cfg.Dim)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func checkDim(vec []float32, dim int) error {
	if dim > 0 && len(vec) != dim {
		return fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), dim)
	}
	return nil
}
