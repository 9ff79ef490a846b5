package taxomap

import (
	"fmt"
	"os"
	"strings"
)

// Supported embedding backends.
const (
	BackendONNX   = "onnx"
	BackendOpenAI = "openai"
)

// NewEmbedder constructs the embedding backend selected by the configuration.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendONNX:
		return NewOrtEmbedder(cfg)
	case BackendOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" && cfg.OpenAI.BaseURL != "" {
			// Ollama and other local OpenAI-compatible servers ignore the key.
			apiKey = "ollama"
		}
		return NewOpenAIEmbedder(apiKey, cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unsupported embedding backend: %s", cfg.Backend)
	}
}
