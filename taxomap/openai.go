package taxomap

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = string(openai.SmallEmbedding3)

// embedBatchSize limits how many inputs are sent per embeddings request.
const embedBatchSize = 64

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. Pointing
// BaseURL at an Ollama server's /v1 path works with a dummy API key.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder builds a remote embedder from the given settings.
func NewOpenAIEmbedder(apiKey string, cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("missing API key for openai embedder")
	}
	conf := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(conf),
		model:  model,
	}, nil
}

// ModelID returns the embedding model name.
func (c *OpenAIEmbedder) ModelID() string {
	return c.model
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (c *OpenAIEmbedder) Close() error {
	return nil
}

// EmbedText embeds a single string.
func (c *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds a slice of strings, batching requests.
func (c *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := NormalizeAll(texts[start:end])
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(c.model),
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embeddings response length mismatch: got %d, want %d", len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}
