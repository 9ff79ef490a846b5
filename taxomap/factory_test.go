package taxomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedderUnsupportedBackend(t *testing.T) {
	_, err := NewEmbedder(EmbedderConfig{Backend: "word2vec"})
	assert.Error(t, err)
}

func TestNewEmbedderOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewEmbedder(EmbedderConfig{Backend: BackendOpenAI})
	assert.Error(t, err)
}

func TestNewEmbedderOpenAIWithKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	emb, err := NewEmbedder(EmbedderConfig{Backend: BackendOpenAI, OpenAI: OpenAIConfig{Model: "text-embedding-3-small"}})
	require.NoError(t, err)
	defer emb.Close()
	assert.Equal(t, "text-embedding-3-small", emb.ModelID())
}

func TestNewEmbedderOpenAICompatibleServerUsesDummyKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	emb, err := NewEmbedder(EmbedderConfig{
		Backend: BackendOpenAI,
		OpenAI:  OpenAIConfig{BaseURL: "http://localhost:11434/v1", Model: "nomic-embed-text"},
	})
	require.NoError(t, err)
	defer emb.Close()
	assert.Equal(t, "nomic-embed-text", emb.ModelID())
}
