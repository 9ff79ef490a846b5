package taxomap

import "encoding/json"

// OutputFormat selects how a finished mapping is rendered.
type OutputFormat string

const (
	// FormatCSV writes one row per guess, suitable for spreadsheets.
	FormatCSV OutputFormat = "csv"
	// FormatJSON writes the mapping rows as a JSON array.
	FormatJSON OutputFormat = "json"
	// FormatTable writes an aligned plain-text table for terminal review.
	FormatTable OutputFormat = "table"
)

// ReferenceEntry is a single entry of a reference classification. Code is
// empty for classifications that are plain label lists (e.g. flow lists).
type ReferenceEntry struct {
	Code  string `json:"code,omitempty"`
	Label string `json:"label"`
}

// Guess is one ranked candidate for an input. Rank starts at 1. Source names
// the reference classification the candidate came from.
type Guess struct {
	Rank       int     `json:"rank"`
	Code       string  `json:"code,omitempty"`
	Label      string  `json:"label"`
	Similarity float32 `json:"similarity"`
	Source     string  `json:"source,omitempty"`
}

// MappingRow holds the top guesses for a single input text.
type MappingRow struct {
	Input   string  `json:"input"`
	Guesses []Guess `json:"guesses"`
}

// LexicalConfig controls the optional token-overlap bonus added on top of the
// cosine score.
type LexicalConfig struct {
	Enabled bool    `json:"enabled"`
	Weight  float32 `json:"weight"`
}

// OpenAIConfig holds settings for the remote embedding backend. The API key
// is read from the environment, never from the config file.
type OpenAIConfig struct {
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model"`
}

// EmbedderConfig wraps the configuration for the embedding backends and the
// vector cache.
type EmbedderConfig struct {
	Backend       string       `json:"backend"`
	OrtDLL        string       `json:"ortDll,omitempty"`
	ModelPath     string       `json:"modelPath,omitempty"`
	TokenizerPath string       `json:"tokenizerPath,omitempty"`
	MaxSeqLen     int          `json:"maxSeqLen"`
	CacheDir      string       `json:"cacheDir,omitempty"`
	ModelID       string       `json:"modelId,omitempty"`
	OpenAI        OpenAIConfig `json:"openai"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Reference string         `json:"reference"`
	Guesses   int            `json:"guesses"`
	MinScore  float32        `json:"minScore"`
	Lexical   LexicalConfig  `json:"lexical"`
	Embedder  EmbedderConfig `json:"embedder"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Guesses <= 0 {
		c.Guesses = 5
	}
	if c.Lexical.Weight == 0 {
		c.Lexical.Weight = 0.05
	}
	if c.Embedder.Backend == "" {
		c.Embedder.Backend = BackendONNX
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 256
	}
	if c.Embedder.OpenAI.Model == "" {
		c.Embedder.OpenAI.Model = defaultOpenAIModel
	}
}
