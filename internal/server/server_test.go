package server

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomapping/taxomap/taxomap"
	"ecomapping/taxomap/taxomap/refdata"
)

// hashEmbedder derives a deterministic vector from each text so that the
// full pipeline runs without a real model.
type hashEmbedder struct{}

func (hashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()
	vec := make([]float32, 16)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000 - 0.5
	}
	return vec, nil
}

func (e hashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (hashEmbedder) Close() error    { return nil }
func (hashEmbedder) ModelID() string { return "hash" }

// countingEmbedder records the size of every embed batch so tests can tell a
// cache hit from a re-embed.
type countingEmbedder struct {
	hashEmbedder
	mu      sync.Mutex
	batches []int
}

func (e *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches = append(e.batches, len(texts))
	e.mu.Unlock()
	return e.hashEmbedder.EmbedTexts(ctx, texts)
}

func newTestServer(t *testing.T) *Server {
	return newTestServerWith(t, hashEmbedder{})
}

func newTestServerWith(t *testing.T, emb taxomap.Embedder) *Server {
	t.Helper()
	mapper, err := taxomap.NewMapper(emb, taxomap.Config{Guesses: 3}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mapper.Close() })
	return New(mapper, zerolog.Nop())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, 10000)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out["status"])
}

func TestListReferences(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, srv, http.MethodGet, "/api/v1/references", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refs []struct {
		Name    string `json:"name"`
		Entries int    `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(body, &refs))
	require.Len(t, refs, 4)
	for _, ref := range refs {
		assert.NotEmpty(t, ref.Name)
		assert.Greater(t, ref.Entries, 0)
	}
}

func TestMatchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
		"inputs":    []string{"steel beams", "cow milk"},
		"reference": "NACE",
		"guesses":   3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Reference string               `json:"reference"`
		Rows      []taxomap.MappingRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "NACE", out.Reference)
	require.Len(t, out.Rows, 2)
	for _, row := range out.Rows {
		require.Len(t, row.Guesses, 3)
		for i, g := range row.Guesses {
			assert.Equal(t, i+1, g.Rank)
			assert.NotEmpty(t, g.Code)
			assert.Equal(t, "NACE", g.Source)
			if i > 0 {
				assert.LessOrEqual(t, g.Similarity, row.Guesses[i-1].Similarity)
			}
		}
	}
}

func TestMatchEndpointReusesLoadedReference(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
		"inputs":    []string{"steel beams"},
		"reference": "exiobase",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// Second call without a reference keeps the loaded one.
	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
		"inputs": []string{"cow milk"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "exiobase", out.Reference)
}

func TestMatchEndpointEmbedsEachReferenceOnce(t *testing.T) {
	emb := &countingEmbedder{}
	srv := newTestServerWith(t, emb)
	naceSize, err := refdata.Size("NACE")
	require.NoError(t, err)
	exioSize, err := refdata.Size("exiobase")
	require.NoError(t, err)

	for _, name := range []string{"NACE", "exiobase", "NACE"} {
		resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
			"inputs":    []string{"steel beams"},
			"reference": name,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}
	// Each classification is embedded once; switching back to NACE only
	// embeds the request input.
	assert.Equal(t, []int{naceSize, 1, exioSize, 1, 1}, emb.batches)
}

func TestMatchEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
		"inputs": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty inputs")

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
		"inputs":    []string{"steel"},
		"reference": "ISIC",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown reference")

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/v1/match", map[string]any{
		"inputs": []string{"steel"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no reference loaded")
}
