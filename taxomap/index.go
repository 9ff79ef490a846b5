package taxomap

import (
	"math"
	"sort"
	"sync"
)

// VectorItem represents an entry within a vector index. Source names the
// classification the entry came from.
type VectorItem struct {
	Code   string
	Label  string
	Source string
	Vector []float32
}

// Hit is a scored index entry.
type Hit struct {
	Code   string
	Label  string
	Source string
	Score  float32
}

// InMemoryIndex is a brute-force vector index with cosine similarity. The
// reference lists are small (hundreds to low thousands of entries), so no
// approximate search structure is needed.
type InMemoryIndex struct {
	mu    sync.RWMutex
	items []VectorItem
}

// NewInMemoryIndex constructs an empty index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Replace swaps the stored items atomically.
func (idx *InMemoryIndex) Replace(items []VectorItem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.items = make([]VectorItem, len(items))
	for i, it := range items {
		idx.items[i] = VectorItem{
			Code:   it.Code,
			Label:  it.Label,
			Source: it.Source,
			Vector: cloneVector(it.Vector),
		}
	}
}

// Size returns the current number of vectors stored.
func (idx *InMemoryIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// Search scores every stored item against vec and returns the top-k hits
// sorted descending by score. Ties are broken by label so repeated runs stay
// deterministic.
func (idx *InMemoryIndex) Search(vec []float32, k int) []Hit {
	idx.mu.RLock()
	items := idx.items
	idx.mu.RUnlock()
	if len(items) == 0 || len(vec) == 0 || k <= 0 {
		return nil
	}
	hits := make([]Hit, 0, len(items))
	for _, it := range items {
		hits = append(hits, Hit{
			Code:   it.Code,
			Label:  it.Label,
			Source: it.Source,
			Score:  cosineSimilarity(vec, it.Vector),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Label < hits[j].Label
		}
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
