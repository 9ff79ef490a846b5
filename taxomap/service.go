package taxomap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Sentinel errors reported by the mapper.
var (
	ErrEmptyInputs    = errors.New("input list is empty")
	ErrEmptyReference = errors.New("reference classification is empty")
	ErrNoReference    = errors.New("no reference classification loaded")
)

// Reference is an embedded reference classification ready for matching. It is
// immutable after construction, so callers can keep a snapshot and match
// against it while the mapper's current reference is swapped underneath.
type Reference struct {
	name string
	idx  *InMemoryIndex
}

// Name returns the classification name the reference was embedded under.
func (r *Reference) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// Size returns the number of embedded entries.
func (r *Reference) Size() int {
	if r == nil {
		return 0
	}
	return r.idx.Size()
}

// Mapper orchestrates embedding, scoring and ranking of inputs against a
// reference classification.
type Mapper struct {
	embedder Embedder

	cfgMu sync.RWMutex
	cfg   Config

	refMu sync.RWMutex
	ref   *Reference

	logger zerolog.Logger
}

// NewMapper constructs a mapper with the given embedder and configuration.
func NewMapper(embedder Embedder, cfg Config, logger zerolog.Logger) (*Mapper, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	cfg.ApplyDefaults()
	return &Mapper{
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Close releases embedder resources.
func (m *Mapper) Close() error {
	if m.embedder != nil {
		return m.embedder.Close()
	}
	return nil
}

// Config returns a copy of the current configuration.
func (m *Mapper) Config() Config {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg.Clone()
}

// UpdateConfig replaces the configuration.
func (m *Mapper) UpdateConfig(cfg Config) {
	cfg.ApplyDefaults()
	m.cfgMu.Lock()
	m.cfg = cfg
	m.cfgMu.Unlock()
}

// EmbedReference embeds the entries of a reference classification into a
// reusable snapshot. The snapshot is not installed as the current reference;
// use LoadReference or SetReference for that.
func (m *Mapper) EmbedReference(ctx context.Context, name string, entries []ReferenceEntry) (*Reference, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyReference
	}
	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = NormalizeText(entry.Label)
	}
	vecs, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed reference %q: %w", name, err)
	}
	items := make([]VectorItem, len(entries))
	for i, entry := range entries {
		items[i] = VectorItem{
			Code:   entry.Code,
			Label:  entry.Label,
			Source: name,
			Vector: vecs[i],
		}
	}
	idx := NewInMemoryIndex()
	idx.Replace(items)
	m.logger.Info().Str("reference", name).Int("entries", len(items)).Msg("reference classification embedded")
	return &Reference{name: name, idx: idx}, nil
}

// LoadReference embeds a reference classification and makes it the current
// reference. The name is informational and shows up in logs, output rows and
// the HTTP API.
func (m *Mapper) LoadReference(ctx context.Context, name string, entries []ReferenceEntry) error {
	ref, err := m.EmbedReference(ctx, name, entries)
	if err != nil {
		return err
	}
	m.SetReference(ref)
	return nil
}

// SetReference swaps the current reference.
func (m *Mapper) SetReference(ref *Reference) {
	m.refMu.Lock()
	m.ref = ref
	m.refMu.Unlock()
}

// CurrentReference returns the reference MatchAll runs against, nil when none
// is loaded.
func (m *Mapper) CurrentReference() *Reference {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	return m.ref
}

// ReferenceName returns the name of the loaded reference classification.
func (m *Mapper) ReferenceName() string {
	return m.CurrentReference().Name()
}

// ReferenceSize returns how many reference entries are indexed.
func (m *Mapper) ReferenceSize() int {
	return m.CurrentReference().Size()
}

// MatchOptions override parts of the configuration for a single run without
// touching the persisted settings.
type MatchOptions struct {
	Guesses  int
	MinScore float32
}

// MatchAll embeds all inputs and returns their top guesses against the loaded
// reference, one row per input in input order.
func (m *Mapper) MatchAll(ctx context.Context, inputs []string) ([]MappingRow, error) {
	return m.MatchAllWithOptions(ctx, inputs, MatchOptions{})
}

// MatchAllWithOptions is MatchAll with per-run overrides.
func (m *Mapper) MatchAllWithOptions(ctx context.Context, inputs []string, opts MatchOptions) ([]MappingRow, error) {
	return m.MatchReference(ctx, inputs, m.CurrentReference(), opts)
}

// MatchReference matches inputs against an explicit reference snapshot, so a
// concurrent swap of the current reference cannot change which classification
// a run is scored against.
func (m *Mapper) MatchReference(ctx context.Context, inputs []string, ref *Reference, opts MatchOptions) ([]MappingRow, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}
	if ref.Size() == 0 {
		return nil, ErrNoReference
	}
	cfg := m.Config()
	if opts.Guesses > 0 {
		cfg.Guesses = opts.Guesses
	}
	if opts.MinScore > 0 {
		cfg.MinScore = opts.MinScore
	}
	vecs, err := m.embedder.EmbedTexts(ctx, NormalizeAll(inputs))
	if err != nil {
		return nil, fmt.Errorf("embed inputs: %w", err)
	}
	rows := make([]MappingRow, 0, len(inputs))
	for i, vec := range vecs {
		rows = append(rows, rankForVector(vec, inputs[i], cfg, ref.idx))
	}
	return rows, nil
}

func rankForVector(vec []float32, input string, cfg Config, idx *InMemoryIndex) MappingRow {
	k := cfg.Guesses
	if k <= 0 {
		k = 5
	}
	// Over-fetch so the lexical bonus can promote entries from below the cut.
	fetch := k * 3
	if cfg.Lexical.Enabled {
		fetch = idx.Size()
	}
	hits := idx.Search(vec, fetch)
	if cfg.Lexical.Enabled {
		for i := range hits {
			hits[i].Score = clamp01(hits[i].Score + cfg.Lexical.Weight*lexicalOverlap(input, hits[i].Label))
		}
	}
	// tinyBias is an ordering perturbation for equal scores only; the
	// reported Similarity stays the unbiased score.
	sort.Slice(hits, func(i, j int) bool {
		si := float64(hits[i].Score) + float64(tinyBias(hits[i].Label))
		sj := float64(hits[j].Score) + float64(tinyBias(hits[j].Label))
		if si == sj {
			return hits[i].Label < hits[j].Label
		}
		return si > sj
	})
	guesses := make([]Guess, 0, k)
	for _, h := range hits {
		if cfg.MinScore > 0 && h.Score < cfg.MinScore {
			continue
		}
		guesses = append(guesses, Guess{
			Rank:       len(guesses) + 1,
			Code:       h.Code,
			Label:      h.Label,
			Similarity: h.Score,
			Source:     h.Source,
		})
		if len(guesses) == k {
			break
		}
	}
	return MappingRow{Input: input, Guesses: guesses}
}
