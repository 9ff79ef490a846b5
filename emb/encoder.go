// Package emb runs a sentence-transformer exported to ONNX. Texts are
// tokenized with the model's tokenizer.json, passed through the transformer
// and pooled into a single fixed-length vector.
package emb

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config carries the paths required to run a local model.
type Config struct {
	// OrtDLL optionally points at the onnxruntime shared library. When empty
	// the platform default lookup applies.
	OrtDLL        string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
}

// Encoder wraps an ONNX runtime session and its tokenizer. Encode is
// serialized with a mutex; the session binds one input shape at a time.
type Encoder struct {
	mu        sync.Mutex
	tk        *tokenizer.Tokenizer
	sess      *ort.DynamicAdvancedSession
	maxSeqLen int
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// The runtime environment is process-global and initialized once; the DLL
// path of the first encoder wins.
func initRuntime(dll string) error {
	ortInitOnce.Do(func() {
		if dll != "" {
			ort.SetSharedLibraryPath(dll)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Init loads the tokenizer and creates the inference session.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" {
		return errors.New("model path is required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("tokenizer path is required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 256
	}
	if err := initRuntime(cfg.OrtDLL); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}
	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: cfg.MaxSeqLen,
		Strategy:  tokenizer.LongestFirst,
	})
	sess, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}
	e.tk = tk
	e.sess = sess
	e.maxSeqLen = cfg.MaxSeqLen
	return nil
}

// Close releases the inference session.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil {
		_ = e.sess.Destroy()
		e.sess = nil
	}
	e.tk = nil
}

// Encode returns the L2-normalized mean-pooled embedding of text.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.tk == nil {
		return nil, errors.New("encoder is not initialized")
	}
	en, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	n := len(en.Ids)
	if n == 0 {
		return nil, errors.New("tokenizer produced no tokens")
	}
	if n > e.maxSeqLen {
		n = e.maxSeqLen
	}
	ids := make([]int64, n)
	mask := make([]int64, n)
	types := make([]int64, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(en.Ids[i])
		if i < len(en.AttentionMask) {
			mask[i] = int64(en.AttentionMask[i])
		} else {
			mask[i] = 1
		}
		if i < len(en.TypeIds) {
			types[i] = int64(en.TypeIds[i])
		}
	}

	idTensor, err := ort.NewTensor(ort.NewShape(1, int64(n)), ids)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idTensor.Destroy()
	maskTensor, err := ort.NewTensor(ort.NewShape(1, int64(n)), mask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(ort.NewShape(1, int64(n)), types)
	if err != nil {
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.sess.Run([]ort.Value{idTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	defer hidden.Destroy()

	dims := hidden.GetShape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	seqLen := int(dims[1])
	dim := int(dims[2])
	return meanPool(hidden.GetData(), mask, seqLen, dim), nil
}

// meanPool averages token vectors weighted by the attention mask and
// L2-normalizes the result, matching sentence-transformers pooling.
func meanPool(data []float32, mask []int64, seqLen, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for t := 0; t < seqLen; t++ {
		if t < len(mask) && mask[t] == 0 {
			continue
		}
		base := t * dim
		for d := 0; d < dim; d++ {
			out[d] += data[base+d]
		}
		count++
	}
	if count > 0 {
		for d := range out {
			out[d] /= count
		}
	}
	var sum float64
	for _, v := range out {
		sum += float64(v) * float64(v)
	}
	if norm := math.Sqrt(sum); norm > 0 {
		for d := range out {
			out[d] = float32(float64(out[d]) / norm)
		}
	}
	return out
}
