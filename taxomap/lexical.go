package taxomap

import (
	"strings"
	"unicode"
)

// lexicalOverlap measures token overlap between an input and a candidate
// label, as a fraction of the input's tokens found in the label. It is a
// cheap signal for exact terminology matches that embedding similarity can
// underweight, e.g. an input that repeats a sector name verbatim.
func lexicalOverlap(input, label string) float32 {
	inTokens := tokenize(input)
	if len(inTokens) == 0 {
		return 0
	}
	labelSet := make(map[string]struct{})
	for _, t := range tokenize(label) {
		labelSet[t] = struct{}{}
	}
	if len(labelSet) == 0 {
		return 0
	}
	matched := 0
	for _, t := range inTokens {
		if _, ok := labelSet[t]; ok {
			matched++
		}
	}
	return float32(matched) / float32(len(inTokens))
}

func tokenize(s string) []string {
	s = strings.ToLower(NormalizeText(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// tinyBias derives a sub-epsilon score offset from the label so that equal
// scores keep a stable order across runs.
func tinyBias(label string) float32 {
	h := fnv32(label)
	return float32(h%997) * 1e-9
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
