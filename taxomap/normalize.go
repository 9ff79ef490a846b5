package taxomap

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization, collapses whitespace and
// strips control characters. Embeddings are always computed on the
// normalized form; output rows keep the original text.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, normed)
	fields := strings.Fields(normed)
	return strings.Join(fields, " ")
}

// NormalizeAll normalizes a slice of strings.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = NormalizeText(t)
	}
	return out
}

// UniqueNormalized normalizes labels, drops empties and removes duplicates
// while keeping the first occurrence order.
func UniqueNormalized(labels []string) []string {
	seen := make(map[string]struct{})
	res := make([]string, 0, len(labels))
	for _, lab := range labels {
		normed := NormalizeText(lab)
		if normed == "" {
			continue
		}
		key := strings.ToLower(normed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, normed)
	}
	return res
}
