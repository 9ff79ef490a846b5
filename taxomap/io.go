package taxomap

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InputParseOptions selects which column of a CSV/TSV file holds the texts to
// map. Column accepts a header name or a 1-based #index.
type InputParseOptions struct {
	Column string
}

// ReferenceParseOptions selects the code and label columns of a user-supplied
// reference file. CodeColumn may be empty for plain label lists.
type ReferenceParseOptions struct {
	CodeColumn  string
	LabelColumn string
}

var (
	inputColumnCandidates = []string{"input", "product", "item", "name", "label", "text", "description"}
	labelColumnCandidates = []string{"label", "sector", "name", "category", "description", "flow"}
	codeColumnCandidates  = []string{"code", "id"}
)

// ParseInputList reads the texts to be mapped. CSV and TSV files are read
// column-wise, JSON files must contain an array of strings, anything else is
// treated as one entry per line.
func ParseInputList(path string, opts InputParseOptions) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseInputColumn(path, ',', opts)
	case ".tsv":
		return parseInputColumn(path, '\t', opts)
	case ".json":
		return parseJSONStrings(path)
	default:
		return parseLines(path)
	}
}

// ParseReferenceFile reads a user-supplied reference classification. JSON
// files may contain an array of strings, an array of [code, label] pairs
// (the NACE layout) or an array of {code, label} objects.
func ParseReferenceFile(path string, opts ReferenceParseOptions) ([]ReferenceEntry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseReferenceColumns(path, ',', opts)
	case ".tsv":
		return parseReferenceColumns(path, '\t', opts)
	case ".json":
		return parseJSONReference(path)
	default:
		lines, err := parseLines(path)
		if err != nil {
			return nil, err
		}
		return labelsToEntries(lines), nil
	}
}

func labelsToEntries(labels []string) []ReferenceEntry {
	entries := make([]ReferenceEntry, 0, len(labels))
	for _, label := range UniqueNormalized(labels) {
		entries = append(entries, ReferenceEntry{Label: label})
	}
	return entries
}

func parseLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func parseJSONStrings(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	cleaned := out[:0]
	for _, s := range out {
		if s = cleanCell(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned, nil
}

func parseJSONReference(path string) ([]ReferenceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return DecodeReferenceJSON(data)
}

// DecodeReferenceJSON decodes the three JSON layouts used for reference
// classifications: plain labels, [code, label] pairs and {code, label}
// objects.
func DecodeReferenceJSON(data []byte) ([]ReferenceEntry, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode reference: %w", err)
	}
	entries := make([]ReferenceEntry, 0, len(raw))
	for i, msg := range raw {
		var label string
		if err := json.Unmarshal(msg, &label); err == nil {
			if label = cleanCell(label); label != "" {
				entries = append(entries, ReferenceEntry{Label: label})
			}
			continue
		}
		var pair []string
		if err := json.Unmarshal(msg, &pair); err == nil {
			if len(pair) < 2 {
				return nil, fmt.Errorf("reference entry %d: expected [code, label] pair", i)
			}
			entries = append(entries, ReferenceEntry{Code: cleanCell(pair[0]), Label: cleanCell(pair[1])})
			continue
		}
		var obj ReferenceEntry
		if err := json.Unmarshal(msg, &obj); err != nil {
			return nil, fmt.Errorf("reference entry %d: %w", i, err)
		}
		obj.Code = cleanCell(obj.Code)
		obj.Label = cleanCell(obj.Label)
		if obj.Label != "" {
			entries = append(entries, obj)
		}
	}
	if len(entries) == 0 {
		return nil, errors.New("reference contains no entries")
	}
	return entries, nil
}

func parseInputColumn(path string, comma rune, opts InputParseOptions) ([]string, error) {
	rows, header, err := readDelimited(path, comma)
	if err != nil {
		return nil, err
	}
	col, start, err := resolveColumn(header, opts.Column, inputColumnCandidates)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows)-start)
	for _, row := range rows[start:] {
		if col >= len(row) {
			continue
		}
		if value := cleanCell(row[col]); value != "" {
			out = append(out, value)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no inputs found in %s", filepath.Base(path))
	}
	return out, nil
}

func parseReferenceColumns(path string, comma rune, opts ReferenceParseOptions) ([]ReferenceEntry, error) {
	rows, header, err := readDelimited(path, comma)
	if err != nil {
		return nil, err
	}
	labelCol, start, err := resolveColumn(header, opts.LabelColumn, labelColumnCandidates)
	if err != nil {
		return nil, err
	}
	codeCol := -1
	if strings.TrimSpace(opts.CodeColumn) != "" {
		var codeStart int
		codeCol, codeStart, err = resolveColumn(header, opts.CodeColumn, nil)
		if err != nil {
			return nil, err
		}
		if codeStart > start {
			start = codeStart
		}
	} else if idx := findColumn(header, codeColumnCandidates); idx >= 0 && idx != labelCol {
		codeCol = idx
	}
	seen := make(map[string]struct{})
	entries := make([]ReferenceEntry, 0, len(rows)-start)
	for _, row := range rows[start:] {
		if labelCol >= len(row) {
			continue
		}
		label := cleanCell(row[labelCol])
		if label == "" {
			continue
		}
		key := strings.ToLower(NormalizeText(label))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		entry := ReferenceEntry{Label: label}
		if codeCol >= 0 && codeCol < len(row) {
			entry.Code = cleanCell(row[codeCol])
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no reference entries found in %s", filepath.Base(path))
	}
	return entries, nil
}

func readDelimited(path string, comma rune) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", filepath.Base(path))
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	return rows, header, nil
}

// resolveColumn picks a column by explicit name or #index, falling back to
// the candidate header names and finally to the first column. The returned
// start index skips the header row when one was matched.
func resolveColumn(header []string, explicit string, candidates []string) (int, int, error) {
	trimmed := strings.TrimSpace(explicit)
	if trimmed != "" {
		for i, col := range header {
			if strings.EqualFold(col, trimmed) {
				return i, 1, nil
			}
		}
		if strings.HasPrefix(trimmed, "#") {
			idx, err := parseColumnIndex(trimmed)
			if err != nil {
				return -1, 0, err
			}
			if idx >= len(header) {
				return -1, 0, fmt.Errorf("column index %s is out of range", trimmed)
			}
			return idx, 0, nil
		}
		return -1, 0, fmt.Errorf("column %q not found", explicit)
	}
	if col := findColumn(header, candidates); col >= 0 {
		return col, 1, nil
	}
	if len(header) == 0 {
		return -1, 0, errors.New("no usable column found")
	}
	return 0, 0, nil
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}
