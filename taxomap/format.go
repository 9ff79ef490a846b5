package taxomap

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteResults renders rows in the requested format to w. The code column is
// only emitted when the reference classification carries codes (NACE-style).
func WriteResults(w io.Writer, rows []MappingRow, format OutputFormat) error {
	switch format {
	case FormatCSV, "":
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatTable:
		return writeTable(w, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResultsFile writes rows to path, creating parent directories.
func WriteResultsFile(path string, rows []MappingRow, format OutputFormat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()
	return WriteResults(f, rows, format)
}

func hasCodes(rows []MappingRow) bool {
	for _, row := range rows {
		for _, g := range row.Guesses {
			if g.Code != "" {
				return true
			}
		}
	}
	return false
}

func writeCSV(w io.Writer, rows []MappingRow) error {
	writer := csv.NewWriter(w)
	withCodes := hasCodes(rows)
	header := []string{"input", "rank", "label", "similarity"}
	if withCodes {
		header = []string{"input", "rank", "code", "label", "similarity"}
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		for _, g := range row.Guesses {
			record := []string{row.Input, fmt.Sprintf("%d", g.Rank)}
			if withCodes {
				record = append(record, g.Code)
			}
			record = append(record, g.Label, formatScore(g.Similarity))
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("write row for %q: %w", row.Input, err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, rows []MappingRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, rows []MappingRow) error {
	withCodes := hasCodes(rows)
	header := []string{"input", "rank", "label", "similarity"}
	if withCodes {
		header = []string{"input", "rank", "code", "label", "similarity"}
	}
	table := [][]string{header}
	for _, row := range rows {
		for _, g := range row.Guesses {
			record := []string{row.Input, fmt.Sprintf("%d", g.Rank)}
			if withCodes {
				record = append(record, g.Code)
			}
			record = append(record, g.Label, formatScore(g.Similarity))
			table = append(table, record)
		}
	}
	widths := make([]int, len(header))
	for _, record := range table {
		for i, cell := range record {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for ri, record := range table {
		cells := make([]string, len(record))
		for i, cell := range record {
			cells[i] = pad(cell, widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
		if ri == 0 {
			seps := make([]string, len(record))
			for i := range record {
				seps[i] = strings.Repeat("-", widths[i])
			}
			if _, err := fmt.Fprintln(w, strings.Join(seps, "  ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func formatScore(v float32) string {
	return fmt.Sprintf("%.3f", v)
}
