package taxomap

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows(withCodes bool) []MappingRow {
	code := func(c string) string {
		if withCodes {
			return c
		}
		return ""
	}
	return []MappingRow{
		{
			Input: "steel beams",
			Guesses: []Guess{
				{Rank: 1, Code: code("24.10"), Label: "Manufacture of basic iron and steel", Similarity: 0.91},
				{Rank: 2, Code: code("25.11"), Label: "Manufacture of metal structures", Similarity: 0.84},
			},
		},
		{
			Input: "cow milk",
			Guesses: []Guess{
				{Rank: 1, Code: code("01.41"), Label: "Raising of dairy cattle", Similarity: 0.88},
			},
		},
	}
}

func TestWriteResultsCSVWithCodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, sampleRows(true), FormatCSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"input", "rank", "code", "label", "similarity"}, records[0])
	assert.Equal(t, []string{"steel beams", "1", "24.10", "Manufacture of basic iron and steel", "0.910"}, records[1])
	assert.Equal(t, []string{"cow milk", "1", "01.41", "Raising of dairy cattle", "0.880"}, records[3])
}

func TestWriteResultsCSVWithoutCodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, sampleRows(false), FormatCSV))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"input", "rank", "label", "similarity"}, records[0])
	for _, record := range records {
		assert.Len(t, record, 4)
	}
}

func TestWriteResultsJSONRoundTrips(t *testing.T) {
	rows := sampleRows(true)
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, rows, FormatJSON))
	var decoded []MappingRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rows, decoded)
}

func TestWriteResultsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, sampleRows(true), FormatTable))
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines[0], "input")
	assert.Contains(t, lines[0], "similarity")
	assert.True(t, strings.HasPrefix(lines[1], "-"), "separator under header")
	assert.Contains(t, out, "Raising of dairy cattle")
}

func TestWriteResultsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteResults(&buf, sampleRows(false), OutputFormat("xml")))
}

func TestWriteResultsDefaultsToCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, sampleRows(false), ""))
	assert.True(t, strings.HasPrefix(buf.String(), "input,rank,label,similarity"))
}
