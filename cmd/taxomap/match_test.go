package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomapping/taxomap/taxomap"
)

func TestResolveOutputPathDefaultsToCSVDir(t *testing.T) {
	path, err := resolveOutputPath("", "", taxomap.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "csv", filepath.Base(filepath.Dir(path)))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "mapping_"), path)
	assert.Equal(t, ".csv", filepath.Ext(path))
}

func TestResolveOutputPathFormatExtensions(t *testing.T) {
	for format, ext := range map[taxomap.OutputFormat]string{
		taxomap.FormatJSON:  ".json",
		taxomap.FormatTable: ".txt",
	} {
		path, err := resolveOutputPath("", "out", format)
		require.NoError(t, err)
		assert.Equal(t, ext, filepath.Ext(path), format)
	}
}

func TestResolveOutputPathExplicitFileWins(t *testing.T) {
	path, err := resolveOutputPath("my_mapping.csv", "ignored", taxomap.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "my_mapping.csv", filepath.Base(path))
}

func TestMatchCommandOutputDirDefault(t *testing.T) {
	cmd := newMatchCommand(&rootOptions{})
	flag := cmd.Flags().Lookup("output-dir")
	require.NotNil(t, flag)
	assert.Equal(t, "csv", flag.DefValue)
}
