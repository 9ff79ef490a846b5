package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ecomapping/taxomap/taxomap"
	"ecomapping/taxomap/taxomap/refdata"
)

type matchOptions struct {
	inputPath       string
	inputColumn     string
	reference       string
	referenceFile   string
	referenceColumn string
	codeColumn      string
	guesses         int
	minScore        float32
	outputPath      string
	outputDir       string
	format          string
	stdout          bool
}

func newMatchCommand(root *rootOptions) *cobra.Command {
	opts := &matchOptions{}
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Map an input list onto a reference classification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.inputPath, "input", "", "File with the texts to map (txt/csv/tsv/json)")
	cmd.Flags().StringVar(&opts.inputColumn, "input-column", "", "Column name or #index holding the input texts")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "Embedded reference classification (see 'taxomap refs')")
	cmd.Flags().StringVar(&opts.referenceFile, "reference-file", "", "User-supplied reference file (txt/csv/tsv/json)")
	cmd.Flags().StringVar(&opts.referenceColumn, "reference-column", "", "Column name or #index holding reference labels")
	cmd.Flags().StringVar(&opts.codeColumn, "reference-code-column", "", "Column name or #index holding reference codes")
	cmd.Flags().IntVar(&opts.guesses, "guesses", 0, "Number of guesses per input (default from config)")
	cmd.Flags().Float32Var(&opts.minScore, "min-score", 0, "Drop guesses below this similarity")
	cmd.Flags().StringVar(&opts.outputPath, "output", "", "Result file (default uses --output-dir/mapping_*.csv)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "csv", "Directory for results when --output is omitted")
	cmd.Flags().StringVar(&opts.format, "format", "csv", "Output format: csv, json or table")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Also print the result table to STDOUT")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runMatch(ctx context.Context, root *rootOptions, opts *matchOptions) error {
	logger := newLogger(root.debug)
	cfg, err := taxomap.LoadConfig(root.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	refName := strings.TrimSpace(opts.reference)
	if refName == "" {
		refName = cfg.Reference
	}
	if refName == "" && opts.referenceFile == "" {
		return errors.New("either --reference or --reference-file is required")
	}
	format := taxomap.OutputFormat(strings.ToLower(opts.format))

	embedder, err := taxomap.NewEmbedder(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	mapper, err := taxomap.NewMapper(embedder, cfg, logger)
	if err != nil {
		embedder.Close()
		return fmt.Errorf("init mapper: %w", err)
	}
	defer mapper.Close()

	entries, name, err := loadReference(refName, opts)
	if err != nil {
		return err
	}
	logger.Debug().Str("reference", name).Int("entries", len(entries)).Msg("embedding reference")
	if err := mapper.LoadReference(ctx, name, entries); err != nil {
		return fmt.Errorf("load reference: %w", err)
	}

	inputs, err := taxomap.ParseInputList(opts.inputPath, taxomap.InputParseOptions{Column: opts.inputColumn})
	if err != nil {
		return fmt.Errorf("read input list: %w", err)
	}
	if len(inputs) == 0 {
		return errors.New("input file does not contain any texts")
	}
	logger.Debug().Int("inputs", len(inputs)).Msg("embedding inputs")

	rows, err := mapper.MatchAllWithOptions(ctx, inputs, taxomap.MatchOptions{
		Guesses:  opts.guesses,
		MinScore: opts.minScore,
	})
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir, format)
	if err != nil {
		return err
	}
	if err := taxomap.WriteResultsFile(outputPath, rows, format); err != nil {
		return err
	}
	logger.Info().Str("path", outputPath).Int("inputs", len(rows)).Msg("mapping written")

	if opts.stdout {
		if err := taxomap.WriteResults(os.Stdout, rows, taxomap.FormatTable); err != nil {
			return err
		}
	}
	return nil
}

// loadReference resolves the reference either from the embedded registry or
// from a user-supplied file. A file takes precedence when both are given.
func loadReference(name string, opts *matchOptions) ([]taxomap.ReferenceEntry, string, error) {
	if opts.referenceFile != "" {
		entries, err := taxomap.ParseReferenceFile(opts.referenceFile, taxomap.ReferenceParseOptions{
			CodeColumn:  opts.codeColumn,
			LabelColumn: opts.referenceColumn,
		})
		if err != nil {
			return nil, "", fmt.Errorf("read reference file: %w", err)
		}
		return entries, filepath.Base(opts.referenceFile), nil
	}
	canonical, ok := refdata.Resolve(name)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", refdata.ErrUnknownReference, name)
	}
	entries, err := refdata.Load(canonical)
	if err != nil {
		return nil, "", err
	}
	return entries, canonical, nil
}

func resolveOutputPath(path, dir string, format taxomap.OutputFormat) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	ext := "csv"
	switch format {
	case taxomap.FormatJSON:
		ext = "json"
	case taxomap.FormatTable:
		ext = "txt"
	}
	filename := fmt.Sprintf("mapping_%s.%s", time.Now().Format("20060102150405"), ext)
	return filepath.Join(absDir, filename), nil
}
