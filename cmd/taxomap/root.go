package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "taxomap",
		Short: "Semantic mapping between classification lists",
		Long: `taxomap matches a list of labels (products, activities, elementary flows)
against a reference classification used in industrial ecology by embedding
both lists with a sentence-embedding model and ranking reference entries by
cosine similarity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newMatchCommand(opts))
	rootCmd.AddCommand(newRefsCommand())
	rootCmd.AddCommand(newServeCommand(opts))
	return rootCmd
}

// newLogger builds the console logger shared by all subcommands. A .env file
// next to the binary provides API keys for the remote embedding backend.
func newLogger(debug bool) zerolog.Logger {
	_ = godotenv.Load()
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}
