package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ecomapping/taxomap/internal/server"
	"ecomapping/taxomap/taxomap"
	"ecomapping/taxomap/taxomap/refdata"
)

type serveOptions struct {
	addr      string
	reference string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mapping HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "Reference classification to preload")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	logger := newLogger(root.debug)
	cfg, err := taxomap.LoadConfig(root.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
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

	preload := opts.reference
	if preload == "" {
		preload = cfg.Reference
	}
	if preload != "" {
		canonical, ok := refdata.Resolve(preload)
		if !ok {
			return fmt.Errorf("%w: %q", refdata.ErrUnknownReference, preload)
		}
		entries, err := refdata.Load(canonical)
		if err != nil {
			return err
		}
		if err := mapper.LoadReference(ctx, canonical, entries); err != nil {
			return fmt.Errorf("preload reference: %w", err)
		}
	}

	srv := server.New(mapper, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(opts.addr)
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		return srv.Shutdown()
	}
}
