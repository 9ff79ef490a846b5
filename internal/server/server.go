// Package server exposes the mapping engine over HTTP so other tools can
// request matches without shelling out to the CLI.
package server

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"ecomapping/taxomap/taxomap"
	"ecomapping/taxomap/taxomap/refdata"
)

// Server wires the mapper into a fiber application.
type Server struct {
	app    *fiber.App
	mapper *taxomap.Mapper
	logger zerolog.Logger

	// refMu guards the per-name cache of embedded references and the
	// current selection. Each registry classification is embedded once and
	// reused for the life of the process.
	refMu   sync.Mutex
	refs    map[string]*taxomap.Reference
	current *taxomap.Reference
}

// New builds the HTTP server around an initialized mapper.
func New(mapper *taxomap.Mapper, logger zerolog.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "taxomap",
			DisableStartupMessage: true,
		}),
		mapper: mapper,
		logger: logger,
		refs:   make(map[string]*taxomap.Reference),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(s.requestLogger)
	s.app.Get("/healthz", s.handleHealth)
	api := s.app.Group("/api/v1")
	api.Get("/references", s.handleReferences)
	api.Post("/match", s.handleMatch)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	err := c.Next()
	s.logger.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Msg("request")
	return err
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("http server listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber application for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// resolveReference returns the embedded snapshot for the requested registry
// reference, embedding it on first use and reusing it afterwards. An empty
// name keeps the current reference. The returned snapshot is what the request
// must match against, regardless of later swaps.
func (s *Server) resolveReference(ctx context.Context, name string) (*taxomap.Reference, error) {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	if name == "" {
		if s.current == nil {
			// A reference preloaded at startup lives on the mapper.
			s.current = s.mapper.CurrentReference()
		}
		if s.current.Size() == 0 {
			return nil, taxomap.ErrNoReference
		}
		return s.current, nil
	}
	canonical, ok := refdata.Resolve(name)
	if !ok {
		return nil, refdata.ErrUnknownReference
	}
	ref, ok := s.refs[canonical]
	if !ok {
		entries, err := refdata.Load(canonical)
		if err != nil {
			return nil, err
		}
		ref, err = s.mapper.EmbedReference(ctx, canonical, entries)
		if err != nil {
			return nil, err
		}
		s.refs[canonical] = ref
	}
	s.current = ref
	s.mapper.SetReference(ref)
	return ref, nil
}
