package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ecomapping/taxomap/taxomap"
	"ecomapping/taxomap/taxomap/refdata"
)

type matchRequest struct {
	Inputs    []string `json:"inputs"`
	Reference string   `json:"reference,omitempty"`
	Guesses   int      `json:"guesses,omitempty"`
	MinScore  float32  `json:"min_score,omitempty"`
}

type matchResponse struct {
	Reference string               `json:"reference"`
	Rows      []taxomap.MappingRow `json:"rows"`
}

type referenceInfo struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"reference": s.mapper.ReferenceName(),
		"entries":   s.mapper.ReferenceSize(),
	})
}

func (s *Server) handleReferences(c *fiber.Ctx) error {
	names := refdata.Names()
	out := make([]referenceInfo, 0, len(names))
	for _, name := range names {
		size, err := refdata.Size(name)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
		}
		out = append(out, referenceInfo{Name: name, Entries: size})
	}
	return c.JSON(out)
}

func (s *Server) handleMatch(c *fiber.Ctx) error {
	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if len(req.Inputs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: taxomap.ErrEmptyInputs.Error()})
	}
	ctx := c.Context()
	ref, err := s.resolveReference(ctx, req.Reference)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, refdata.ErrUnknownReference) || errors.Is(err, taxomap.ErrNoReference) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(errorResponse{Error: err.Error()})
	}
	rows, err := s.mapper.MatchReference(ctx, req.Inputs, ref, taxomap.MatchOptions{
		Guesses:  req.Guesses,
		MinScore: req.MinScore,
	})
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, taxomap.ErrEmptyInputs) || errors.Is(err, taxomap.ErrNoReference) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(errorResponse{Error: err.Error()})
	}
	return c.JSON(matchResponse{
		Reference: ref.Name(),
		Rows:      rows,
	})
}
