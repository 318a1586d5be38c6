package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/luminai/backend/internal/summary"
)

type Summarizer interface {
	Summarize(ctx context.Context, clientID, fileName, style string) (*summary.Response, error)
}

type SummaryHandler struct {
	orchestrator Summarizer
}

func NewSummaryHandler(orchestrator Summarizer) *SummaryHandler {
	return &SummaryHandler{orchestrator: orchestrator}
}

// GenerateSummary runs a full summarization pass. A document with no
// retrievable content is a 200 with a warning, not an error: the
// request succeeded, there was just nothing to summarize.
func (h *SummaryHandler) GenerateSummary(c *fiber.Ctx) error {
	var req struct {
		ClientID string `json:"clientId"`
		FileName string `json:"fileName"`
		Type     string `json:"type"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ClientID == "" || req.FileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "clientId and fileName are required",
		})
	}

	resp, err := h.orchestrator.Summarize(c.Context(), req.ClientID, req.FileName, req.Type)
	if err != nil {
		return respondError(c, err)
	}

	if resp.Warning != "" {
		return c.JSON(fiber.Map{
			"success":  false,
			"warning":  resp.Warning,
			"metadata": resp.Metadata,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"summary":  resp.Summary,
			"metadata": resp.Metadata,
		},
	})
}
