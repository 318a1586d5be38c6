package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/luminai/backend/internal/quiz"
)

type QuizGenerator interface {
	Generate(ctx context.Context, summary string) ([]quiz.Question, error)
}

type QuizHandler struct {
	generator QuizGenerator
}

func NewQuizHandler(generator QuizGenerator) *QuizHandler {
	return &QuizHandler{generator: generator}
}

func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req struct {
		Summary string `json:"summary"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	questions, err := h.generator.Generate(c.Context(), req.Summary)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"quiz":    questions,
	})
}
