package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/pkg/logger"
)

// respondError maps the pipeline error taxonomy onto HTTP statuses.
// Anything unrecognized is a 500 with a generic message so internal
// details never leak to clients.
func respondError(c *fiber.Ctx, err error) error {
	var valErr *errs.ValidationError
	if errors.As(err, &valErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": valErr.Message,
		})
	}

	var nfErr *errs.NotFoundError
	if errors.As(err, &nfErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": nfErr.Error(),
		})
	}

	var cfgErr *errs.ConfigurationError
	if errors.As(err, &cfgErr) {
		logger.Error("Service misconfigured", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": cfgErr.Error(),
		})
	}

	var extErr *errs.ExternalServiceError
	if errors.As(err, &extErr) {
		logger.Error("External service failure",
			zap.String("service", extErr.Service),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   extErr.Service + " service failed",
			"details": extErr.Err.Error(),
		})
	}

	logger.Error("Unhandled error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal server error",
		"suggestion": "Make sure the document was embedded first, and try again.",
	})
}
