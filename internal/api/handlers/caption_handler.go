package handlers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luminai/backend/internal/storage/models"
	"github.com/luminai/backend/pkg/logger"
)

type ImageBlobStore interface {
	Save(name string, data []byte) error
}

type ImageMetadataStore interface {
	PutImage(img *models.ImageMetadata) error
}

type ImageCaptioner interface {
	Describe(ctx context.Context, fileName string) (string, error)
}

type CaptionHandler struct {
	blobs     ImageBlobStore
	metadata  ImageMetadataStore
	captioner ImageCaptioner
}

func NewCaptionHandler(blobs ImageBlobStore, metadata ImageMetadataStore, captioner ImageCaptioner) *CaptionHandler {
	return &CaptionHandler{
		blobs:     blobs,
		metadata:  metadata,
		captioner: captioner,
	}
}

// UploadImage stores an image under a collision-free generated name
// and returns that name for the follow-up caption request.
func (h *CaptionHandler) UploadImage(c *fiber.Ctx) error {
	clientID := c.FormValue("clientId")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded image", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded image",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded image", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded image",
		})
	}

	savedName := fmt.Sprintf("%d-%s%s",
		time.Now().UnixMilli(),
		uuid.New().String(),
		filepath.Ext(fileHeader.Filename),
	)

	if err := h.blobs.Save(savedName, data); err != nil {
		logger.Error("Failed to save image", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save image",
		})
	}

	img := &models.ImageMetadata{
		SavedName:    savedName,
		OriginalName: fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		ClientID:     clientID,
		UploadedAt:   time.Now().UTC(),
	}
	if err := h.metadata.PutImage(img); err != nil {
		logger.Error("Failed to save image metadata", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save image metadata",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"fileName": savedName,
	})
}

func (h *CaptionHandler) CaptionImage(c *fiber.Ctx) error {
	var req struct {
		FileName string `json:"fileName"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	caption, err := h.captioner.Describe(c.Context(), req.FileName)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"caption": caption,
	})
}
