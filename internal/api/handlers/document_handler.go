package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/luminai/backend/internal/ingestion"
	"github.com/luminai/backend/internal/storage/models"
	"github.com/luminai/backend/pkg/logger"
)

type DocumentBlobStore interface {
	Save(name string, data []byte) error
}

type DocumentMetadataStore interface {
	PutDocument(doc *models.DocumentMetadata) error
	LatestDocumentForClient(clientID string) (*models.DocumentMetadata, error)
}

type DocumentIngestor interface {
	IngestDocument(ctx context.Context, clientID, fileName string) (*ingestion.Result, error)
}

type DocumentHandler struct {
	blobs     DocumentBlobStore
	metadata  DocumentMetadataStore
	processor DocumentIngestor
}

func NewDocumentHandler(blobs DocumentBlobStore, metadata DocumentMetadataStore, processor DocumentIngestor) *DocumentHandler {
	return &DocumentHandler{
		blobs:     blobs,
		metadata:  metadata,
		processor: processor,
	}
}

// UploadDocument stores the raw file and its metadata. Uploading the
// same file name again replaces the previous owner record.
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	clientID := c.FormValue("clientId")
	if clientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "clientId is required",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	if err := h.blobs.Save(fileHeader.Filename, data); err != nil {
		logger.Error("Failed to save document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save document",
		})
	}

	doc := &models.DocumentMetadata{
		FileName:   fileHeader.Filename,
		ClientID:   clientID,
		UploadedAt: time.Now().UTC(),
	}
	if err := h.metadata.PutDocument(doc); err != nil {
		logger.Error("Failed to save document metadata", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save document metadata",
		})
	}

	logger.Info("Document uploaded",
		zap.String("file_name", doc.FileName),
		zap.String("client_id", clientID),
	)

	return c.JSON(fiber.Map{
		"success":  true,
		"fileName": doc.FileName,
		"clientId": clientID,
	})
}

// LatestDocument returns the most recently uploaded document for a
// client, so the frontend can resume without tracking state itself.
func (h *DocumentHandler) LatestDocument(c *fiber.Ctx) error {
	var req struct {
		ClientID string `json:"clientId"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ClientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "clientId is required",
		})
	}

	doc, err := h.metadata.LatestDocumentForClient(req.ClientID)
	if err != nil {
		logger.Error("Failed to look up latest document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up latest document",
		})
	}
	if doc == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No documents found for this client",
		})
	}

	return c.JSON(fiber.Map{
		"fileName":   doc.FileName,
		"uploadedAt": doc.UploadedAt,
	})
}

func (h *DocumentHandler) IngestDocument(c *fiber.Ctx) error {
	var req struct {
		ClientID string `json:"clientId"`
		FileName string `json:"fileName"`
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

	result, err := h.processor.IngestDocument(c.Context(), req.ClientID, req.FileName)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"namespace":     result.Namespace,
		"fragmentCount": result.FragmentCount,
	})
}
