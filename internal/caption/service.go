// Package caption produces short descriptions of uploaded images by
// sending them to a vision-capable completion model.
package caption

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/metrics"
	"github.com/luminai/backend/pkg/config"
	"github.com/luminai/backend/pkg/logger"
	"github.com/luminai/backend/pkg/retry"
)

// CaptionPrompt is the instruction sent alongside the image.
const CaptionPrompt = "Please describe the main content and key insights of this image in 2-3 lines."

type BlobStore interface {
	Read(name string) ([]byte, error)
	Exists(name string) bool
}

type Captioner interface {
	ValidateConfig() error
	Caption(ctx context.Context, imageDataURI, prompt string) (string, error)
}

type Service struct {
	blobs     BlobStore
	captioner Captioner
	cfg       config.CaptionConfig
}

func NewService(blobs BlobStore, captioner Captioner, cfg config.CaptionConfig) *Service {
	return &Service{blobs: blobs, captioner: captioner, cfg: cfg}
}

// Describe captions the named image. Vision models occasionally claim
// the image is missing even when it is attached, so responses
// containing the rejection phrase are retried like failures.
func (s *Service) Describe(ctx context.Context, fileName string) (string, error) {
	if err := s.captioner.ValidateConfig(); err != nil {
		return "", err
	}
	if fileName == "" {
		return "", errs.Validationf("fileName is required")
	}
	if !s.blobs.Exists(fileName) {
		return "", errs.NotFound("image", fileName)
	}

	data, err := s.blobs.Read(fileName)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	mimeType := detectImageType(fileName, data)
	if mimeType == "" {
		return "", errs.Validationf("unsupported or missing image type")
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	cfg := retry.Config{
		MaxAttempts: s.cfg.MaxAttempts,
		Delay:       time.Duration(s.cfg.DelaySec) * time.Second,
		Logger:      logger.GetLogger(),
	}
	rejection := strings.ToLower(s.cfg.RejectionPhrase)

	caption, err := retry.DoAccepted(ctx, cfg, func() (string, error) {
		metrics.CompletionAttempts.WithLabelValues("caption").Inc()
		out, err := s.captioner.Caption(ctx, dataURI, CaptionPrompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(out), nil
	}, func(out string) bool {
		return out != "" && !strings.Contains(strings.ToLower(out), rejection)
	})
	if err != nil {
		logger.Error("Caption generation exhausted all attempts",
			zap.String("file_name", fileName),
			zap.Error(err),
		)
		return "", errs.External("caption", err)
	}

	return caption, nil
}

// detectImageType prefers the file extension and falls back to
// sniffing the payload. Returns "" for anything that is not an image.
func detectImageType(fileName string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(fileName)); strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}
