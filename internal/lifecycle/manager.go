// Package lifecycle tears down a document's single-use state once a
// summarization pass has completed: the vector namespace, the raw
// blob and the metadata record.
package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/luminai/backend/internal/metrics"
	"github.com/luminai/backend/internal/storage/models"
	"github.com/luminai/backend/pkg/logger"
)

type NamespaceDeleter interface {
	DeleteNamespace(ctx context.Context, ns string) (bool, error)
}

type MetadataStore interface {
	GetDocument(fileName string) (*models.DocumentMetadata, error)
	DeleteDocument(fileName string) (bool, error)
}

type BlobDeleter interface {
	Delete(name string) (bool, error)
}

type Manager struct {
	vectors  NamespaceDeleter
	metadata MetadataStore
	blobs    BlobDeleter
}

type Result struct {
	NamespaceDeleted bool
	FilesDeleted     bool
}

func NewManager(vectors NamespaceDeleter, metadata MetadataStore, blobs BlobDeleter) *Manager {
	return &Manager{
		vectors:  vectors,
		metadata: metadata,
		blobs:    blobs,
	}
}

// Teardown deletes the namespace and, when clientID owns the document,
// its blob and metadata record. Every step is best-effort: failures
// are recorded in the result flags, never escalated, and calling
// Teardown twice is safe — the second call reports false flags.
func (m *Manager) Teardown(ctx context.Context, ns, clientID, fileName string) Result {
	var result Result

	deleted, err := m.vectors.DeleteNamespace(ctx, ns)
	if err != nil {
		logger.Warn("Namespace deletion failed",
			zap.String("namespace", ns),
			zap.Error(err),
		)
		metrics.Teardowns.WithLabelValues("namespace", "error").Inc()
	} else {
		result.NamespaceDeleted = deleted
		if deleted {
			metrics.Teardowns.WithLabelValues("namespace", "deleted").Inc()
		} else {
			metrics.Teardowns.WithLabelValues("namespace", "absent").Inc()
		}
	}

	result.FilesDeleted = m.deleteFiles(clientID, fileName)
	if result.FilesDeleted {
		metrics.Teardowns.WithLabelValues("files", "deleted").Inc()
	} else {
		metrics.Teardowns.WithLabelValues("files", "kept").Inc()
	}

	logger.Info("Teardown finished",
		zap.String("namespace", ns),
		zap.Bool("namespace_deleted", result.NamespaceDeleted),
		zap.Bool("files_deleted", result.FilesDeleted),
	)

	return result
}

// deleteFiles removes the blob and metadata record only when the
// stored owner matches the requesting client. A missing record means
// the document was already cleaned up; that is not an error.
func (m *Manager) deleteFiles(clientID, fileName string) bool {
	meta, err := m.metadata.GetDocument(fileName)
	if err != nil {
		logger.Warn("Metadata read failed during teardown",
			zap.String("file_name", fileName),
			zap.Error(err),
		)
		return false
	}
	if meta == nil {
		return false
	}
	if meta.ClientID != clientID {
		logger.Warn("Teardown ownership mismatch, keeping files",
			zap.String("file_name", fileName),
			zap.String("requesting_client", clientID),
		)
		return false
	}

	if _, err := m.blobs.Delete(fileName); err != nil {
		logger.Warn("Blob deletion failed",
			zap.String("file_name", fileName),
			zap.Error(err),
		)
		return false
	}

	deleted, err := m.metadata.DeleteDocument(fileName)
	if err != nil {
		logger.Warn("Metadata deletion failed",
			zap.String("file_name", fileName),
			zap.Error(err),
		)
		return false
	}

	return deleted
}
