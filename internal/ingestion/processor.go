// Package ingestion turns an uploaded document into retrievable
// fragments: load the blob, extract text, fragment, embed in one
// batch, upsert under the document's namespace.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/extract"
	"github.com/luminai/backend/internal/metrics"
	"github.com/luminai/backend/internal/namespace"
	"github.com/luminai/backend/internal/splitter"
	"github.com/luminai/backend/internal/vector/milvus"
	"github.com/luminai/backend/pkg/logger"
	"github.com/luminai/backend/pkg/utils"
)

type BlobStore interface {
	Read(name string) ([]byte, error)
	Exists(name string) bool
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Upsert(ctx context.Context, ns string, fragments []milvus.FragmentVector) error
}

type Processor struct {
	blobs    BlobStore
	embedder Embedder
	vectors  VectorStore
	splitter *splitter.Splitter
}

type Result struct {
	Namespace     string
	FragmentCount int
}

func NewProcessor(blobs BlobStore, embedder Embedder, vectors VectorStore, split *splitter.Splitter) *Processor {
	return &Processor{
		blobs:    blobs,
		embedder: embedder,
		vectors:  vectors,
		splitter: split,
	}
}

// IngestDocument runs the whole sequence. It is not transactional: a
// failure during the upsert can leave a partially populated namespace,
// and re-running the same ingestion overwrites by fragment identity.
func (p *Processor) IngestDocument(ctx context.Context, clientID, fileName string) (*Result, error) {
	ns := namespace.Derive(clientID, fileName)

	logger.Info("Ingesting document",
		zap.String("file_name", fileName),
		zap.String("namespace", ns),
	)

	if !p.blobs.Exists(fileName) {
		return nil, errs.NotFound("document", fileName)
	}

	data, err := p.blobs.Read(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	text, err := extract.Text(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	fragments := p.splitter.Split(text)
	logger.Info("Document fragmented",
		zap.String("namespace", ns),
		zap.Int("fragments", len(fragments)),
	)

	if len(fragments) == 0 {
		// Nothing to embed; summarization will report NoContent.
		return &Result{Namespace: ns, FragmentCount: 0}, nil
	}

	embeddings, err := p.embedder.EmbedBatch(ctx, fragments)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(fragments) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(fragments))
	}

	vectors := make([]milvus.FragmentVector, 0, len(fragments))
	now := time.Now()
	for i, fragment := range fragments {
		vectors = append(vectors, milvus.FragmentVector{
			ID:        utils.HashString(fmt.Sprintf("%s_fragment_%d", ns, i)),
			Embedding: embeddings[i],
			Text:      fragment,
			ClientID:  clientID,
			FileName:  fileName,
			Timestamp: now,
		})
	}

	if err := p.vectors.Upsert(ctx, ns, vectors); err != nil {
		return nil, err
	}

	metrics.DocumentsIngested.Inc()
	metrics.FragmentsEmbedded.Add(float64(len(fragments)))

	logger.Info("Document ingested",
		zap.String("namespace", ns),
		zap.Int("fragments", len(fragments)),
	)

	return &Result{Namespace: ns, FragmentCount: len(fragments)}, nil
}
