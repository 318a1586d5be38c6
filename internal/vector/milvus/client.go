// Package milvus adapts the vector database to the pipeline's
// namespace-scoped contract. A namespace maps to a Milvus partition,
// which gives upsert, similarity search and delete-all the isolation
// the ingestion and teardown flows rely on.
package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/luminai/backend/pkg/logger"
)

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

// FragmentVector is one stored fragment: deterministic ID, embedding
// and the original text plus ownership fields.
type FragmentVector struct {
	ID        string
	Embedding []float32
	Text      string
	ClientID  string
	FileName  string
	Timestamp time.Time
}

type RetrievedChunk struct {
	FragmentID string
	Text       string
	Score      float32
}

func NewClient(endpoint, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Document fragment embeddings, one partition per namespace",
		Fields: []*entity.Field{
			{
				Name:       "fragment_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
			{
				Name:     "client_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "file_name",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "timestamp",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))
	return nil
}

// Upsert writes fragments into namespace, creating the partition on
// demand. Fragment IDs are deterministic, so re-ingesting a document
// overwrites in place and the whole call is safe to retry.
func (m *Client) Upsert(ctx context.Context, ns string, fragments []FragmentVector) error {
	if len(fragments) == 0 {
		return nil
	}

	has, err := m.client.HasPartition(ctx, m.collectionName, ns)
	if err != nil {
		return fmt.Errorf("failed to check partition: %w", err)
	}
	if !has {
		if err := m.client.CreatePartition(ctx, m.collectionName, ns); err != nil {
			return fmt.Errorf("failed to create partition: %w", err)
		}
		if err := m.client.LoadPartitions(ctx, m.collectionName, []string{ns}, false); err != nil {
			return fmt.Errorf("failed to load partition: %w", err)
		}
	}

	ids := make([]string, len(fragments))
	embeddings := make([][]float32, len(fragments))
	texts := make([]string, len(fragments))
	clientIDs := make([]string, len(fragments))
	fileNames := make([]string, len(fragments))
	timestamps := make([]int64, len(fragments))

	for i, f := range fragments {
		ids[i] = f.ID
		embeddings[i] = f.Embedding
		texts[i] = f.Text
		clientIDs[i] = f.ClientID
		fileNames[i] = f.FileName
		timestamps[i] = f.Timestamp.Unix()
	}

	_, err = m.client.Upsert(
		ctx,
		m.collectionName,
		ns,
		entity.NewColumnVarChar("fragment_id", ids),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnVarChar("client_id", clientIDs),
		entity.NewColumnVarChar("file_name", fileNames),
		entity.NewColumnInt64("timestamp", timestamps),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fragments: %w", err)
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Fragments upserted",
		zap.String("namespace", ns),
		zap.Int("count", len(fragments)),
	)
	return nil
}

// Query returns up to topK fragments from namespace ranked by
// similarity. A missing or empty namespace yields zero chunks, not an
// error.
func (m *Client) Query(ctx context.Context, ns string, queryEmbedding []float32, topK int) ([]RetrievedChunk, error) {
	has, err := m.client.HasPartition(ctx, m.collectionName, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to check partition: %w", err)
	}
	if !has {
		return nil, nil
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{ns},
		"",
		[]string{"fragment_id", "text"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var chunks []RetrievedChunk
	for _, sr := range searchResult {
		idCol := sr.Fields.GetColumn("fragment_id")
		textCol := sr.Fields.GetColumn("text")

		for i := 0; i < sr.ResultCount; i++ {
			id, _ := idCol.Get(i)
			text, _ := textCol.Get(i)

			chunks = append(chunks, RetrievedChunk{
				FragmentID: id.(string),
				Text:       text.(string),
				Score:      sr.Scores[i],
			})
		}
	}

	logger.Info("Vector search completed",
		zap.String("namespace", ns),
		zap.Int("topK", topK),
		zap.Int("results", len(chunks)),
	)

	return chunks, nil
}

// DeleteNamespace drops the namespace's partition and reports whether
// one existed. Deleting a missing namespace is not an error.
func (m *Client) DeleteNamespace(ctx context.Context, ns string) (bool, error) {
	has, err := m.client.HasPartition(ctx, m.collectionName, ns)
	if err != nil {
		return false, fmt.Errorf("failed to check partition: %w", err)
	}
	if !has {
		return false, nil
	}

	// A loaded partition cannot be dropped.
	if err := m.client.ReleasePartitions(ctx, m.collectionName, []string{ns}); err != nil {
		logger.Warn("Failed to release partition before drop",
			zap.String("namespace", ns),
			zap.Error(err),
		)
	}

	if err := m.client.DropPartition(ctx, m.collectionName, ns); err != nil {
		return false, fmt.Errorf("failed to drop partition: %w", err)
	}

	logger.Info("Namespace deleted", zap.String("namespace", ns))
	return true, nil
}
