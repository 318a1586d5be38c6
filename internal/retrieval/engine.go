// Package retrieval pulls a document's most relevant fragments back
// out of the vector index and repacks them into summarization-sized
// groups with sentence-safe truncation.
package retrieval

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/metrics"
	"github.com/luminai/backend/internal/vector/milvus"
	"github.com/luminai/backend/pkg/logger"
)

// AnalyticalQuery is the fixed query used for every summarization
// retrieval pass.
const AnalyticalQuery = "What is the key message in this document? Return chunks that explain the summary of the main content of the document."

const (
	DefaultTopK       = 20
	DefaultGroupLimit = 1800
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorSearcher interface {
	Query(ctx context.Context, ns string, queryEmbedding []float32, topK int) ([]milvus.RetrievedChunk, error)
}

type Engine struct {
	embedder   Embedder
	vectors    VectorSearcher
	topK       int
	groupLimit int
}

type Result struct {
	Groups     []string
	ChunksUsed int
}

func NewEngine(embedder Embedder, vectors VectorSearcher, topK, groupLimit int) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if groupLimit <= 0 {
		groupLimit = DefaultGroupLimit
	}
	return &Engine{
		embedder:   embedder,
		vectors:    vectors,
		topK:       topK,
		groupLimit: groupLimit,
	}
}

func (e *Engine) GroupLimit() int { return e.groupLimit }

// Retrieve runs the similarity search for ns, deduplicates chunk texts
// and packs them into groups. Zero retrieved chunks yields a
// NoContentError so the caller can respond with a soft warning.
func (e *Engine) Retrieve(ctx context.Context, ns string) (*Result, error) {
	queryEmbedding, err := e.embedder.Embed(ctx, AnalyticalQuery)
	if err != nil {
		return nil, err
	}

	chunks, err := e.vectors.Query(ctx, ns, queryEmbedding, e.topK)
	if err != nil {
		return nil, err
	}

	metrics.RetrievedChunks.Observe(float64(len(chunks)))

	if len(chunks) == 0 {
		return nil, errs.NoContent(ns, AnalyticalQuery)
	}

	unique := dedupe(chunks)
	groups := PackGroups(unique, e.groupLimit)

	metrics.SummaryGroups.Observe(float64(len(groups)))

	logger.Info("Chunks retrieved and grouped",
		zap.String("namespace", ns),
		zap.Int("retrieved", len(chunks)),
		zap.Int("unique", len(unique)),
		zap.Int("groups", len(groups)),
	)

	return &Result{Groups: groups, ChunksUsed: len(unique)}, nil
}

// dedupe drops exact duplicate chunk texts, preserving first-seen
// order.
func dedupe(chunks []milvus.RetrievedChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	var unique []string
	for _, chunk := range chunks {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		unique = append(unique, text)
	}
	return unique
}

// PackGroups greedily concatenates chunks, separated by blank lines,
// into groups whose combined chunk length stays within limit. A chunk
// that would overflow the running buffer seals it and starts the next
// group; an oversized single chunk becomes its own group and is tamed
// later by truncation.
func PackGroups(chunks []string, limit int) []string {
	var groups []string
	buffer := ""

	for _, chunk := range chunks {
		if len(buffer)+len(chunk) > limit {
			if strings.TrimSpace(buffer) != "" {
				groups = append(groups, strings.TrimSpace(buffer))
			}
			buffer = chunk
		} else if buffer == "" {
			buffer = chunk
		} else {
			buffer += "\n\n" + chunk
		}
	}

	if strings.TrimSpace(buffer) != "" {
		groups = append(groups, strings.TrimSpace(buffer))
	}

	return groups
}

// TruncateAtLastSentence cuts text to at most maxLength characters,
// preferring the last sentence-terminating period within the bound.
// When no period exists in range the raw prefix is kept; nothing is
// ever inserted or reordered.
func TruncateAtLastSentence(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	truncated := text[:maxLength]
	lastPeriod := strings.LastIndex(truncated, ".")
	if lastPeriod != -1 {
		return truncated[:lastPeriod+1]
	}
	return truncated
}
