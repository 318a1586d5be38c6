// Package summary drives the full summarization pass for one
// document: retrieval, per-group completion, assembly and the
// post-run teardown.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/lifecycle"
	"github.com/luminai/backend/internal/llm"
	"github.com/luminai/backend/internal/metrics"
	"github.com/luminai/backend/internal/namespace"
	"github.com/luminai/backend/internal/retrieval"
	"github.com/luminai/backend/pkg/config"
	"github.com/luminai/backend/pkg/logger"
)

const (
	StyleConcise  = "concise"
	StyleDetailed = "detailed"

	// FallbackSummary is returned when every group failed or produced
	// output too short to keep.
	FallbackSummary = "Unable to generate a summary for this document. The content may be too short or could not be processed."
)

type Retriever interface {
	Retrieve(ctx context.Context, ns string) (*retrieval.Result, error)
}

type Completer interface {
	ValidateConfig() error
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

type Teardowner interface {
	Teardown(ctx context.Context, ns, clientID, fileName string) lifecycle.Result
}

type Orchestrator struct {
	retriever Retriever
	completer Completer
	teardown  Teardowner
	cfg       config.SummaryConfig
	model     string
}

// Metadata describes one summarization pass. It is returned to the
// caller alongside the summary so the client can see how much of the
// document survived each stage.
type Metadata struct {
	ClientID           string    `json:"clientId"`
	FileName           string    `json:"fileName"`
	Namespace          string    `json:"namespace"`
	QueryUsed          string    `json:"queryUsed,omitempty"`
	ChunksUsed         int       `json:"chunksUsed"`
	SummarizedChunks   int       `json:"summarizedChunks"`
	GeneratedSummaries int       `json:"generatedSummaries"`
	Style              string    `json:"type"`
	Model              string    `json:"model"`
	Timestamp          time.Time `json:"timestamp"`
	NamespaceDeleted   bool      `json:"namespaceDeleted"`
	FilesDeleted       bool      `json:"filesDeleted"`
}

type Response struct {
	Summary  string
	Warning  string
	Metadata Metadata
}

func NewOrchestrator(retriever Retriever, completer Completer, teardown Teardowner, cfg config.SummaryConfig, model string) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		completer: completer,
		teardown:  teardown,
		cfg:       cfg,
		model:     model,
	}
}

// Summarize runs one pass over the document's embedded fragments.
// When no relevant content exists in the namespace the response
// carries a warning instead of a summary and no error is returned.
func (o *Orchestrator) Summarize(ctx context.Context, clientID, fileName, style string) (*Response, error) {
	if err := o.completer.ValidateConfig(); err != nil {
		return nil, err
	}
	if style == "" {
		style = StyleConcise
	}
	if style != StyleConcise && style != StyleDetailed {
		return nil, errs.Validationf("type must be %q or %q", StyleConcise, StyleDetailed)
	}

	ns := namespace.Derive(clientID, fileName)

	result, err := o.retriever.Retrieve(ctx, ns)
	if err != nil {
		var noContent *errs.NoContentError
		if errors.As(err, &noContent) {
			logger.Warn("No content retrieved for summarization",
				zap.String("namespace", ns),
			)
			return &Response{
				Warning: "No relevant content found. Make sure the document was embedded first.",
				Metadata: Metadata{
					ClientID:  clientID,
					FileName:  fileName,
					Namespace: ns,
					QueryUsed: noContent.Query,
					Style:     style,
					Model:     o.model,
					Timestamp: time.Now().UTC(),
				},
			}, nil
		}
		return nil, err
	}

	summaries := o.summarizeGroups(ctx, result.Groups, style)

	finalSummary := strings.Join(summaries, " ")
	switch {
	case len(summaries) == 0:
		finalSummary = FallbackSummary
		metrics.SummariesGenerated.WithLabelValues("fallback").Inc()
	case len(summaries) < len(result.Groups):
		metrics.SummariesGenerated.WithLabelValues("partial").Inc()
	default:
		metrics.SummariesGenerated.WithLabelValues("complete").Inc()
	}

	meta := Metadata{
		ClientID:           clientID,
		FileName:           fileName,
		Namespace:          ns,
		ChunksUsed:         result.ChunksUsed,
		SummarizedChunks:   len(result.Groups),
		GeneratedSummaries: len(summaries),
		Style:              style,
		Model:              o.model,
		Timestamp:          time.Now().UTC(),
	}

	if o.cfg.TeardownAfterRun {
		torn := o.teardown.Teardown(ctx, ns, clientID, fileName)
		meta.NamespaceDeleted = torn.NamespaceDeleted
		meta.FilesDeleted = torn.FilesDeleted
	}

	logger.Info("Summarization pass finished",
		zap.String("namespace", ns),
		zap.Int("chunks_used", result.ChunksUsed),
		zap.Int("groups", len(result.Groups)),
		zap.Int("generated", len(summaries)),
	)

	return &Response{Summary: finalSummary, Metadata: meta}, nil
}

// summarizeGroups runs the groups sequentially. A failed or too-short
// completion skips that group and the pass continues with the rest.
func (o *Orchestrator) summarizeGroups(ctx context.Context, groups []string, style string) []string {
	systemPrompt := systemPromptFor(style)

	summaries := make([]string, 0, len(groups))
	for i, group := range groups {
		truncated := retrieval.TruncateAtLastSentence(group, o.cfg.GroupLimit)

		metrics.CompletionAttempts.WithLabelValues("summary").Inc()
		out, err := o.completer.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: systemPrompt,
			UserPrompt:   fmt.Sprintf("Summarize this content:\n\n%s", truncated),
		})
		if err != nil {
			logger.Warn("Group summarization failed, skipping",
				zap.Int("group", i),
				zap.Error(err),
			)
			metrics.GroupsSkipped.Inc()
			continue
		}

		out = strings.TrimSpace(out)
		if len(out) < o.cfg.MinSummaryLength {
			logger.Warn("Group summary too short, skipping",
				zap.Int("group", i),
				zap.Int("length", len(out)),
			)
			metrics.GroupsSkipped.Inc()
			continue
		}

		summaries = append(summaries, out)
	}
	return summaries
}

func systemPromptFor(style string) string {
	tone := "concise and focused"
	if style == StyleDetailed {
		tone = "detailed and comprehensive"
	}
	return fmt.Sprintf("You are an expert document summarizer. Your task is to extract only the most meaningful and relevant content from the input text. Return a summary that is %s.", tone)
}
