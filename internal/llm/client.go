// Package llm wraps the two OpenAI-compatible services the pipeline
// depends on: an OpenRouter chat endpoint for completions and vision
// captions, and an embedding endpoint. Both sit behind a circuit
// breaker; embedding calls additionally go through the bounded-retry
// caller and an optional cache.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/pkg/circuitbreaker"
	"github.com/luminai/backend/pkg/config"
	"github.com/luminai/backend/pkg/logger"
	"github.com/luminai/backend/pkg/retry"
	"github.com/luminai/backend/pkg/utils"
)

const embeddingBatchSize = 100

// EmbeddingCache is satisfied by the redis cache; a nil-backed
// implementation is valid and always misses.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32) error
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type Client struct {
	chat           *openai.Client
	embedder       *openai.Client
	model          string
	captionModel   string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration

	apiKey       string
	embeddingKey string

	cb       *circuitbreaker.CircuitBreaker
	retryCfg retry.Config
	cache    EmbeddingCache
}

func NewClient(llmCfg config.LLMConfig, embCfg config.EmbeddingConfig, cache EmbeddingCache) *Client {
	chatConfig := openai.DefaultConfig(llmCfg.APIKey)
	chatConfig.BaseURL = llmCfg.BaseURL

	embedConfig := openai.DefaultConfig(embCfg.APIKey)
	embedConfig.BaseURL = embCfg.BaseURL

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	timeout := time.Duration(llmCfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	logger.Info("LLM client initialized",
		zap.String("model", llmCfg.Model),
		zap.String("caption_model", llmCfg.CaptionModel),
		zap.String("embedding_model", embCfg.Model),
	)

	return &Client{
		chat:           openai.NewClientWithConfig(chatConfig),
		embedder:       openai.NewClientWithConfig(embedConfig),
		model:          llmCfg.Model,
		captionModel:   llmCfg.CaptionModel,
		embeddingModel: embCfg.Model,
		temperature:    llmCfg.Temperature,
		maxTokens:      llmCfg.MaxTokens,
		timeout:        timeout,
		apiKey:         llmCfg.APIKey,
		embeddingKey:   embCfg.APIKey,
		cb:             cb,
		retryCfg: retry.Config{
			MaxAttempts: 3,
			Delay:       time.Second,
			Logger:      logger.GetLogger(),
		},
		cache: cache,
	}
}

// ValidateConfig reports missing credentials before any external call
// is attempted.
func (c *Client) ValidateConfig() error {
	var missing []string
	if c.apiKey == "" {
		missing = append(missing, "llm.apiKey")
	}
	if c.embeddingKey == "" {
		missing = append(missing, "embedding.apiKey")
	}
	if len(missing) > 0 {
		return errs.Configuration(missing...)
	}
	return nil
}

// Complete issues a single chat completion. It does not retry: callers
// that want retries drive this through the bounded-retry caller with
// their own acceptance predicate.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	var content string
	err := c.cb.Execute(ctx, func() error {
		resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return fmt.Errorf("failed to create completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("completion returned no choices")
		}

		logger.Debug("Completion generated",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		)

		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", errs.External("completion", err)
	}

	return content, nil
}

// Caption asks the vision model to describe an image supplied as a
// base64 data URI. A transport failure is an external-service error;
// an empty or rejected caption is left for the caller's predicate.
func (c *Client) Caption(ctx context.Context, imageDataURI, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: prompt,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: imageDataURI,
					},
				},
			},
		},
	}

	var caption string
	err := c.cb.Execute(ctx, func() error {
		resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.captionModel,
			Messages:    messages,
			Temperature: 0,
		})
		if err != nil {
			return fmt.Errorf("failed to create caption completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("caption completion returned no choices")
		}

		caption = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", errs.External("completion", err)
	}

	return caption, nil
}

// Embed returns one vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, order preserved.
// Cached vectors are reused; misses are embedded in batches.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	var missing []int
	for i, text := range texts {
		if c.cache == nil {
			missing = append(missing, i)
			continue
		}
		cached, hit, err := c.cache.GetEmbedding(ctx, utils.HashString(text))
		if err != nil {
			logger.Warn("Embedding cache read failed", zap.Error(err))
		}
		if hit {
			vectors[i] = cached
			continue
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		inputs := make([]string, len(batch))
		for i, idx := range batch {
			inputs[i] = texts[idx]
		}

		embedded, err := c.embedBatchCall(ctx, inputs)
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(batch) {
			return nil, errs.External("embedding",
				fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embedded), len(batch)))
		}

		for i, idx := range batch {
			vectors[idx] = embedded[i]
			if c.cache != nil {
				if err := c.cache.SetEmbedding(ctx, utils.HashString(texts[idx]), embedded[i]); err != nil {
					logger.Warn("Embedding cache write failed", zap.Error(err))
				}
			}
		}
	}

	logger.Debug("Batch embeddings ready",
		zap.Int("count", len(texts)),
		zap.Int("embedded", len(missing)),
	)

	return vectors, nil
}

func (c *Client) embedBatchCall(ctx context.Context, inputs []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out [][]float32
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryCfg, func() error {
			resp, err := c.embedder.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: inputs,
				Model: openai.EmbeddingModel(c.embeddingModel),
			})
			if err != nil {
				return fmt.Errorf("failed to generate embeddings: %w", err)
			}

			out = make([][]float32, 0, len(resp.Data))
			for _, data := range resp.Data {
				vector := make([]float32, len(data.Embedding))
				copy(vector, data.Embedding)
				out = append(out, vector)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errs.External("embedding", err)
	}

	return out, nil
}
