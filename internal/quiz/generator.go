// Package quiz turns a generated summary into a small multiple-choice
// quiz by prompting the completion model for structured JSON.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/llm"
	"github.com/luminai/backend/internal/metrics"
	"github.com/luminai/backend/pkg/config"
	"github.com/luminai/backend/pkg/logger"
	"github.com/luminai/backend/pkg/retry"
)

const (
	questionCount = 3
	optionCount   = 4
)

const promptTemplate = `You are a smart quiz generator.

Based on the following summary, generate exactly 3 multiple-choice questions in this exact JSON format:

[
  {
    "question": "What is ...?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "answer": "should be a complete Option from above"
  }
]

Answers should be exact same word as one of the options.
Do not include any extra text or markdown. Return only the JSON array.

Summary:
%s`

type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type Completer interface {
	ValidateConfig() error
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

type Generator struct {
	completer Completer
	cfg       config.QuizConfig
}

func NewGenerator(completer Completer, cfg config.QuizConfig) *Generator {
	return &Generator{completer: completer, cfg: cfg}
}

// Generate produces a quiz from a summary. The model is retried until
// it returns output that parses into a well-formed quiz or attempts
// run out.
func (g *Generator) Generate(ctx context.Context, summary string) ([]Question, error) {
	if err := g.completer.ValidateConfig(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary) == "" {
		return nil, errs.Validationf("summary is missing or empty")
	}

	prompt := fmt.Sprintf(promptTemplate, summary)

	cfg := retry.Config{
		MaxAttempts: g.cfg.MaxAttempts,
		Delay:       time.Duration(g.cfg.DelaySec) * time.Second,
		Logger:      logger.GetLogger(),
	}

	type attempt struct {
		questions []Question
	}

	result, err := retry.DoAccepted(ctx, cfg, func() (attempt, error) {
		metrics.CompletionAttempts.WithLabelValues("quiz").Inc()
		out, err := g.completer.Complete(ctx, llm.CompletionRequest{UserPrompt: prompt})
		if err != nil {
			return attempt{}, err
		}
		questions, parseErr := parse(out)
		if parseErr != nil {
			logger.Warn("Quiz output rejected", zap.Error(parseErr))
			return attempt{}, nil
		}
		return attempt{questions: questions}, nil
	}, func(a attempt) bool {
		return a.questions != nil
	})
	if err != nil {
		return nil, errs.External("completion", err)
	}

	return result.questions, nil
}

// parse strips markdown fences the model sometimes wraps the JSON in,
// then validates the quiz shape.
func parse(raw string) ([]Question, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var questions []Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}

	if len(questions) != questionCount {
		return nil, fmt.Errorf("expected %d questions, got %d", questionCount, len(questions))
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d is empty", i)
		}
		if len(q.Options) != optionCount {
			return nil, fmt.Errorf("question %d has %d options, expected %d", i, len(q.Options), optionCount)
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.Answer {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("question %d answer does not match any option", i)
		}
	}
	return questions, nil
}
