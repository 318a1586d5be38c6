package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/llm"
	"github.com/luminai/backend/pkg/config"
)

const validQuizJSON = `[
  {"question": "What is the capital of France?", "options": ["Paris", "Lyon", "Nice", "Lille"], "answer": "Paris"},
  {"question": "What is 2+2?", "options": ["3", "4", "5", "6"], "answer": "4"},
  {"question": "Which planet is red?", "options": ["Venus", "Mars", "Jupiter", "Saturn"], "answer": "Mars"}
]`

type fakeCompleter struct {
	validateErr error
	responses   []string
	errs        []error
	calls       int
}

func (f *fakeCompleter) ValidateConfig() error { return f.validateErr }

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("unexpected call")
}

func testConfig() config.QuizConfig {
	return config.QuizConfig{MaxAttempts: 3, DelaySec: 0}
}

func TestGenerate_ParsesValidQuiz(t *testing.T) {
	completer := &fakeCompleter{responses: []string{validQuizJSON}}
	g := NewGenerator(completer, testConfig())

	questions, err := g.Generate(context.Background(), "A summary about geography and math.")

	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "Paris", questions[0].Answer)
	assert.Len(t, questions[0].Options, 4)
	assert.Equal(t, 1, completer.calls)
}

func TestGenerate_StripsMarkdownFences(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"```json\n" + validQuizJSON + "\n```"}}
	g := NewGenerator(completer, testConfig())

	questions, err := g.Generate(context.Background(), "summary")

	require.NoError(t, err)
	assert.Len(t, questions, 3)
}

func TestGenerate_RetriesMalformedOutput(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"not json", validQuizJSON}}
	g := NewGenerator(completer, testConfig())

	questions, err := g.Generate(context.Background(), "summary")

	require.NoError(t, err)
	assert.Len(t, questions, 3)
	assert.Equal(t, 2, completer.calls)
}

func TestGenerate_ExhaustsAttemptsOnPersistentGarbage(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"garbage", "garbage", "garbage"}}
	g := NewGenerator(completer, testConfig())

	_, err := g.Generate(context.Background(), "summary")

	var extErr *errs.ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "completion", extErr.Service)
	assert.Equal(t, 3, completer.calls)
}

func TestGenerate_EmptySummaryRejected(t *testing.T) {
	g := NewGenerator(&fakeCompleter{}, testConfig())

	_, err := g.Generate(context.Background(), "   ")

	var valErr *errs.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestGenerate_AnswerMustMatchAnOption(t *testing.T) {
	bad := `[
	  {"question": "Q1?", "options": ["A", "B", "C", "D"], "answer": "E"},
	  {"question": "Q2?", "options": ["A", "B", "C", "D"], "answer": "A"},
	  {"question": "Q3?", "options": ["A", "B", "C", "D"], "answer": "B"}
	]`
	completer := &fakeCompleter{responses: []string{bad, validQuizJSON}}
	g := NewGenerator(completer, testConfig())

	questions, err := g.Generate(context.Background(), "summary")

	require.NoError(t, err)
	assert.Len(t, questions, 3)
	assert.Equal(t, 2, completer.calls)
}

func TestGenerate_InvalidConfigFailsFast(t *testing.T) {
	completer := &fakeCompleter{validateErr: errs.Configuration("llm.apiKey")}
	g := NewGenerator(completer, testConfig())

	_, err := g.Generate(context.Background(), "summary")

	var cfgErr *errs.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, completer.calls)
}
