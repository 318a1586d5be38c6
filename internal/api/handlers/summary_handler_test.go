package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/summary"
)

type fakeSummarizer struct {
	resp *summary.Response
	err  error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, clientID, fileName, style string) (*summary.Response, error) {
	return f.resp, f.err
}

func newSummaryApp(s Summarizer) *fiber.App {
	app := fiber.New()
	app.Post("/api/v1/summaries", NewSummaryHandler(s).GenerateSummary)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestGenerateSummary_Success(t *testing.T) {
	s := &fakeSummarizer{resp: &summary.Response{
		Summary: "A concise summary of the document.",
		Metadata: summary.Metadata{
			ClientID:  "client-1",
			FileName:  "report.pdf",
			Namespace: "client-1_report",
		},
	}}
	app := newSummaryApp(s)

	status, body := postJSON(t, app, "/api/v1/summaries", `{"clientId":"client-1","fileName":"report.pdf"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "A concise summary of the document.", data["summary"])
}

func TestGenerateSummary_WarningIsSoft(t *testing.T) {
	s := &fakeSummarizer{resp: &summary.Response{
		Warning:  "No relevant content found. Make sure the document was embedded first.",
		Metadata: summary.Metadata{Namespace: "client-1_report"},
	}}
	app := newSummaryApp(s)

	status, body := postJSON(t, app, "/api/v1/summaries", `{"clientId":"client-1","fileName":"report.pdf"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["warning"])
}

func TestGenerateSummary_MissingFieldsRejected(t *testing.T) {
	app := newSummaryApp(&fakeSummarizer{})

	status, body := postJSON(t, app, "/api/v1/summaries", `{"clientId":"client-1"}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestGenerateSummary_ValidationErrorMapsTo400(t *testing.T) {
	s := &fakeSummarizer{err: errs.Validationf("type must be valid")}
	app := newSummaryApp(s)

	status, _ := postJSON(t, app, "/api/v1/summaries", `{"clientId":"client-1","fileName":"report.pdf","type":"poetry"}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGenerateSummary_ExternalFailureMapsTo500(t *testing.T) {
	s := &fakeSummarizer{err: errs.External("embedding", errors.New("timeout"))}
	app := newSummaryApp(s)

	status, body := postJSON(t, app, "/api/v1/summaries", `{"clientId":"client-1","fileName":"report.pdf"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "embedding")
	assert.Equal(t, "timeout", body["details"])
}

func TestGenerateSummary_UnexpectedErrorCarriesSuggestion(t *testing.T) {
	s := &fakeSummarizer{err: errors.New("boom")}
	app := newSummaryApp(s)

	status, body := postJSON(t, app, "/api/v1/summaries", `{"clientId":"client-1","fileName":"report.pdf"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "Make sure the document was embedded first, and try again.", body["suggestion"])
}

func TestGenerateSummary_ConfigurationErrorMapsTo500(t *testing.T) {
	s := &fakeSummarizer{err: errs.Configuration("llm.apiKey")}
	app := newSummaryApp(s)

	status, body := postJSON(t, app, "/api/v1/summaries", `{"clientId":"client-1","fileName":"report.pdf"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "llm.apiKey")
}
