package caption

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/pkg/config"
)

type fakeBlobs struct {
	data map[string][]byte
}

func (f *fakeBlobs) Read(name string) ([]byte, error) {
	data, ok := f.data[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeBlobs) Exists(name string) bool {
	_, ok := f.data[name]
	return ok
}

type fakeCaptioner struct {
	validateErr error
	responses   []string
	errs        []error
	calls       int
	lastURI     string
}

func (f *fakeCaptioner) ValidateConfig() error { return f.validateErr }

func (f *fakeCaptioner) Caption(ctx context.Context, imageDataURI, prompt string) (string, error) {
	idx := f.calls
	f.calls++
	f.lastURI = imageDataURI
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("unexpected call")
}

func testConfig() config.CaptionConfig {
	return config.CaptionConfig{MaxAttempts: 15, DelaySec: 0, RejectionPhrase: "no image"}
}

// 1x1 PNG header bytes are enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n" + "0000000000000000")

func TestDescribe_ReturnsCaption(t *testing.T) {
	blobs := &fakeBlobs{data: map[string][]byte{"chart.png": pngBytes}}
	captioner := &fakeCaptioner{responses: []string{"A bar chart showing quarterly revenue growth."}}

	s := NewService(blobs, captioner, testConfig())
	caption, err := s.Describe(context.Background(), "chart.png")

	require.NoError(t, err)
	assert.Equal(t, "A bar chart showing quarterly revenue growth.", caption)
	assert.Contains(t, captioner.lastURI, "data:image/png;base64,")
	assert.Equal(t, 1, captioner.calls)
}

func TestDescribe_RetriesRejectionPhrase(t *testing.T) {
	blobs := &fakeBlobs{data: map[string][]byte{"chart.png": pngBytes}}
	captioner := &fakeCaptioner{responses: []string{
		"There is no image attached to this message.",
		"",
		"A line graph of temperatures.",
	}}

	s := NewService(blobs, captioner, testConfig())
	caption, err := s.Describe(context.Background(), "chart.png")

	require.NoError(t, err)
	assert.Equal(t, "A line graph of temperatures.", caption)
	assert.Equal(t, 3, captioner.calls)
}

func TestDescribe_ExhaustsAttempts(t *testing.T) {
	responses := make([]string, 15)
	for i := range responses {
		responses[i] = "Sorry, no image was provided."
	}
	blobs := &fakeBlobs{data: map[string][]byte{"chart.png": pngBytes}}
	captioner := &fakeCaptioner{responses: responses}

	s := NewService(blobs, captioner, testConfig())
	_, err := s.Describe(context.Background(), "chart.png")

	var extErr *errs.ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "caption", extErr.Service)
	assert.Equal(t, 15, captioner.calls)
}

func TestDescribe_MissingImage(t *testing.T) {
	s := NewService(&fakeBlobs{data: map[string][]byte{}}, &fakeCaptioner{}, testConfig())

	_, err := s.Describe(context.Background(), "absent.png")

	var nfErr *errs.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestDescribe_NonImagePayloadRejected(t *testing.T) {
	blobs := &fakeBlobs{data: map[string][]byte{"notes.bin": []byte("plain text, not an image")}}

	s := NewService(blobs, &fakeCaptioner{}, testConfig())
	_, err := s.Describe(context.Background(), "notes.bin")

	var valErr *errs.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestDescribe_EmptyFileName(t *testing.T) {
	s := NewService(&fakeBlobs{}, &fakeCaptioner{}, testConfig())

	_, err := s.Describe(context.Background(), "")

	var valErr *errs.ValidationError
	require.ErrorAs(t, err, &valErr)
}
