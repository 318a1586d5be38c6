package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminai/backend/internal/errs"
	"github.com/luminai/backend/internal/vector/milvus"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeSearcher struct {
	chunks    []milvus.RetrievedChunk
	err       error
	gotNS     string
	gotTopK   int
	gotVector []float32
}

func (f *fakeSearcher) Query(ctx context.Context, ns string, vec []float32, topK int) ([]milvus.RetrievedChunk, error) {
	f.gotNS = ns
	f.gotVector = vec
	f.gotTopK = topK
	return f.chunks, f.err
}

func chunksOf(texts ...string) []milvus.RetrievedChunk {
	out := make([]milvus.RetrievedChunk, len(texts))
	for i, t := range texts {
		out[i] = milvus.RetrievedChunk{FragmentID: "f", Text: t}
	}
	return out
}

func TestRetrieve_EmptyNamespaceSignalsNoContent(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{vector: []float32{1}}, &fakeSearcher{}, 20, 1800)

	_, err := engine.Retrieve(context.Background(), "c1_doc")

	var noContent *errs.NoContentError
	require.ErrorAs(t, err, &noContent)
	assert.Equal(t, "c1_doc", noContent.Namespace)
	assert.Equal(t, AnalyticalQuery, noContent.Query)
}

func TestRetrieve_DeduplicatesAndGroups(t *testing.T) {
	searcher := &fakeSearcher{chunks: chunksOf(
		"First chunk.",
		"  First chunk.  ",
		"Second chunk.",
	)}
	engine := NewEngine(&fakeEmbedder{vector: []float32{1}}, searcher, 20, 1800)

	result, err := engine.Retrieve(context.Background(), "ns")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ChunksUsed)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "First chunk.\n\nSecond chunk.", result.Groups[0])
	assert.Equal(t, 20, searcher.gotTopK)
	assert.Equal(t, "ns", searcher.gotNS)
}

func TestPackGroups_SealsAtLimit(t *testing.T) {
	a := strings.Repeat("a", 1000)
	b := strings.Repeat("b", 700)
	c := strings.Repeat("c", 400)

	groups := PackGroups([]string{a, b, c}, 1800)

	require.Len(t, groups, 2)
	assert.Equal(t, a+"\n\n"+b, groups[0])
	assert.Equal(t, c, groups[1])
}

func TestPackGroups_EveryGroupWithinBoundBeforeTruncation(t *testing.T) {
	var chunks []string
	for i := 0; i < 12; i++ {
		chunks = append(chunks, strings.Repeat("x", 500)+".")
	}

	for _, group := range PackGroups(chunks, 1800) {
		// The seal test bounds combined chunk length; joiners add two
		// newlines per boundary on top.
		assert.LessOrEqual(t, len(group), 1800+2*2)
	}
}

func TestPackGroups_OversizedChunkBecomesOwnGroup(t *testing.T) {
	big := strings.Repeat("z", 2500)

	groups := PackGroups([]string{"small.", big, "tail."}, 1800)

	require.Len(t, groups, 3)
	assert.Equal(t, "small.", groups[0])
	assert.Equal(t, big, groups[1])
	assert.Equal(t, "tail.", groups[2])
}

func TestPackGroups_Empty(t *testing.T) {
	assert.Empty(t, PackGroups(nil, 1800))
}

func TestTruncateAtLastSentence(t *testing.T) {
	// Within bound: unchanged.
	assert.Equal(t, "A. B. C", TruncateAtLastSentence("A. B. C", 10))

	// Cut at the last period within the bound.
	assert.Equal(t, "A.", TruncateAtLastSentence("A. B. C", 4))
	assert.Equal(t, "A. B.", TruncateAtLastSentence("A. B. C", 5))

	// No period in range: keep the raw prefix.
	assert.Equal(t, "ABCDE", TruncateAtLastSentence("ABCDEFGH", 5))
}

func TestTruncateAtLastSentence_NeverGrows(t *testing.T) {
	inputs := []string{"one. two. three.", strings.Repeat("q", 50), "no periods here at all"}
	for _, in := range inputs {
		out := TruncateAtLastSentence(in, 10)
		assert.LessOrEqual(t, len(out), 10)
		assert.True(t, strings.HasPrefix(in, out))
	}
}
