package splitter

import (
	"strings"
	"time"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildText(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog near the riverbank. ")
	}
	return strings.TrimSpace(b.String())
}

func TestSplit_EmptyInput(t *testing.T) {
	s := New(1000, 200)
	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplit_ShortInputIsSingleFragment(t *testing.T) {
	s := New(1000, 200)
	text := "One small document."
	frags := s.Split(text)
	require.Len(t, frags, 1)
	assert.Equal(t, text, frags[0])
}

func TestSplit_FragmentBounds(t *testing.T) {
	s := New(1000, 200)
	frags := s.Split(buildText(120))
	require.Greater(t, len(frags), 1)

	for _, f := range frags {
		assert.NotEmpty(t, f)
		assert.LessOrEqual(t, len(f), 1000)
	}
}

func TestSplit_OverlapIsShared(t *testing.T) {
	s := New(1000, 200)
	frags := s.Split(buildText(120))
	require.Greater(t, len(frags), 1)

	for i := 1; i < len(frags); i++ {
		prev := frags[i-1]
		require.GreaterOrEqual(t, len(prev), 200)
		assert.Equal(t, prev[len(prev)-200:], frags[i][:200],
			"fragment %d should begin with the previous fragment's tail", i)
	}
}

// Removing the overlaps and concatenating must reproduce the source
// text exactly.
func TestSplit_CoverageReconstructsSource(t *testing.T) {
	s := New(1000, 200)
	text := buildText(150)
	frags := s.Split(text)
	require.Greater(t, len(frags), 2)

	var b strings.Builder
	b.WriteString(frags[0])
	for _, f := range frags[1:] {
		b.WriteString(f[200:])
	}
	assert.Equal(t, text, b.String())
}

func TestSplit_PrefersSentenceBoundaries(t *testing.T) {
	s := New(1000, 200)
	frags := s.Split(buildText(120))
	require.Greater(t, len(frags), 1)

	// Every non-final fragment should end at a sentence or word break,
	// not mid-word.
	for _, f := range frags[:len(frags)-1] {
		last := f[len(f)-1]
		assert.Contains(t, []byte{'.', '!', '?', ' '}, last)
	}
}

func TestSplit_InvalidUTF8AlwaysAdvances(t *testing.T) {
	s := New(1000, 200)

	// Continuation bytes only, so no sentence end, no space and no
	// rune start exists anywhere in a cut window.
	text := "x" + strings.Repeat("\x80", 3000)

	done := make(chan []string, 1)
	go func() { done <- s.Split(text) }()

	var frags []string
	select {
	case frags = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Split did not terminate on invalid UTF-8 input")
	}

	require.NotEmpty(t, frags)
	for i, f := range frags {
		assert.NotEmpty(t, f, "fragment %d is empty", i)
		assert.LessOrEqual(t, len(f), 1000)
	}

	var b strings.Builder
	b.WriteString(frags[0])
	for _, f := range frags[1:] {
		b.WriteString(f[200:])
	}
	assert.Equal(t, text, b.String())
}

func TestNew_Defaults(t *testing.T) {
	s := New(0, -1)
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, s.Overlap())
}
