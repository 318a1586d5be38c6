// Package splitter turns extracted document text into overlapping
// fixed-size fragments, the unit of embedding and vector storage.
package splitter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

type Splitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 5
		}
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

func (s *Splitter) ChunkSize() int { return s.chunkSize }

func (s *Splitter) Overlap() int { return s.overlap }

// Split produces ordered fragments of at most chunkSize bytes where
// consecutive fragments share overlap bytes of trailing/leading text.
// Fragments are contiguous slices of the input, so concatenating them
// minus the overlaps reproduces the source exactly. Cut points prefer
// sentence ends, then word boundaries, before falling back to a hard
// cut. Empty input yields no fragments and no error.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	ends := sentenceEnds(text)

	var fragments []string
	pos := 0
	for pos < len(text) {
		limit := pos + s.chunkSize
		if limit >= len(text) {
			fragments = append(fragments, text[pos:])
			break
		}

		cut := s.naturalBreak(text, pos, limit, ends)
		fragments = append(fragments, text[pos:cut])

		next := cut - s.overlap
		if next <= pos {
			next = cut
		}
		pos = next
	}

	return fragments
}

// naturalBreak picks a cut point in (start, limit], preferring the last
// sentence end past the midpoint of the window, then the last space.
func (s *Splitter) naturalBreak(text string, start, limit int, ends []int) int {
	floor := start + s.chunkSize/2

	best := -1
	for _, end := range ends {
		if end > limit {
			break
		}
		if end > floor {
			best = end
		}
	}
	if best > 0 {
		return best
	}

	if sp := strings.LastIndexByte(text[floor:limit], ' '); sp >= 0 {
		return floor + sp + 1
	}

	cut := limit
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut <= start {
		// No rune boundary anywhere in the window (invalid UTF-8).
		// Cut at the raw byte limit so the walk always advances.
		return limit
	}
	return cut
}

// sentenceEnds returns the byte offsets at which sentences end, in
// ascending order. Segmentation uses prose; a regex pass covers text
// the segmenter cannot handle.
func sentenceEnds(text string) []int {
	var ends []int

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err == nil {
		search := 0
		for _, sentence := range doc.Sentences() {
			idx := strings.Index(text[search:], sentence.Text)
			if idx < 0 {
				continue
			}
			end := search + idx + len(sentence.Text)
			ends = append(ends, end)
			search = end
		}
		if len(ends) > 0 {
			return ends
		}
	}

	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		ends = append(ends, loc[1])
	}
	return ends
}
