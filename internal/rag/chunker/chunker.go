// Package chunker splits a large text blob into ordered, bounded-size chunks at natural break points.
package chunker

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
)

// MinSplitRatio is how far into a window a break point has to be before it is accepted.
const MinSplitRatio = 0.3

var ErrInvalidTargetSize = errors.New("chunker: target size must be > 0")

// break points in priority order. cutAfter is how many runes of the delimiter stay in the
// current chunk (the sentence period stays, a code fence moves to the next chunk).
var breakPoints = []struct {
	delimiter []rune
	cutAfter  int
}{
	{delimiter: []rune("```"), cutAfter: 0},
	{delimiter: []rune("\n\n"), cutAfter: 0},
	{delimiter: []rune(". "), cutAfter: 1},
}

// Split cuts text into windows of targetSize characters (runes), preferring to end a window before
// a code fence, then at a paragraph break, then after a sentence. Chunks are trimmed and never empty.
// The same input always produces the same output.
func Split(text string, targetSize int) ([]string, error) {
	if targetSize <= 0 {
		return nil, ErrInvalidTargetSize
	}

	runes := []rune(text)
	minSplit := float64(targetSize) * MinSplitRatio

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + targetSize
		if end >= len(runes) {
			if last := strings.TrimSpace(string(runes[start:])); last != "" {
				chunks = append(chunks, last)
			}
			break
		}

		end = start + splitPoint(runes[start:end], minSplit)

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// forward progress even if the chosen split is at the window start
		start = max(start+1, end)
	}
	return chunks, nil
}

// Chunk is Split with ordinals attached.
func Chunk(text string, targetSize int) ([]commonModels.Chunk, error) {
	parts, err := Split(text, targetSize)
	if err != nil {
		return nil, err
	}
	return FromStrings(parts), nil
}

// FromStrings numbers an already split chunk list, dropping anything blank.
func FromStrings(parts []string) []commonModels.Chunk {
	chunks := make([]commonModels.Chunk, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, commonModels.Chunk{
			Ordinal: len(chunks),
			Text:    p,
			Size:    utf8.RuneCountInString(p),
		})
	}
	return chunks
}

// splitPoint returns the offset inside window where the chunk should end.
// A delimiter before the minimum threshold is ignored and the next rule is tried.
func splitPoint(window []rune, minSplit float64) int {
	for _, bp := range breakPoints {
		idx := lastIndex(window, bp.delimiter)
		if idx != -1 && float64(idx) > minSplit {
			return idx + bp.cutAfter
		}
	}
	return len(window)
}

func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
