// Package textrange addresses strings by half-open rune ranges. Both the
// edit service and the studio document count offsets in runes so a range
// computed on one side of the wire denotes the same text on the other.
package textrange

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrOutOfBounds reports a range that does not satisfy
// 0 <= start < end <= Len(text).
var ErrOutOfBounds = errors.New("range out of bounds")

// Range is a half-open [Start, End) interval of rune offsets.
type Range struct {
	Start int
	End   int
}

// Len reports the number of runes in the range.
func (r Range) Len() int { return r.End - r.Start }

// Empty reports whether the range covers no text.
func (r Range) Empty() bool { return r.Start == r.End }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Len returns the rune length of text.
func Len(text string) int {
	return utf8.RuneCountInString(text)
}

// Validate checks that r is a non-empty range inside text.
func Validate(text string, r Range) error {
	if r.Start < 0 || r.End > Len(text) || r.Start >= r.End {
		return fmt.Errorf("%w: %s for text of length %d", ErrOutOfBounds, r, Len(text))
	}
	return nil
}

// byteOffsets converts rune offsets to byte offsets. Offsets past the end
// clamp to len(text).
func byteOffsets(text string, r Range) (int, int) {
	start, end := len(text), len(text)
	idx := 0
	for pos := range text {
		if idx == r.Start {
			start = pos
		}
		if idx == r.End {
			end = pos
			break
		}
		idx++
	}
	return start, end
}

// Slice returns text[r.Start:r.End] in rune offsets. The caller validates r.
func Slice(text string, r Range) string {
	start, end := byteOffsets(text, r)
	return text[start:end]
}

// Split returns the text before, inside and after r.
func Split(text string, r Range) (before, inside, after string) {
	start, end := byteOffsets(text, r)
	return text[:start], text[start:end], text[end:]
}

// Splice replaces the runes in r with replacement and returns the new text
// together with the range now covering replacement.
func Splice(text string, r Range, replacement string) (string, Range) {
	before, _, after := Split(text, r)
	inserted := Range{Start: r.Start, End: r.Start + Len(replacement)}
	return before + replacement + after, inserted
}
