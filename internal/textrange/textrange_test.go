package textrange

import (
	"errors"
	"testing"
)

func TestSlice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		r    Range
		want string
	}{
		{"ascii", "Hello world", Range{6, 11}, "world"},
		{"prefix", "Hello world", Range{0, 5}, "Hello"},
		{"multibyte", "Grüße, Welt", Range{2, 5}, "üße"},
		{"emoji", "a🎬b", Range{1, 2}, "🎬"},
		{"whole", "abc", Range{0, 3}, "abc"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Slice(tt.text, tt.r); got != tt.want {
				t.Fatalf("Slice(%q, %s) = %q, want %q", tt.text, tt.r, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	text := "Hello"
	valid := []Range{{0, 1}, {0, 5}, {4, 5}}
	for _, r := range valid {
		if err := Validate(text, r); err != nil {
			t.Fatalf("Validate(%s) unexpected error: %v", r, err)
		}
	}
	invalid := []Range{{-1, 2}, {0, 6}, {3, 3}, {4, 2}}
	for _, r := range invalid {
		if err := Validate(text, r); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Validate(%s) expected ErrOutOfBounds, got %v", r, err)
		}
	}
}

func TestSpliceLengthArithmetic(t *testing.T) {
	t.Parallel()

	text := "The quick brown fox jumps"
	replacements := []string{"", "a", "slow, lazy", "🦊🦊"}
	for s := 0; s < Len(text); s += 3 {
		for e := s + 1; e <= Len(text); e += 4 {
			for _, repl := range replacements {
				r := Range{s, e}
				got, inserted := Splice(text, r, repl)
				if want := Len(text) - r.Len() + Len(repl); Len(got) != want {
					t.Fatalf("Splice(%s, %q) length = %d, want %d", r, repl, Len(got), want)
				}
				if inserted != (Range{s, s + Len(repl)}) {
					t.Fatalf("Splice(%s, %q) range = %s", r, repl, inserted)
				}
				if Slice(got, inserted) != repl {
					t.Fatalf("inserted range does not cover replacement: %q", Slice(got, inserted))
				}
			}
		}
	}
}

func TestSpliceScenario(t *testing.T) {
	t.Parallel()

	got, inserted := Splice("Hello world", Range{6, 11}, "EARTH")
	if got != "Hello EARTH" {
		t.Fatalf("unexpected splice result %q", got)
	}
	if inserted != (Range{6, 11}) {
		t.Fatalf("unexpected selection %s", inserted)
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	before, inside, after := Split("naïve café", Range{2, 7})
	if before != "na" || inside != "ïve c" || after != "afé" {
		t.Fatalf("unexpected split %q %q %q", before, inside, after)
	}
}
