package transcript

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases",
			in:   "The Sky Is Blue",
			want: "the sky is blue",
		},
		{
			name: "collapses whitespace runs",
			in:   "hello   world\t\tagain",
			want: "hello world again",
		},
		{
			name: "keeps basic punctuation",
			in:   "Wait, what? Yes: go; now!",
			want: "wait, what? yes: go; now!",
		},
		{
			name: "strips exotic characters",
			in:   `photosynthesis* (chapter #3) — "light"`,
			want: "photosynthesis chapter 3 light",
		},
		{
			name: "trims ends",
			in:   "  padded  ",
			want: "padded",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "only stripped characters",
			in:   "*** ###",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "drops punctuation",
			in:   "Wait, what? Yes: go; now!",
			want: "wait what yes go now",
		},
		{
			name: "punctuation variants share a key",
			in:   "The mitochondria is the powerhouse of the cell.",
			want: "the mitochondria is the powerhouse of the cell",
		},
		{
			name: "only punctuation",
			in:   "?!.,;:",
			want: "",
		},
		{
			name: "idempotent over normalised text",
			in:   Normalize("Hello, World!"),
			want: "hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The Sky Is Blue",
		"  MIXED   case,   punctuation!! and *junk*  ",
		"",
		"already normalized text",
		"ünïcode Wörds bleiben erhalten",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{
			name: "identical",
			a:    "the sky is blue",
			b:    "The sky is BLUE",
			want: 1,
		},
		{
			name: "appended suffix",
			a:    "the sky is",
			b:    "the sky is blue today",
			want: 3.0 / 5.0,
		},
		{
			name: "reordered words score low",
			a:    "blue is the sky",
			b:    "the sky is blue",
			want: 0,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 1,
		},
		{
			name: "one empty",
			a:    "hello",
			b:    "",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{
			name: "punctuation and case insensitive match",
			a:    "Hello, World!",
			b:    "hello world",
			want: true,
		},
		{
			name: "near duplicate is not a duplicate",
			a:    "Hello there",
			b:    "Hello there, friend",
			want: false,
		},
		{
			name: "both normalise to empty",
			a:    "***",
			b:    "###",
			want: false,
		},
		{
			name: "exact repetition",
			a:    "we discussed photosynthesis today",
			b:    "We discussed photosynthesis today.",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicate(tt.a, tt.b); got != tt.want {
				t.Errorf("IsDuplicate(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestJaroWinkler(t *testing.T) {
	if got := JaroWinkler("the mitochondria", "the mitochondria"); got != 1 {
		t.Errorf("identical strings: got %v, want 1", got)
	}
	if got := JaroWinkler("photosynthesis", "completely unrelated"); got >= 0.9 {
		t.Errorf("unrelated strings scored %v, want < 0.9", got)
	}
}
