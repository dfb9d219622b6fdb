// Package transcript provides the text-normalisation, duplicate-detection, and
// buffering primitives the recording session core builds on.
//
// Browser speech recognition tends to re-emit near-identical text: a partial
// line is refined several times before its final form arrives, and a final
// line is occasionally re-transcribed verbatim after a reconnect. The
// functions here decide what counts as "the same text" so downstream question
// generation is not fed duplicates.
//
// Duplicate policy: only text identical word for word (after [Canonical]) is
// suppressed — case and punctuation never distinguish re-transcriptions,
// since the ASR freely re-punctuates the same utterance. An earlier
// similarity-threshold policy (suppress at ≥ 0.7 overlap) produced false
// positives on legitimately distinct utterances that merely shared a topic,
// so [IsDuplicate] is exact-match only. [Similarity] and [JaroWinkler]
// remain available for diagnostics and logging.
package transcript

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Normalize lowercases text, collapses whitespace runs to a single space,
// strips characters outside word characters, whitespace, and basic
// punctuation (. , ; : ! ?), and trims both ends.
//
// Normalize is pure, deterministic, and idempotent:
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			space = true
		case isWordRune(r) || isBasicPunct(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			// Dropped characters do not break a word apart, but they also
			// must not glue two words together when surrounded by spaces.
		}
	}
	return b.String()
}

// isWordRune reports whether r is a word character: a letter, a digit, or an
// underscore. Letters outside ASCII are kept so non-English lectures survive
// normalisation; non-ASCII punctuation (em-dashes, curly quotes) is not.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isBasicPunct reports whether r is one of the retained punctuation marks.
func isBasicPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?':
		return true
	}
	return false
}

// Canonical reduces text to its bare word sequence: [Normalize]'s output with
// the retained punctuation dropped as well. It is the comparison key for
// duplicate detection, where "Hello, World!" and "hello world" are the same
// utterance. Like Normalize it is pure, deterministic, and idempotent.
func Canonical(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			space = true
		case isWordRune(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity returns the position-aligned word-overlap ratio between a and b
// in [0, 1]. Both strings are normalised, split on spaces, and compared word
// by word at equal indices up to the shorter length; the result is
// matches / max(len(wordsA), len(wordsB)).
//
// This is intentionally not a bag-of-words measure: consecutive ASR partials
// append words rather than reorder them, so identical phrasing that has been
// re-ordered scores low — which is the desired behaviour.
func Similarity(a, b string) float64 {
	wordsA := strings.Fields(Normalize(a))
	wordsB := strings.Fields(Normalize(b))

	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shorter := len(wordsA)
	if len(wordsB) < shorter {
		shorter = len(wordsB)
	}

	matches := 0
	for i := 0; i < shorter; i++ {
		if wordsA[i] == wordsB[i] {
			matches++
		}
	}

	longer := len(wordsA)
	if len(wordsB) > longer {
		longer = len(wordsB)
	}
	return float64(matches) / float64(longer)
}

// IsDuplicate reports whether a and b reduce to the same non-empty
// [Canonical] word sequence, so text differing only in case or punctuation
// counts as a duplicate. Near-duplicates are never suppressed; see the
// package comment for why the policy is exact-match only.
func IsDuplicate(a, b string) bool {
	ca := Canonical(a)
	return ca != "" && ca == Canonical(b)
}

// JaroWinkler returns the Jaro-Winkler similarity between the normalised
// forms of a and b. It plays no part in duplicate suppression — the
// segmentation engine logs it when a committed segment lands close to its
// predecessor, which is the signal that tuned the exact-match policy.
func JaroWinkler(a, b string) float64 {
	return matchr.JaroWinkler(Normalize(a), Normalize(b), false)
}
