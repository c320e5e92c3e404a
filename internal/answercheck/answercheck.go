// Package answercheck implements the similarity checker used for grading
// spoken answers. Unlike the word-level dictation diff, spoken answers pass
// through a speech recognizer before they reach the server, so exact word
// alignment is too unforgiving; this checker accepts an answer when it is
// close enough to the expected phrase as a whole.
//
// The algorithm is deliberately simple: both strings are normalized
// (lowercased, punctuation stripped, whitespace collapsed) and compared by
// Levenshtein distance, scaled to a [0, 1] similarity. An optional Double
// Metaphone stage additionally accepts answers that are exact homophones of
// the expected phrase, which recognizers produce often ("their" for
// "there").
//
// This checker and the dictation diff are distinct by design; neither feeds
// the other.
package answercheck

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const defaultThreshold = 0.80

// Option is a functional option for configuring a [Checker].
type Option func(*Checker)

// WithThreshold sets the minimum similarity for an answer to be accepted.
// Values are clamped to [0, 1]. Default: 0.80.
func WithThreshold(threshold float64) Option {
	return func(c *Checker) {
		c.threshold = min(max(threshold, 0), 1)
	}
}

// WithPhoneticFallback enables the Double Metaphone stage: an answer whose
// phonetic encoding equals the expected phrase's is accepted even when its
// Levenshtein similarity falls below the threshold.
func WithPhoneticFallback(enabled bool) Option {
	return func(c *Checker) {
		c.phonetic = enabled
	}
}

// Checker grades spoken answers by string similarity. It is read-only after
// construction and safe for concurrent use.
type Checker struct {
	threshold float64
	phonetic  bool
}

// New returns a Checker configured with the supplied options.
func New(opts ...Option) *Checker {
	c := &Checker{threshold: defaultThreshold}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Threshold returns the configured acceptance threshold.
func (c *Checker) Threshold() float64 { return c.threshold }

// Check grades answer against expected. similarity is in [0, 1]; correct
// reports whether the answer meets the threshold (or, with the phonetic
// fallback enabled, sounds identical to the expected phrase).
//
// Check is total: any pair of strings produces a result. Two strings that
// both normalize to nothing are trivially similar; an empty answer against
// a non-empty expectation scores 0.
func (c *Checker) Check(answer, expected string) (similarity float64, correct bool) {
	a := normalize(answer)
	e := normalize(expected)

	if e == "" {
		return 1, true
	}
	if a == "" {
		return 0, false
	}

	similarity = levenshteinSimilarity(a, e)
	if similarity >= c.threshold {
		return similarity, true
	}

	if c.phonetic && soundsEqual(a, e) {
		return similarity, true
	}
	return similarity, false
}

// levenshteinSimilarity converts edit distance into a [0, 1] score scaled by
// the longer string, so a fully different answer scores 0 and an exact
// match scores 1.
func levenshteinSimilarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	if dist > longest {
		dist = longest
	}
	return 1 - float64(dist)/float64(longest)
}

// soundsEqual reports whether the two normalized phrases share a Double
// Metaphone encoding word for word. Phrases with different word counts
// never sound equal.
func soundsEqual(a, b string) bool {
	aw := strings.Fields(a)
	bw := strings.Fields(b)
	if len(aw) != len(bw) || len(aw) == 0 {
		return false
	}
	for i := range aw {
		ap, as := matchr.DoubleMetaphone(aw[i])
		bp, bs := matchr.DoubleMetaphone(bw[i])
		if ap == "" && bp == "" {
			// No consonant signal on either side; fall back to exact equality.
			if aw[i] != bw[i] {
				return false
			}
			continue
		}
		if ap != bp && ap != bs && as != bp {
			return false
		}
	}
	return true
}

// normalize lowercases s, strips punctuation, and collapses whitespace runs
// to single spaces, mirroring the forgiving mode of the dictation tokenizer.
func normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
