// Package dictation implements the word-level comparison engine that grades
// a learner's typed transcription against a reference sentence.
//
// The engine aligns the two token sequences with a longest-common-subsequence
// table, backtracks the table into an ordered diff of correct, wrong,
// missing, and extra words, and derives a 0–100 accuracy score from it.
// Accuracy is measured against the reference token count, so extra typed
// words mark the attempt incorrect without distorting the percentage.
//
// Everything in this package is a pure function over its inputs: no state,
// no I/O, no failure modes. [Compare] is total over all string inputs and
// safe for unlimited concurrent use.
package dictation

import "math"

// SegmentType classifies one unit of the comparison diff.
type SegmentType string

const (
	// SegmentCorrect is a user word that matches the reference.
	SegmentCorrect SegmentType = "correct"

	// SegmentWrong is a substitution: the user typed one word where the
	// reference has a different one.
	SegmentWrong SegmentType = "wrong"

	// SegmentMissing is a reference word absent from the user's input.
	SegmentMissing SegmentType = "missing"

	// SegmentExtra is a user word absent from the reference.
	SegmentExtra SegmentType = "extra"
)

// Segment is one element of the diff, in left-to-right reading order.
type Segment struct {
	// Type classifies the segment.
	Type SegmentType `json:"type"`

	// Text is the displayed word: the user's original-case token for
	// correct, wrong, and extra segments, and the reference token for
	// missing segments.
	Text string `json:"text"`

	// Expected is the reference word the user should have typed.
	// Set only when Type is [SegmentWrong].
	Expected string `json:"expected,omitempty"`
}

// Result is the outcome of grading one dictation attempt. It is derived,
// read-only output: one Compare call produces one Result and nothing
// mutates it afterwards.
type Result struct {
	// IsCorrect is true iff every diff segment is correct; any wrong,
	// missing, or extra word marks the attempt incorrect.
	IsCorrect bool `json:"is_correct"`

	// Accuracy is the percentage of reference tokens matched correctly,
	// in [0, 100] with two decimal places.
	Accuracy float64 `json:"accuracy"`

	// Diff is the ordered word-level comparison. Its length is bounded by
	// the sum of both token counts.
	Diff []Segment `json:"diff"`
}

// Options controls how tokens are normalized before comparison. The zero
// value is the default, forgiving mode: case-insensitive and
// punctuation-insensitive. Both options apply to the user input and the
// reference alike; there is no asymmetric normalization.
type Options struct {
	// StrictCase makes comparison case-sensitive, so "Hello" ≠ "hello".
	StrictCase bool `json:"strict_case" yaml:"strict_case"`

	// StrictPunctuation keeps punctuation on tokens during matching, so
	// "world" ≠ "world!".
	StrictPunctuation bool `json:"strict_punctuation" yaml:"strict_punctuation"`
}

// Compare grades the user's typed transcription against the expected
// reference sentence.
//
// An empty reference is vacuously matched: the result is correct with 100%
// accuracy and an empty diff regardless of input. A non-empty reference
// with empty input short-circuits to an all-missing diff with 0% accuracy;
// aligning against an empty sequence would yield exactly that, so the table
// is never built.
//
// Compare never fails, whatever the inputs: empty strings, pure punctuation,
// or arbitrarily long text all produce a well-formed Result. A low score is
// a normal outcome, not an error.
func Compare(input, expected string, opts Options) Result {
	expectedTokens := Tokenize(expected, opts.StrictPunctuation)
	if len(expectedTokens) == 0 {
		return Result{IsCorrect: true, Accuracy: 100}
	}

	userTokens := Tokenize(input, opts.StrictPunctuation)
	if len(userTokens) == 0 {
		diff := make([]Segment, len(expectedTokens))
		for i, tok := range expectedTokens {
			diff[i] = Segment{Type: SegmentMissing, Text: tok}
		}
		return Result{IsCorrect: false, Accuracy: 0, Diff: diff}
	}

	userMatch := matchForms(userTokens, opts)
	expectedMatch := matchForms(expectedTokens, opts)

	table := newLCSTable(userMatch, expectedMatch)
	ops := backtrack(table, userMatch, expectedMatch)
	diff := buildDiff(ops, userTokens, expectedTokens)

	correct := 0
	for _, seg := range diff {
		if seg.Type == SegmentCorrect {
			correct++
		}
	}

	return Result{
		IsCorrect: correct == len(diff),
		Accuracy:  roundScore(100 * float64(correct) / float64(len(expectedTokens))),
		Diff:      diff,
	}
}

// roundScore rounds to two decimal places, half away from zero.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
