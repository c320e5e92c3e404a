package dictation

import (
	"strings"
	"unicode"
)

// Tokenize splits text into word tokens. Surrounding whitespace is trimmed
// and internal runs of whitespace collapse to single separators, so
// "  a   b " and "a b" tokenize identically.
//
// When preservePunctuation is false, every rune that is not a letter, digit,
// underscore, whitespace, or apostrophe is dropped before splitting, so
// "Hello, world!" yields ["Hello", "world"]. Apostrophes survive this pass to
// keep contractions readable in diff output ("it's" stays "it's"); the
// stricter match form used for comparison is produced by [matchForm].
//
// Tokenize is total: it never fails and returns nil for empty or
// whitespace-only input.
func Tokenize(text string, preservePunctuation bool) []string {
	if !preservePunctuation {
		text = strings.Map(func(r rune) rune {
			if isWordRune(r) || unicode.IsSpace(r) || r == '\'' {
				return r
			}
			return -1
		}, text)
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// matchForm converts a display token into the form used for equality during
// alignment. Case folds unless strictCase; all non-word runes (including the
// apostrophes Tokenize kept for display) are stripped unless
// strictPunctuation.
//
// The result may be empty, e.g. for a token that is a lone apostrophe. Empty
// match forms simply never compare equal to a non-empty one.
func matchForm(token string, opts Options) string {
	if !opts.StrictPunctuation {
		token = strings.Map(func(r rune) rune {
			if isWordRune(r) {
				return r
			}
			return -1
		}, token)
	}
	if !opts.StrictCase {
		token = strings.ToLower(token)
	}
	return token
}

// matchForms applies matchForm to every token, preserving positions so that
// display and comparison sequences stay index-aligned.
func matchForms(tokens []string, opts Options) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = matchForm(t, opts)
	}
	return out
}

// isWordRune reports whether r counts as a word character: a letter, a
// digit, or an underscore. Matches the \w class used for normalization.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
