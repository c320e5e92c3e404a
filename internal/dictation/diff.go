package dictation

// opKind is one edit operation produced by backtracking the LCS table.
type opKind int

const (
	opMatch  opKind = iota // user token equals expected token
	opDelete               // user token has no counterpart (candidate "extra")
	opInsert               // expected token has no counterpart (candidate "missing")
)

type op struct {
	kind opKind
	// userIdx / expectedIdx point into the display token slices.
	// Only the indices relevant to the kind are set.
	userIdx     int
	expectedIdx int
}

// backtrack walks the filled LCS table from (m, n) to (0, 0) and returns the
// edit operations in left-to-right order.
//
// On a mismatch the walk prefers moving left (consuming an expected token as
// an insert) whenever dp[i][j-1] >= dp[i-1][j]. This tie-break is a
// deliberate policy, not an arbitrary choice: it decides whether an
// ambiguous one-word difference is reported as a single substitution or as
// a missing/extra pair, and the tests pin it down.
func backtrack(table *lcsTable, userMatch, expectedMatch []string) []op {
	i, j := len(userMatch), len(expectedMatch)

	ops := make([]op, 0, i+j)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && userMatch[i-1] == expectedMatch[j-1]:
			ops = append(ops, op{kind: opMatch, userIdx: i - 1, expectedIdx: j - 1})
			i--
			j--
		case j > 0 && (i == 0 || table.at(i, j-1) >= table.at(i-1, j)):
			ops = append(ops, op{kind: opInsert, expectedIdx: j - 1})
			j--
		default:
			ops = append(ops, op{kind: opDelete, userIdx: i - 1})
			i--
		}
	}

	// Operations were recorded back-to-front.
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

// buildDiff converts the ordered operation list into diff segments using the
// display (original-case) tokens. A delete immediately followed by an insert
// collapses into a single substitution; the scan consumes both operations
// together. A lone delete is an extra user word, a lone insert a missing
// expected word.
func buildDiff(ops []op, userTokens, expectedTokens []string) []Segment {
	if len(ops) == 0 {
		return nil
	}

	segments := make([]Segment, 0, len(ops))
	for k := 0; k < len(ops); k++ {
		cur := ops[k]
		switch cur.kind {
		case opMatch:
			segments = append(segments, Segment{
				Type: SegmentCorrect,
				Text: userTokens[cur.userIdx],
			})
		case opDelete:
			if k+1 < len(ops) && ops[k+1].kind == opInsert {
				segments = append(segments, Segment{
					Type:     SegmentWrong,
					Text:     userTokens[cur.userIdx],
					Expected: expectedTokens[ops[k+1].expectedIdx],
				})
				k++ // the insert is consumed by the substitution
				continue
			}
			segments = append(segments, Segment{
				Type: SegmentExtra,
				Text: userTokens[cur.userIdx],
			})
		case opInsert:
			segments = append(segments, Segment{
				Type: SegmentMissing,
				Text: expectedTokens[cur.expectedIdx],
			})
		}
	}
	return segments
}
