package dictation

// lcsTable computes the longest-common-subsequence length table for two
// token sequences. The table has (len(a)+1) × (len(b)+1) entries stored in a
// single flat slice; entry (i, j) is the LCS length of a[:i] and b[:j], so
// row and column zero are the empty-sequence base case.
//
// O(m·n) time and space. Inputs are single sentences, so the quadratic cost
// is a few hundred cells in practice.
type lcsTable struct {
	cells []int
	cols  int
}

// newLCSTable fills the table for token sequences a and b using the
// standard recurrence: a match extends the diagonal by one, otherwise the
// cell takes the larger of the cell above and the cell to the left.
func newLCSTable(a, b []string) *lcsTable {
	m, n := len(a), len(b)
	t := &lcsTable{
		cells: make([]int, (m+1)*(n+1)),
		cols:  n + 1,
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				t.set(i, j, t.at(i-1, j-1)+1)
			} else if up, left := t.at(i-1, j), t.at(i, j-1); up >= left {
				t.set(i, j, up)
			} else {
				t.set(i, j, left)
			}
		}
	}
	return t
}

func (t *lcsTable) at(i, j int) int { return t.cells[i*t.cols+j] }

func (t *lcsTable) set(i, j, v int) { t.cells[i*t.cols+j] = v }
