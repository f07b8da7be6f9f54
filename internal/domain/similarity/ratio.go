// Package similarity scores how alike two artist or event names are and
// decides whether a scored pair is a trustworthy match.
package similarity

import "strings"

// Ratio returns the longest-matching-block similarity of a and b in [0,1],
// computed case-insensitively over runes as 2*M/T where M is the number of
// matched runes and T the combined length. Two empty strings score 1.
//
// The arguments are put in a canonical order first so Ratio(a,b) == Ratio(b,a).
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	if string(ra) > string(rb) {
		ra, rb = rb, ra
	}
	return 2.0 * float64(matchedRunes(ra, rb)) / float64(total)
}

type block struct{ i, j, size int }

type span struct{ alo, ahi, blo, bhi int }

// matchedRunes sums the sizes of the matching blocks found by repeatedly
// taking the longest common run and recursing on both sides of it.
func matchedRunes(a, b []rune) int {
	index := make(map[rune][]int, len(b))
	for j, r := range b {
		index[r] = append(index[r], j)
	}

	n := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, index, s)
		if m.size == 0 {
			continue
		}
		n += m.size
		if s.alo < m.i && s.blo < m.j {
			queue = append(queue, span{s.alo, m.i, s.blo, m.j})
		}
		if m.i+m.size < s.ahi && m.j+m.size < s.bhi {
			queue = append(queue, span{m.i + m.size, s.ahi, m.j + m.size, s.bhi})
		}
	}

	return n
}

// longestMatch finds the longest common run of a[alo:ahi] and b[blo:bhi].
// Ties resolve to the earliest start in a, then in b.
func longestMatch(a []rune, index map[rune][]int, s span) block {
	best := block{i: s.alo, j: s.blo}
	lengths := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		next := map[int]int{}
		for _, j := range index[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := lengths[j-1] + 1
			next[j] = k
			if k > best.size {
				best = block{i: i - k + 1, j: j - k + 1, size: k}
			}
		}
		lengths = next
	}
	return best
}
