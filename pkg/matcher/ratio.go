package matcher

// Scorer compares a phrase with a candidate variant and returns a similarity in [0, 1].
type Scorer interface {
	Score(phrase, candidate string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(phrase, candidate string) (float64, error)

func (f ScorerFunc) Score(phrase, candidate string) (float64, error) {
	return f(phrase, candidate)
}

// SequenceRatio scores two strings with the Ratcliff/Obershelp ratio 2*M/T,
// where M is the number of runes in matching blocks and T the total length.
type SequenceRatio struct{}

func (SequenceRatio) Score(phrase, candidate string) (float64, error) {
	return Ratio(phrase, candidate), nil
}

// Ratio computes the Ratcliff/Obershelp similarity of a and b.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

type span struct{ alo, ahi, blo, bhi int }

// matchingRunes sums the sizes of the matching blocks found by repeatedly
// taking the longest common substring and recursing on both sides of it.
func matchingRunes(a, b []rune) int {
	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b, s)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch returns the earliest longest common run of a[alo:ahi] and b[blo:bhi].
func longestMatch(a, b []rune, s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo
	prev := make([]int, s.bhi-s.blo+1)
	cur := make([]int, s.bhi-s.blo+1)
	for i := s.alo; i < s.ahi; i++ {
		for j := s.blo; j < s.bhi; j++ {
			off := j - s.blo
			if a[i] != b[j] {
				cur[off+1] = 0
				continue
			}
			k := prev[off] + 1
			cur[off+1] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		prev, cur = cur, prev
	}
	return besti, bestj, bestk
}
