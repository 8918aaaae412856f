package title

import "sort"

// SpecialOrderOffset is added to the position of every special chapter so
// that specials always sort after ordinary chapters, regardless of any
// number embedded in their own titles.
const SpecialOrderOffset = 1_000_000

// Sequenced pairs a candidate with its assigned reading order.
type Sequenced struct {
	Candidate
	Order int
}

// Sequence sorts candidates into reading order and assigns each a final
// order value: ordinary chapters ascend by numeric key and keep that key as
// their order; special chapters follow, ordered among themselves by numeric
// key, with order = SpecialOrderOffset + position within the special group.
//
// The sort is stable and the assignment depends only on the candidate set,
// so re-running Sequence over an unchanged set reassigns identical order
// values. Periodic re-sequencing jobs rely on that.
func Sequence(candidates []Candidate) []Sequenced {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Special != sorted[j].Special {
			return !sorted[i].Special
		}
		return sorted[i].Num < sorted[j].Num
	})

	out := make([]Sequenced, 0, len(sorted))
	specialPos := 0
	for _, c := range sorted {
		s := Sequenced{Candidate: c}
		if c.Special {
			s.Order = SpecialOrderOffset + specialPos
			specialPos++
		} else {
			s.Order = c.Num
		}
		out = append(out, s)
	}
	return out
}
