package title

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(titles ...string) []Candidate {
	out := make([]Candidate, 0, len(titles))
	for _, ti := range titles {
		out = append(out, NewCandidate(ti, "https://example.com/"+ti))
	}
	return out
}

func TestSequence_OrdinaryBeforeSpecial(t *testing.T) {
	in := candidates("番外 两年后", "第2章", "后记", "第1章", "第10章")

	out := Sequence(in)
	require.Len(t, out, 5)

	assert.Equal(t, "第1章", out[0].Title)
	assert.Equal(t, "第2章", out[1].Title)
	assert.Equal(t, "第10章", out[2].Title)
	assert.Equal(t, "番外 两年后", out[3].Title)
	assert.Equal(t, "后记", out[4].Title)

	// Every special order exceeds every ordinary order.
	for i := 0; i < 3; i++ {
		for j := 3; j < 5; j++ {
			assert.Less(t, out[i].Order, out[j].Order)
		}
	}
}

func TestSequence_OrdinaryOrderIsNumericKey(t *testing.T) {
	out := Sequence(candidates("第7章", "第3章"))

	assert.Equal(t, 3, out[0].Order)
	assert.Equal(t, 7, out[1].Order)
}

func TestSequence_SpecialOrderUsesOffset(t *testing.T) {
	out := Sequence(candidates("番外2", "番外1", "第999章"))

	assert.Equal(t, 999, out[0].Order)
	assert.Equal(t, SpecialOrderOffset, out[1].Order)
	assert.Equal(t, "番外1", out[1].Title)
	assert.Equal(t, SpecialOrderOffset+1, out[2].Order)
	assert.Equal(t, "番外2", out[2].Title)
}

func TestSequence_SpecialWithLargeEmbeddedNumberStaysLast(t *testing.T) {
	// A bonus chapter carrying a huge number must still sort after chapters,
	// and its assigned order comes from its position, not the number.
	out := Sequence(candidates("番外9999999", "第1章"))

	assert.Equal(t, "第1章", out[0].Title)
	assert.Equal(t, "番外9999999", out[1].Title)
	assert.Equal(t, SpecialOrderOffset, out[1].Order)
}

func TestSequence_CJKNumberedChaptersKeepReadingOrder(t *testing.T) {
	// Sorting the persisted (order, title) pairs must reproduce the reading
	// sequence; code-point order of the titles alone would not.
	out := Sequence(candidates("第一章 雪", "第二章 风", "第三章 夜", "第四章 晨"))
	require.Len(t, out, 4)

	assert.Equal(t, "第一章 雪", out[0].Title)
	assert.Equal(t, "第二章 风", out[1].Title)
	assert.Equal(t, "第三章 夜", out[2].Title)
	assert.Equal(t, "第四章 晨", out[3].Title)
	for i, s := range out {
		assert.Equal(t, i+1, s.Order)
	}
}

func TestSequence_RerunIsNoOp(t *testing.T) {
	in := candidates("第2章", "番外", "第1章", "特别篇 完结感言", "第3章")

	first := Sequence(in)

	again := make([]Candidate, 0, len(first))
	for _, s := range first {
		again = append(again, s.Candidate)
	}
	second := Sequence(again)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].Order, second[i].Order)
	}
}

func TestSequence_EmptyInput(t *testing.T) {
	assert.Empty(t, Sequence(nil))
}
