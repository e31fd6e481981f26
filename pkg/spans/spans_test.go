package spans

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jupierce/covreport/pkg/colorscale"
)

func TestGroupMergesAdjacentRuns(t *testing.T) {
	in := []colorscale.Class{"run50", "run50", colorscale.None, "run50", "run7", "run7"}
	got := Group(in)
	assert.Equal(t, []Span{
		{Class: "run50", Start: 1, End: 2},
		{Class: colorscale.None, Start: 3, End: 3},
		{Class: "run50", Start: 4, End: 4},
		{Class: "run7", Start: 5, End: 6},
	}, got)
	assert.False(t, got[1].Styled())
	assert.True(t, got[0].Styled())
}

func TestGroupEmpty(t *testing.T) {
	assert.Empty(t, Group(nil))
}

func TestGroupReconstructsLineRange(t *testing.T) {
	in := []colorscale.Class{"a", "b", "b", "a", "a", "a", "c", colorscale.None, colorscale.None, "c"}
	got := Group(in)

	runs := 1
	for i := 1; i < len(in); i++ {
		if in[i] != in[i-1] {
			runs++
		}
	}
	assert.Len(t, got, runs)

	next := 1
	for _, s := range got {
		assert.Equal(t, next, s.Start, "spans must be contiguous")
		assert.GreaterOrEqual(t, s.End, s.Start)
		for l := s.Start; l <= s.End; l++ {
			assert.Equal(t, s.Class, in[l-1])
		}
		next = s.End + 1
	}
	assert.Equal(t, len(in)+1, next)
}
