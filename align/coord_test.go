package align_test

import (
	"testing"

	"github.com/ItValeria/aligntab/align"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebaseQueryForward(t *testing.T) {
	c := &align.Coordinates{Target: []int{0, 4, 6, 9}, Query: []int{0, 4, 4, 7}}
	c.RebaseQuery(10, 20)
	assert.Equal(t, []int{10, 14, 14, 17}, c.Query)
	assert.Equal(t, []int{0, 4, 6, 9}, c.Target)
}

func TestRebaseQueryReverse(t *testing.T) {
	// Reverse strand: local offset v maps to start - v + 1.
	c := &align.Coordinates{Target: []int{0, 10}, Query: []int{0, 10}}
	c.RebaseQuery(100, 80)
	assert.Equal(t, []int{101, 91}, c.Query)
}

func TestRebaseTarget(t *testing.T) {
	c := &align.Coordinates{Target: []int{0, 5, 5, 8}, Query: []int{0, 5, 7, 10}}
	c.RebaseTarget(37)
	assert.Equal(t, []int{37, 42, 42, 45}, c.Target)
}

func TestRanges(t *testing.T) {
	c := &align.Coordinates{Target: []int{20, 25, 31}, Query: []int{8, 13, 19}}
	ts, te := c.TargetRange()
	assert.Equal(t, 20, ts)
	assert.Equal(t, 31, te)
	qs, qe := c.QueryRange()
	assert.Equal(t, 8, qs)
	assert.Equal(t, 19, qe)
}

func TestCigar(t *testing.T) {
	tests := []struct {
		name   string
		coords *align.Coordinates
		want   string
	}{
		{
			"matchOnly",
			&align.Coordinates{Target: []int{0, 10}, Query: []int{0, 10}},
			"10M",
		},
		{
			"matchInsMatch",
			&align.Coordinates{Target: []int{0, 4, 6, 9}, Query: []int{0, 4, 4, 7}},
			"4M2D3M",
		},
		{
			"queryGapThenTargetGap",
			&align.Coordinates{Target: []int{0, 5, 5, 8}, Query: []int{0, 5, 7, 8}},
			"5M2I3M",
		},
		{
			"reverseStrand",
			&align.Coordinates{Target: []int{0, 10}, Query: []int{101, 91}},
			"10M",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cigar, err := tt.coords.Cigar()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cigar.String())
		})
	}
}

func TestCigarInconsistent(t *testing.T) {
	c := &align.Coordinates{Target: []int{0, 5}, Query: []int{0, 3}}
	_, err := c.Cigar()
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := &align.Coordinates{Target: []int{0, 5}, Query: []int{0, 5}}
	b := &align.Coordinates{Target: []int{0, 5}, Query: []int{0, 5}}
	assert.True(t, a.Equal(b))
	b.Query[1] = 6
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
	assert.False(t, a.Equal(align.NewCoordinates()))
}

func TestString(t *testing.T) {
	c := &align.Coordinates{Target: []int{0, 4, 6}, Query: []int{0, 4, 4}}
	assert.Equal(t, "[0 4 6]/[0 4 4]", c.String())
}
