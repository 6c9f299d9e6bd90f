package tabular_test

import (
	"testing"

	"github.com/ItValeria/aligntab/align"
	"github.com/ItValeria/aligntab/encoding/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCIGAR(t *testing.T) {
	tests := []struct {
		cigar  string
		target []int
		query  []int
	}{
		{"", []int{0}, []int{0}},
		{"657M", []int{0, 657}, []int{0, 657}},
		{"4M2I3M", []int{0, 4, 6, 9}, []int{0, 4, 4, 7}},
		{"5M3D2M", []int{0, 5, 5, 7}, []int{0, 5, 8, 10}},
		// Adjacent same-kind operations stay separate columns; the
		// grammar already guarantees one operation per token.
		{"2M2M", []int{0, 2, 4}, []int{0, 2, 4}},
		{"1I1D", []int{0, 1, 1}, []int{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.cigar, func(t *testing.T) {
			coords, err := tabular.ParseCIGAR(tt.cigar)
			require.NoError(t, err)
			want := &align.Coordinates{Target: tt.target, Query: tt.query}
			assert.True(t, coords.Equal(want), "got %v, want %v", coords, want)
		})
	}
}

// The final breakpoint pair must equal (sum of M+I, sum of M+D).
func TestParseCIGARFinalPair(t *testing.T) {
	coords, err := tabular.ParseCIGAR("10M3I5M2D7M")
	require.NoError(t, err)
	tEnd, qEnd := coords.Last()
	assert.Equal(t, 10+3+5+7, tEnd)
	assert.Equal(t, 10+5+2+7, qEnd)
}

func TestParseCIGARMalformed(t *testing.T) {
	for _, cigar := range []string{
		"4M2X",                  // unsupported operation code
		"M",                     // missing length
		"12",                    // truncated: length with no operation
		"4M5",                   // trailing length
		"4m",                    // lowercase operation
		"4M 2I",                 // embedded separator
		"-4M",                   // negative length
		"99999999999999999999M", // run length overflows
	} {
		t.Run(cigar, func(t *testing.T) {
			_, err := tabular.ParseCIGAR(cigar)
			require.Error(t, err)
		})
	}
}
