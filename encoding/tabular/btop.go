package tabular

import (
	"github.com/ItValeria/aligntab/align"
	"github.com/pkg/errors"
)

// traceState tracks the kind of the alignment run currently being
// accumulated while decoding a trace-back string.
type traceState int

const (
	stateNone traceState = iota
	stateMatch
	stateMismatch
	stateQueryGap
	stateTargetGap
)

// btopPairChar reports whether c may appear as one side of a BTOP
// two-character token.
func btopPairChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || c == '-' || c == '*'
}

// maxRunLength bounds a decoded run length.  No real alignment comes
// near it; anything larger is a corrupt trace-back.
const maxRunLength = 1<<31 - 1

// parseRunLength consumes the decimal run starting at s[i], returning
// the length and the index past its last digit.  Runs that would
// overflow maxRunLength are rejected rather than wrapped.
func parseRunLength(s string, i int) (length, next int, err error) {
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		d := int(s[i] - '0')
		if length > (maxRunLength-d)/10 {
			return 0, 0, errors.Errorf("run length %q at offset %d is too large", s[start:i+1], start)
		}
		length = length*10 + d
		i++
	}
	return length, i, nil
}

// ParseBTOP decodes a BLAST trace-back operations (BTOP) string into a
// breakpoint coordinate matrix.  A BTOP string concatenates decimal
// run lengths (runs of exact matches) with two-character tokens: a
// leading dash is a gap in the query, a trailing dash a gap in the
// target, and a letter pair a single mismatch.  Consecutive tokens of
// the same run kind merge into one breakpoint column; a kind change,
// including match to mismatch, starts a new column, so "5AA3" yields
// the columns (5,5), (6,6), (9,9) after the origin.
func ParseBTOP(btop string) (*align.Coordinates, error) {
	coords := align.NewCoordinates()
	state := stateNone
	for i := 0; i < len(btop); {
		c := btop[i]
		if c >= '0' && c <= '9' {
			length, next, err := parseRunLength(btop, i)
			if err != nil {
				return nil, err
			}
			i = next
			extendRun(coords, &state, stateMatch, length)
			continue
		}
		if i+1 >= len(btop) {
			return nil, errors.Errorf("truncated BTOP token %q at offset %d", btop[i:], i)
		}
		a, b := btop[i], btop[i+1]
		if !btopPairChar(a) || !btopPairChar(b) {
			return nil, errors.Errorf("invalid BTOP token %q at offset %d", btop[i:i+2], i)
		}
		i += 2
		last := coords.Cols() - 1
		switch {
		case a == '-':
			// Gap in the query: the target advances alone.
			if state != stateQueryGap {
				coords.Push(coords.Target[last], coords.Query[last])
				last++
				state = stateQueryGap
			}
			coords.Target[last]++
		case b == '-':
			// Gap in the target: the query advances alone.
			if state != stateTargetGap {
				coords.Push(coords.Target[last], coords.Query[last])
				last++
				state = stateTargetGap
			}
			coords.Query[last]++
		default:
			// Mismatch pair, a run of length 1.
			extendRun(coords, &state, stateMismatch, 1)
		}
	}
	return coords, nil
}

// extendRun advances both rows by length, merging into the current
// column only when the run kind is unchanged.
func extendRun(coords *align.Coordinates, state *traceState, kind traceState, length int) {
	last := coords.Cols() - 1
	if *state == kind {
		coords.Target[last] += length
		coords.Query[last] += length
		return
	}
	coords.Push(coords.Target[last]+length, coords.Query[last]+length)
	*state = kind
}
