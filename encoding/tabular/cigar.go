package tabular

import (
	"github.com/ItValeria/aligntab/align"
	"github.com/pkg/errors"
)

// ParseCIGAR decodes a CIGAR-style trace-back string, as emitted by
// the FASTA programs' -m 8CC output, into a breakpoint coordinate
// matrix.  The string is a concatenation of <length><op> pairs with op
// one of M (both sequences advance), I (target only), or D (query
// only).  Each pair appends one breakpoint column; unlike BTOP input,
// the grammar already guarantees one operation per run, so no merging
// is performed.  Operation codes outside M/I/D are rejected.
func ParseCIGAR(cigar string) (*align.Coordinates, error) {
	coords := align.NewCoordinates()
	target, query := 0, 0
	for i := 0; i < len(cigar); {
		if cigar[i] < '0' || cigar[i] > '9' {
			return nil, errors.Errorf("missing length before CIGAR operation %q at offset %d", cigar[i], i)
		}
		length, next, err := parseRunLength(cigar, i)
		if err != nil {
			return nil, err
		}
		i = next
		if i == len(cigar) {
			return nil, errors.Errorf("truncated CIGAR: length %d with no operation", length)
		}
		op := cigar[i]
		i++
		switch op {
		case 'M':
			target += length
			query += length
		case 'I':
			target += length
		case 'D':
			query += length
		default:
			return nil, errors.Errorf("unsupported CIGAR operation %q at offset %d", op, i-1)
		}
		coords.Push(target, query)
	}
	return coords, nil
}
