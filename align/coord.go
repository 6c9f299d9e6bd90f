// Package align defines the normalized in-memory representation of a
// pairwise sequence alignment: a breakpoint coordinate matrix relating
// a target and a query sequence, a sparse sequence model for partially
// known sequence content, and the alignment record tying them together.
//
// Coordinates are 0-based and half-open throughout, following the
// "0-based in binary/internal, 1-based in text" convention.
package align

import (
	"strconv"
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

// Coordinates is a 2xN matrix of alignment breakpoints.  Column i of
// (Target, Query) marks a position at which the alignment operation
// (match, gap in query, gap in target) changes.  A freshly decoded
// matrix starts at the (0, 0) origin column; both rows are
// non-decreasing until rebased.  After RebaseQuery the query row of a
// reverse-strand alignment is decreasing; this is the only exception
// to monotonicity.
type Coordinates struct {
	Target []int
	Query  []int
}

// NewCoordinates returns a matrix holding only the (0, 0) origin
// column.
func NewCoordinates() *Coordinates {
	return &Coordinates{Target: []int{0}, Query: []int{0}}
}

// Cols returns the number of breakpoint columns.
func (c *Coordinates) Cols() int {
	return len(c.Target)
}

// Last returns the final (target, query) breakpoint pair.
func (c *Coordinates) Last() (int, int) {
	n := len(c.Target) - 1
	return c.Target[n], c.Query[n]
}

// Push appends a new breakpoint column.
func (c *Coordinates) Push(target, query int) {
	c.Target = append(c.Target, target)
	c.Query = append(c.Query, query)
}

// TargetRange returns the target-row interval covered by the
// alignment as a 0-based half-open [start, end).
func (c *Coordinates) TargetRange() (start, end int) {
	return c.Target[0], c.Target[len(c.Target)-1]
}

// QueryRange returns the query-row interval covered by the alignment.
// For a reverse-strand alignment the returned start exceeds the end.
func (c *Coordinates) QueryRange() (start, end int) {
	return c.Query[0], c.Query[len(c.Query)-1]
}

// RebaseTarget shifts the target row from decode-local offsets to
// absolute sequence coordinates.
func (c *Coordinates) RebaseTarget(start int) {
	for i := range c.Target {
		c.Target[i] += start
	}
}

// RebaseQuery shifts the query row from decode-local offsets to
// absolute sequence coordinates.  start is the 0-based query start and
// end the half-open query end as declared by the producer.  When
// start >= end the query aligned to the minus strand, and each local
// offset v maps to start - v + 1 so that the row decreases from the
// (1-based) alignment start.
func (c *Coordinates) RebaseQuery(start, end int) {
	if start < end {
		for i := range c.Query {
			c.Query[i] += start
		}
		return
	}
	for i := range c.Query {
		c.Query[i] = start - c.Query[i] + 1
	}
}

// Equal reports whether two matrices hold identical breakpoints.
func (c *Coordinates) Equal(other *Coordinates) bool {
	if other == nil || len(c.Target) != len(other.Target) {
		return false
	}
	for i := range c.Target {
		if c.Target[i] != other.Target[i] || c.Query[i] != other.Query[i] {
			return false
		}
	}
	return true
}

// Cigar converts the matrix to SAM CIGAR operations, treating the
// target as the reference and the query as the read.  Reverse-strand
// query rows are accepted; the operation lengths use the magnitude of
// each step.
func (c *Coordinates) Cigar() (sam.Cigar, error) {
	cigar := make(sam.Cigar, 0, len(c.Target)-1)
	for i := 1; i < len(c.Target); i++ {
		dt := c.Target[i] - c.Target[i-1]
		dq := c.Query[i] - c.Query[i-1]
		if dq < 0 {
			dq = -dq
		}
		switch {
		case dt == dq:
			cigar = append(cigar, sam.NewCigarOp(sam.CigarMatch, dt))
		case dq == 0:
			cigar = append(cigar, sam.NewCigarOp(sam.CigarDeletion, dt))
		case dt == 0:
			cigar = append(cigar, sam.NewCigarOp(sam.CigarInsertion, dq))
		default:
			return nil, errors.Errorf("inconsistent breakpoint column %d: target advanced %d, query advanced %d", i, dt, dq)
		}
	}
	return cigar, nil
}

// String renders the matrix as "[t0 t1 ...]/[q0 q1 ...]" for logging
// and error messages.
func (c *Coordinates) String() string {
	var sb strings.Builder
	writeRow := func(row []int) {
		sb.WriteByte('[')
		for i, v := range row {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.Itoa(v))
		}
		sb.WriteByte(']')
	}
	writeRow(c.Target)
	sb.WriteByte('/')
	writeRow(c.Query)
	return sb.String()
}
