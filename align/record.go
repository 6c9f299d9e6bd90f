package align

// SeqRecord carries one side of a pairwise alignment: an identifier,
// an optional free-text description, the (possibly partially known)
// sequence content, and per-sequence annotations.  Annotation values
// are strings, ints, or float64s depending on the producing field.
type SeqRecord struct {
	ID          string
	Description string
	// Seq is nil when nothing is known about the sequence, not even
	// its length.
	Seq         *SparseSeq
	Annotations map[string]interface{}
}

// Record is one decoded pairwise alignment.  It is constructed fresh
// per tabular row and never mutated after being returned.
type Record struct {
	Target SeqRecord
	Query  SeqRecord
	// Coords is nil when the row carried no trace-back field; the
	// alignment extent is then only available from the
	// "alignment length" annotation.
	Coords      *Coordinates
	Annotations map[string]interface{}
	Score       int
	HasScore    bool
}

// AlignmentLength returns the number of alignment columns (residues
// plus gaps) spanned by the record, or -1 when it cannot be
// determined.  It prefers the coordinate matrix and falls back to the
// "alignment length" annotation.
func (r *Record) AlignmentLength() int {
	if r.Coords != nil {
		n := 0
		for i := 1; i < r.Coords.Cols(); i++ {
			dt := r.Coords.Target[i] - r.Coords.Target[i-1]
			dq := r.Coords.Query[i] - r.Coords.Query[i-1]
			if dq < 0 {
				dq = -dq
			}
			if dt > dq {
				n += dt
			} else {
				n += dq
			}
		}
		return n
	}
	if v, ok := r.Annotations["alignment length"].(int); ok {
		return v
	}
	return -1
}
