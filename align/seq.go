package align

import (
	"strings"

	"github.com/pkg/errors"
)

// GapChar is the character used for alignment gaps in aligned sequence
// text.
const GapChar = '-'

// SparseSeq represents sequence content that may be only partially
// known.  It takes one of three forms:
//
//   - fully unknown: only the total length is known;
//   - fully known: the complete residue string;
//   - anchored fragment: one contiguous known substring starting at a
//     declared offset, inside a sequence of independently declared
//     total length.
//
// The fully-known form is the anchored form with start 0 and total
// length equal to the fragment length.
type SparseSeq struct {
	length int
	start  int
	frag   string
	known  bool
}

// NewUnknownSeq returns a sequence of the given total length with no
// known content.
func NewUnknownSeq(length int) *SparseSeq {
	return &SparseSeq{length: length}
}

// NewSeq returns a fully known sequence.
func NewSeq(s string) *SparseSeq {
	return &SparseSeq{length: len(s), frag: s, known: true}
}

// NewAnchoredSeq returns a sequence of the given total length whose
// content is known only on [start, start+len(frag)).
func NewAnchoredSeq(start int, frag string, length int) *SparseSeq {
	return &SparseSeq{length: length, start: start, frag: frag, known: true}
}

// StripGaps returns s with all alignment gap characters removed.
func StripGaps(s string) string {
	if !strings.ContainsRune(s, GapChar) {
		return s
	}
	return strings.ReplaceAll(s, string(GapChar), "")
}

// ReconstructSeq builds the sparse sequence for an aligned (possibly
// gap-containing) substring covering the 0-based half-open interval
// [start, end) of a sequence with the given total length.  Gap
// characters are stripped; the remaining residues must span exactly
// end-start or an error is returned.  A negative length anchors the
// fragment in a sequence whose total length is taken to be end, for
// producers that do not declare one.
func ReconstructSeq(gapped string, start, end, length int) (*SparseSeq, error) {
	frag := StripGaps(gapped)
	if len(frag) != end-start {
		return nil, errors.Errorf("ungapped sequence length %d does not span declared interval [%d, %d)", len(frag), start, end)
	}
	if length < 0 {
		length = end
	}
	return NewAnchoredSeq(start, frag, length), nil
}

// Len returns the total declared length.
func (s *SparseSeq) Len() int {
	return s.length
}

// Known reports whether the entire sequence content is known.
func (s *SparseSeq) Known() bool {
	return s.known && s.start == 0 && len(s.frag) == s.length
}

// KnownRange returns the interval over which content is known, as a
// 0-based half-open [start, end).  An unknown sequence yields an empty
// interval.
func (s *SparseSeq) KnownRange() (start, end int) {
	if !s.known {
		return 0, 0
	}
	return s.start, s.start + len(s.frag)
}

// Get returns the residues on [start, end).  The interval must lie
// entirely within the known range.
func (s *SparseSeq) Get(start, end int) (string, error) {
	if end < start {
		return "", errors.Errorf("start must not exceed end: [%d, %d)", start, end)
	}
	ks, ke := s.KnownRange()
	if start < ks || end > ke {
		return "", errors.Errorf("interval [%d, %d) outside known range [%d, %d)", start, end, ks, ke)
	}
	return s.frag[start-s.start : end-s.start], nil
}

// String returns the full residue string of a fully known sequence,
// or a short placeholder otherwise.
func (s *SparseSeq) String() string {
	if s.Known() {
		return s.frag
	}
	return "<unknown>"
}
