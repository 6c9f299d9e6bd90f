package tabular

import "fmt"

// Kind classifies decoding failures.
type Kind int

const (
	// MalformedHeader indicates an unparsable "# " metadata block.
	MalformedHeader Kind = iota + 1
	// MalformedTraceback indicates a BTOP or CIGAR string that does
	// not match its grammar, or an unsupported operation code.
	MalformedTraceback
	// FieldVocabularyMismatch indicates a row whose value count does
	// not match the declared field names, an unrecognized field name,
	// or a value that contradicts the session header.
	FieldVocabularyMismatch
	// SequenceLengthMismatch indicates an ungapped aligned substring
	// whose length differs from its declared end-start span.
	SequenceLengthMismatch
	// UnsupportedProgram indicates a program identifier outside the
	// supported set at a point where a sequence-reconstruction branch
	// must be chosen.
	UnsupportedProgram
)

func (k Kind) String() string {
	switch k {
	case MalformedHeader:
		return "malformed header"
	case MalformedTraceback:
		return "malformed traceback"
	case FieldVocabularyMismatch:
		return "field vocabulary mismatch"
	case SequenceLengthMismatch:
		return "sequence length mismatch"
	case UnsupportedProgram:
		return "unsupported program"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RowError reports a failure while decoding one tabular row.  The raw
// row text is retained so the caller can report or skip the row; a row
// error never corrupts the session state, and Read may be called again
// to continue with the next row.
type RowError struct {
	Kind Kind
	// Row is the raw text of the offending row, or the offending
	// header line for MalformedHeader.
	Row string
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: %v (row %q)", e.Kind, e.Err, e.Row)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ErrorKind returns the Kind carried by err, or 0 if err is not a
// RowError.
func ErrorKind(err error) Kind {
	if re, ok := err.(*RowError); ok {
		return re.Kind
	}
	return 0
}

func rowError(kind Kind, row string, err error) *RowError {
	return &RowError{Kind: kind, Row: row, Err: err}
}
