// Package tabular parses pairwise alignments from the tabular output
// of BLAST (run with -outfmt 7) and of William Pearson's FASTA
// programs (run with -m 8CB or -m 8CC).  Both producers emit one "# "
// metadata block per query followed by tab-separated alignment rows;
// the BLAST dialect annotates rows with a BTOP trace-back string, the
// FASTA dialect with a CIGAR-style one.  Both decode into the same
// align.Record representation.
//
// The row format is, for example:
//
//	# TBLASTN 2.12.0+
//	# Query: NP_391444.1 membrane bound lipoprotein
//	# Database: nr
//	# Fields: query id, subject id, % identity, ..., BTOP
//	# 1 hits found
//	NP_391444.1	BAA05057.1	67.99	102	31	1	1	102	4...
//	# BLAST processed 1 queries
package tabular

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/ItValeria/aligntab/align"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// maxLineSize bounds the scanner buffer; rows carrying full aligned
// sequences can be long.
const maxLineSize = 64 * 1024 * 1024

const (
	blastFinalPrefix = "# BLAST processed "
	fastaFinalPrefix = "# FASTA processed "
)

// blastPrograms are the NCBI BLAST+ program names that may open a
// header block directly (the FASTA tools open theirs with a command
// line instead).
var blastPrograms = map[string]bool{
	"BLASTN":     true,
	"BLASTP":     true,
	"BLASTX":     true,
	"TBLASTN":    true,
	"TBLASTX":    true,
	"MEGABLAST":  true,
	"PSIBLAST":   true,
	"RPSBLAST":   true,
	"RPSTBLASTN": true,
	"DELTABLAST": true,
}

// programClass selects the sequence-reconstruction branch for a
// producer program.
type programClass int

const (
	classUnknown programClass = iota
	// classStandard covers untranslated alignments: aligned substrings
	// anchor directly into the full sequence.
	classStandard
	// classTranslatedTarget covers TBLASTN: the target is searched in
	// translated frames, so its coordinates do not anchor into the
	// untranslated sequence and are kept as annotations.
	classTranslatedTarget
	// classTranslatedBoth covers TBLASTX: both sides are translated.
	classTranslatedBoth
)

func classifyProgram(program string) programClass {
	switch program {
	case "TBLASTN":
		return classTranslatedTarget
	case "TBLASTX":
		return classTranslatedBoth
	case "BLASTN", "BLASTP", "BLASTX", "MEGABLAST", "PSIBLAST", "RPSBLAST", "DELTABLAST",
		"FASTA", "SSEARCH", "GGSEARCH", "GLSEARCH", "LALIGN":
		return classStandard
	}
	return classUnknown
}

// Reader reads pairwise alignments from tabular BLAST or FASTA output.
// Header ("# ") blocks establish per-query session state: the
// producer program, the query identity and (FASTA only) its declared
// size, and the field-name list that fixes the layout of the rows that
// follow.  Rows are decoded independently; a row error leaves the
// session state intact, and Read may be called again to continue with
// the next row.
type Reader struct {
	scanner     *bufio.Scanner
	metadata    map[string]string
	finalPrefix string
	fields      []fieldSpec
	queryID     string
	queryDesc   string
	querySize   int // -1 when the header declared no size
	done        bool
}

// NewReader creates a Reader and consumes the initial header block.
func NewReader(in io.Reader) (*Reader, error) {
	r := &Reader{querySize: -1}
	r.scanner = bufio.NewScanner(in)
	r.scanner.Buffer(nil, maxLineSize)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, errors.Wrap(err, "couldn't read tabular data")
		}
		return nil, errors.New("empty input")
	}
	line := strings.TrimRight(r.scanner.Text(), " \t\r")
	if !strings.HasPrefix(line, "# ") {
		return nil, errors.Errorf("missing header: input starts with %q", line)
	}
	if err := r.parseHeader(line); err != nil {
		return nil, err
	}
	return r, nil
}

// Metadata returns the metadata of the current header block: Program,
// Version, and where declared, Command line, Database, and RID.
func (r *Reader) Metadata() map[string]string {
	return r.metadata
}

// Program returns the producer program of the current header block.
func (r *Reader) Program() string {
	return r.metadata["Program"]
}

// QueryID returns the query identifier declared by the current header
// block, or "" when none was declared.
func (r *Reader) QueryID() string {
	return r.queryID
}

// Read returns the next alignment.  It returns io.EOF at the end of
// the stream, including after the terminal "# ... processed N
// queries" line.  Row-level failures are returned as *RowError.
func (r *Reader) Read() (*align.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	for {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, errors.Wrap(err, "couldn't read tabular data")
			}
			r.done = true
			return nil, io.EOF
		}
		line := strings.TrimRight(r.scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			if strings.HasPrefix(line, r.finalPrefix) && strings.HasSuffix(line, " queries") {
				vlog.VI(1).Infof("tabular: end of stream: %s", line)
				r.done = true
				return nil, io.EOF
			}
			if err := r.parseHeader(line); err != nil {
				return nil, err
			}
			continue
		}
		return r.decodeRow(line)
	}
}

// parseHeader consumes one header block, starting from its first line
// (already read) through the "# N hits found" line.
func (r *Reader) parseHeader(first string) error {
	metadata := map[string]string{}
	rest := first[2:]
	if name, _, ok := cutSpace(rest); ok && blastPrograms[name] {
		metadata["Program"], metadata["Version"], _ = cutSpace(rest)
		r.finalPrefix = blastFinalPrefix
	} else {
		metadata["Command line"] = rest
		if !r.scanner.Scan() {
			return rowError(MalformedHeader, first, errors.New("missing program line after command line"))
		}
		line := strings.TrimRight(r.scanner.Text(), " \t\r")
		if !strings.HasPrefix(line, "# ") {
			return rowError(MalformedHeader, line, errors.New("missing program line after command line"))
		}
		var ok bool
		if metadata["Program"], metadata["Version"], ok = cutSpace(line[2:]); !ok {
			return rowError(MalformedHeader, line, errors.New("program line lacks a version"))
		}
		r.finalPrefix = fastaFinalPrefix
	}
	for {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return errors.Wrap(err, "couldn't read tabular data")
			}
			return rowError(MalformedHeader, first, errors.New("header block ends before \"hits found\" line"))
		}
		line := strings.TrimSpace(r.scanner.Text())
		if !strings.HasPrefix(line, "# ") {
			return rowError(MalformedHeader, line, errors.New("non-header line inside header block"))
		}
		content := line[2:]
		sep := strings.Index(content, ": ")
		if sep < 0 {
			const suffix = " hits found"
			if !strings.HasSuffix(content, suffix) {
				return rowError(MalformedHeader, line, errors.New("expected \"hits found\" line"))
			}
			hits, err := strconv.Atoi(content[:len(content)-len(suffix)])
			if err != nil {
				return rowError(MalformedHeader, line, errors.Wrap(err, "bad hit count"))
			}
			vlog.VI(1).Infof("tabular: %s %s: query %q, %d hit(s)",
				metadata["Program"], metadata["Version"], r.queryID, hits)
			break
		}
		prefix, value := content[:sep], content[sep+2:]
		switch prefix {
		case "Query":
			if err := r.parseQueryLine(line, value); err != nil {
				return err
			}
		case "Database":
			metadata["Database"] = value
		case "RID":
			metadata["RID"] = value
		case "Fields":
			specs, unknown := resolveFields(strings.Split(value, ", "))
			if unknown != "" {
				return rowError(FieldVocabularyMismatch, line, errors.Errorf("unexpected field %q", unknown))
			}
			r.fields = specs
		}
	}
	r.metadata = metadata
	return nil
}

// parseQueryLine records the query identity declared by a "# Query: "
// header line.  The FASTA dialect appends the query size, as in
// "pGT875 - 657 nt".
func (r *Reader) parseQueryLine(line, value string) error {
	r.querySize = -1
	if r.finalPrefix == fastaFinalPrefix {
		sep := strings.LastIndex(value, " - ")
		if sep < 0 {
			return rowError(MalformedHeader, line, errors.New("FASTA query line lacks a size"))
		}
		sizeFields := strings.Fields(value[sep+3:])
		if len(sizeFields) != 2 || (sizeFields[1] != "nt" && sizeFields[1] != "aa") {
			return rowError(MalformedHeader, line, errors.Errorf("bad query size %q", value[sep+3:]))
		}
		size, err := strconv.Atoi(sizeFields[0])
		if err != nil {
			return rowError(MalformedHeader, line, errors.Wrap(err, "bad query size"))
		}
		r.querySize = size
		value = value[:sep]
	}
	id, desc, _ := cutSpace(value)
	r.queryID = id
	r.queryDesc = desc
	return nil
}

// cutSpace splits s at its first whitespace run, returning the head,
// the trimmed tail, and whether a tail exists.
func cutSpace(s string) (head, tail string, ok bool) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return strings.TrimSpace(s), "", false
	}
	return s[:i], strings.TrimSpace(s[i:]), true
}

// rowState accumulates the intermediate values of one row during field
// dispatch.  Positions use -1 as "not declared"; starts have already
// been converted from the producers' 1-based convention.
type rowState struct {
	queryID, targetID         string
	queryStart, queryEnd      int
	targetStart, targetEnd    int
	querySize, targetLength   int
	alignmentLength           int
	score                     int
	hasScore                  bool
	btop, cigar               string
	hasBTOP, hasCIGAR         bool
	querySeq, targetSeq       string
	hasQuerySeq, hasTargetSeq bool
	annotations               map[string]interface{}
	queryAnnots               map[string]interface{}
	targetAnnots              map[string]interface{}
}

func (st *rowState) annotate(m *map[string]interface{}, key string, value interface{}) {
	if *m == nil {
		*m = map[string]interface{}{}
	}
	(*m)[key] = value
}

// decodeRow turns one tab-separated row into an alignment record.
func (r *Reader) decodeRow(line string) (*align.Record, error) {
	if len(r.fields) == 0 {
		return nil, rowError(FieldVocabularyMismatch, line, errors.New("row encountered before a \"# Fields:\" declaration"))
	}
	columns := strings.Split(line, "\t")
	if len(columns) != len(r.fields) {
		return nil, rowError(FieldVocabularyMismatch, line,
			errors.Errorf("row has %d values for %d declared fields", len(columns), len(r.fields)))
	}
	st := rowState{
		queryStart: -1, queryEnd: -1,
		targetStart: -1, targetEnd: -1,
		querySize: r.querySize, targetLength: -1,
		alignmentLength: -1,
	}
	for i, spec := range r.fields {
		if err := r.dispatchField(&st, spec, columns[i], line); err != nil {
			return nil, err
		}
	}

	var coords *align.Coordinates
	var err error
	switch {
	case st.hasBTOP:
		if coords, err = ParseBTOP(st.btop); err != nil {
			return nil, rowError(MalformedTraceback, line, err)
		}
	case st.hasCIGAR:
		if coords, err = ParseCIGAR(st.cigar); err != nil {
			return nil, rowError(MalformedTraceback, line, err)
		}
	}

	if coords == nil {
		// Extent is only available from the annotations.
		if st.alignmentLength >= 0 {
			st.annotate(&st.annotations, "alignment length", st.alignmentLength)
		}
		if st.queryStart >= 0 {
			st.annotate(&st.queryAnnots, "start", st.queryStart)
		}
		if st.queryEnd >= 0 {
			st.annotate(&st.queryAnnots, "end", st.queryEnd)
		}
	} else {
		if st.queryStart < 0 || st.queryEnd < 0 {
			return nil, rowError(FieldVocabularyMismatch, line,
				errors.New("trace-back field present without q. start and q. end"))
		}
		coords.RebaseQuery(st.queryStart, st.queryEnd)
	}

	class := classifyProgram(r.Program())
	querySeq, err := r.resolveQuerySeq(&st, class, line)
	if err != nil {
		return nil, err
	}
	targetSeq, err := r.resolveTargetSeq(&st, class, coords, line)
	if err != nil {
		return nil, err
	}

	rec := &align.Record{
		Target: align.SeqRecord{
			ID:          st.targetID,
			Seq:         targetSeq,
			Annotations: st.targetAnnots,
		},
		Query: align.SeqRecord{
			ID:          st.queryID,
			Description: r.queryDesc,
			Seq:         querySeq,
			Annotations: st.queryAnnots,
		},
		Coords:      coords,
		Annotations: st.annotations,
		Score:       st.score,
		HasScore:    st.hasScore,
	}
	return rec, nil
}

// dispatchField routes one (field, value) pair into the row state.
func (r *Reader) dispatchField(st *rowState, spec fieldSpec, value, line string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, rowError(FieldVocabularyMismatch, line,
				errors.Errorf("field %q: bad integer %q", spec.name, value))
		}
		return n, nil
	}
	parseFloat := func() (float64, error) {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, rowError(FieldVocabularyMismatch, line,
				errors.Errorf("field %q: bad number %q", spec.name, value))
		}
		return f, nil
	}
	var n int
	var f float64
	var err error
	switch spec.kind {
	case fieldQueryID:
		if r.queryID != "" && value != r.queryID {
			return rowError(FieldVocabularyMismatch, line,
				errors.Errorf("query id %q does not match header query %q", value, r.queryID))
		}
		st.queryID = value
	case fieldTargetID:
		st.targetID = value
	case fieldIntAnnotation:
		if n, err = atoi(); err != nil {
			return err
		}
		st.annotate(&st.annotations, spec.key, n)
	case fieldFloatAnnotation:
		if f, err = parseFloat(); err != nil {
			return err
		}
		st.annotate(&st.annotations, spec.key, f)
	case fieldStrAnnotation:
		st.annotate(&st.annotations, spec.key, value)
	case fieldQueryAnnotation:
		st.annotate(&st.queryAnnots, spec.key, value)
	case fieldTargetAnnotation:
		st.annotate(&st.targetAnnots, spec.key, value)
	case fieldTargetFloatAnnotation:
		if f, err = parseFloat(); err != nil {
			return err
		}
		st.annotate(&st.targetAnnots, spec.key, f)
	case fieldQueryStart:
		if n, err = atoi(); err != nil {
			return err
		}
		st.queryStart = n - 1 // 1-based in the input
	case fieldQueryEnd:
		if st.queryEnd, err = atoi(); err != nil {
			return err
		}
	case fieldTargetStart:
		if n, err = atoi(); err != nil {
			return err
		}
		st.targetStart = n - 1 // 1-based in the input
	case fieldTargetEnd:
		if st.targetEnd, err = atoi(); err != nil {
			return err
		}
	case fieldQueryLength:
		if n, err = atoi(); err != nil {
			return err
		}
		if st.querySize >= 0 && st.querySize != n {
			return rowError(FieldVocabularyMismatch, line,
				errors.Errorf("query length %d does not match header size %d", n, st.querySize))
		}
		st.querySize = n
	case fieldTargetLength:
		if st.targetLength, err = atoi(); err != nil {
			return err
		}
	case fieldAlignmentLength:
		if st.alignmentLength, err = atoi(); err != nil {
			return err
		}
	case fieldBTOP:
		st.btop, st.hasBTOP = value, true
	case fieldCIGAR:
		st.cigar, st.hasCIGAR = value, true
	case fieldQuerySeq:
		st.querySeq, st.hasQuerySeq = value, true
	case fieldTargetSeq:
		st.targetSeq, st.hasTargetSeq = value, true
	case fieldScore:
		if st.score, err = atoi(); err != nil {
			return err
		}
		st.hasScore = true
	}
	return nil
}

// queryInterval returns the 0-based half-open query interval covered
// by the alignment, independent of strand.
func queryInterval(start, end int) (lo, hi int) {
	if start < end {
		return start, end
	}
	// Minus strand: start is the 0-based position of the (1-based)
	// alignment start, end the raw 1-based final coordinate.
	return end - 1, start + 1
}

// resolveQuerySeq reconstructs the query sequence content per the
// program's reconstruction branch.
func (r *Reader) resolveQuerySeq(st *rowState, class programClass, line string) (*align.SparseSeq, error) {
	if !st.hasQuerySeq {
		if st.querySize >= 0 {
			return align.NewUnknownSeq(st.querySize), nil
		}
		return nil, nil
	}
	switch class {
	case classStandard, classTranslatedTarget:
		lo, hi := queryInterval(st.queryStart, st.queryEnd)
		seq, err := align.ReconstructSeq(st.querySeq, lo, hi, st.querySize)
		if err != nil {
			return nil, rowError(SequenceLengthMismatch, line, errors.Wrap(err, "query seq"))
		}
		return seq, nil
	case classTranslatedBoth:
		// Translated coordinates do not anchor into the untranslated
		// sequence; keep them as annotations.
		st.annotate(&st.queryAnnots, "start", st.queryStart)
		st.annotate(&st.queryAnnots, "end", st.queryEnd)
		return align.NewSeq(align.StripGaps(st.querySeq)), nil
	}
	return nil, rowError(UnsupportedProgram, line, errors.Errorf("unknown program %q", r.Program()))
}

// resolveTargetSeq reconstructs the target sequence content and, for
// the standard branch, rebases the target coordinate row.
func (r *Reader) resolveTargetSeq(st *rowState, class programClass, coords *align.Coordinates, line string) (*align.SparseSeq, error) {
	if class == classTranslatedTarget || class == classTranslatedBoth {
		if st.targetStart >= 0 {
			st.annotate(&st.targetAnnots, "start", st.targetStart)
		}
		if st.targetEnd >= 0 {
			st.annotate(&st.targetAnnots, "end", st.targetEnd)
		}
		if st.targetLength >= 0 {
			st.annotate(&st.targetAnnots, "length", st.targetLength)
		}
		if !st.hasTargetSeq {
			return nil, nil
		}
		return align.NewSeq(align.StripGaps(st.targetSeq)), nil
	}
	if coords != nil {
		if st.targetStart < 0 {
			return nil, rowError(FieldVocabularyMismatch, line,
				errors.New("trace-back field present without s. start"))
		}
		coords.RebaseTarget(st.targetStart)
	}
	if !st.hasTargetSeq {
		if st.targetEnd < 0 {
			return nil, nil
		}
		if st.targetLength >= 0 {
			return align.NewUnknownSeq(st.targetLength), nil
		}
		return align.NewUnknownSeq(st.targetEnd), nil
	}
	if st.targetStart >= 0 && st.targetEnd >= 0 {
		seq, err := align.ReconstructSeq(st.targetSeq, st.targetStart, st.targetEnd, st.targetLength)
		if err != nil {
			return nil, rowError(SequenceLengthMismatch, line, errors.Wrap(err, "subject seq"))
		}
		return seq, nil
	}
	return align.NewSeq(align.StripGaps(st.targetSeq)), nil
}

// FileReader is a Reader bound to an underlying file, as opened by
// Open.
type FileReader struct {
	*Reader
	file file.File
	gz   *gzip.Reader
}

// Open opens the tabular file at path, which may live on any file
// system base/file supports and may be gzip-compressed.
func Open(path string) (*FileReader, error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	fr := &FileReader{file: in}
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if fr.gz, err = gzip.NewReader(reader); err != nil {
			_ = in.Close(ctx)
			return nil, errors.Wrapf(err, "%v: gzip open", path)
		}
		reader = fr.gz
	}
	if fr.Reader, err = NewReader(reader); err != nil {
		_ = fr.closeFile()
		return nil, errors.Wrapf(err, "%v", path)
	}
	return fr, nil
}

// Close releases the underlying file.
func (f *FileReader) Close() error {
	return f.closeFile()
}

func (f *FileReader) closeFile() error {
	var err error
	if f.gz != nil {
		err = f.gz.Close()
	}
	if e := f.file.Close(vcontext.Background()); e != nil && err == nil {
		err = e
	}
	return err
}
